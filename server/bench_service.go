package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/tailcall/bench"
	"github.com/chazu/tailcall/history"
)

// Procedure names served by BenchService.
const (
	BenchServiceName = "tailcall.v1.BenchService"
	RunProcedure     = "/" + BenchServiceName + "/Run"
	ListProcedure    = "/" + BenchServiceName + "/List"
)

// BenchService runs benchmark specs on request and, when a history store
// is configured, records every result.
//
// Requests and responses are google.protobuf.Struct values so that the
// service can be called with plain JSON:
//
//	curl -H 'Content-Type: application/json' \
//	     -d '{"mode":"trampoline","size":1000,"loops":10}' \
//	     http://localhost:4567/tailcall.v1.BenchService/Run
type BenchService struct {
	worker   *Worker
	store    *history.Store
	defaults bench.Spec
	limits   Limits
}

// Limits bound the work a single Run request may ask for. Runs cannot be
// interrupted once started and share one worker, so a request over any
// limit is rejected before it is queued.
type Limits struct {
	// MaxInstructions bounds (size+1) × (loops+1), the dispatches of a run
	// started at slot 0.
	MaxInstructions uint64
	// MaxCapacity bounds the dispatch table allocated for a run.
	MaxCapacity int
	// MaxDepth bounds the frame limit of nested runs.
	MaxDepth int
}

// DefaultLimits admit the default benchmark shape with headroom.
var DefaultLimits = Limits{
	MaxInstructions: 10_000_000_000,
	MaxCapacity:     10_000_000,
	MaxDepth:        1_000_000,
}

// Check reports the first limit spec exceeds.
func (l Limits) Check(spec bench.Spec) error {
	if spec.Capacity > l.MaxCapacity {
		return fmt.Errorf("capacity %d exceeds limit %d", spec.Capacity, l.MaxCapacity)
	}
	if spec.MaxDepth > l.MaxDepth {
		return fmt.Errorf("max_depth %d exceeds limit %d", spec.MaxDepth, l.MaxDepth)
	}
	if spec.Size < 0 || spec.Loops < 0 {
		return nil
	}
	passes, slots := uint64(spec.Loops)+1, uint64(spec.Size)+1
	if passes > l.MaxInstructions/slots {
		return fmt.Errorf("size %d × loops %d exceeds the limit of %d instructions",
			spec.Size, spec.Loops, l.MaxInstructions)
	}
	return nil
}

// NewBenchService creates a BenchService. Fields missing from a Run
// request are taken from defaults; requests over limits are rejected.
// store may be nil.
func NewBenchService(worker *Worker, store *history.Store, defaults bench.Spec, limits Limits) *BenchService {
	return &BenchService{
		worker:   worker,
		store:    store,
		defaults: defaults,
		limits:   limits,
	}
}

// Run executes one benchmark.
func (s *BenchService) Run(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	spec, err := s.specFrom(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	res, err := s.worker.Run(ctx, spec)
	if err != nil {
		return nil, runError(err)
	}

	if s.store != nil {
		if err := s.store.Record(ctx, res); err != nil {
			log.Error("failed to record run", "id", res.ID, "err", err)
		}
	}

	msg, err := toStruct(res)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// List returns recorded runs, newest first. The request may carry
// mode, size, loops and limit filters.
func (s *BenchService) List(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no history store configured"))
	}

	var f history.Filter
	fields := req.Msg.GetFields()
	if v, ok := fields["mode"]; ok {
		f.Mode = v.GetStringValue()
	}
	f.Size = int(fields["size"].GetNumberValue())
	f.Loops = int(fields["loops"].GetNumberValue())
	f.Limit = int(fields["limit"].GetNumberValue())

	runs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	msg, err := toStruct(map[string]any{"runs": runs})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// specFrom overlays the request fields on the service defaults.
func (s *BenchService) specFrom(msg *structpb.Struct) (bench.Spec, error) {
	spec := s.defaults
	if msg == nil {
		return spec, nil
	}

	data, err := protojson.Marshal(msg)
	if err != nil {
		return spec, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return spec, fmt.Errorf("bad run request: %w", err)
	}

	// Grow the table for larger programs unless the caller pinned it.
	if _, pinned := msg.GetFields()["capacity"]; !pinned && spec.Capacity <= spec.Size {
		spec.Capacity = spec.Size + 1
	}
	if err := s.limits.Check(spec); err != nil {
		return spec, err
	}
	return spec, nil
}

// runError maps harness errors to Connect codes.
func runError(err error) error {
	switch {
	case errors.Is(err, bench.ErrInvalidSpec):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, bench.ErrMismatch):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, ErrStopped):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// toStruct converts a JSON-serializable value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
