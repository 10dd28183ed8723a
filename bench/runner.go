package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/tailcall/manifest"
	"github.com/chazu/tailcall/program"
	"github.com/chazu/tailcall/vm"
)

var log = commonlog.GetLogger("tailcall.bench")

// Errors reported by the harness.
var (
	ErrInvalidSpec = errors.New("invalid spec")
	ErrMismatch    = errors.New("counters do not match expectation")
)

// Runner executes specs. A Runner holds no per-run state, so one value may
// be shared, but runs started from different goroutines will disturb each
// other's timings.
type Runner struct {
	// Profiler, when set, is attached to every machine the runner builds.
	Profiler *vm.Profiler

	// now is replaced in tests.
	now func() time.Time
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{now: time.Now}
}

// Run builds a machine for spec, runs it once and returns the result.
// A dispatch fault during the run is reported in Result.Fault rather than
// as an error; errors are reserved for specs that cannot be run and for
// verification failures.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		ID:        uuid.NewString(),
		StartedAt: r.now(),
		Spec:      spec,
	}
	log.Debug("run starting", "id", res.ID, "mode", spec.Mode, "size", spec.Size, "loops", spec.Loops)

	var fault error
	if spec.Mode == manifest.ModeSwitch {
		fault = r.runSwitch(spec, res)
	} else {
		var err error
		fault, err = r.runMachine(spec, res)
		if err != nil {
			return nil, err
		}
	}

	if fault != nil {
		res.Fault = fault.Error()
		log.Warning("run faulted", "id", res.ID, "fault", res.Fault, "ip", res.IP)
		return res, nil
	}

	if spec.Verify {
		want := program.Expect(spec.Program(), spec.InitialIP)
		if res.Counters != want {
			return res, fmt.Errorf("%w: got %v, want %v", ErrMismatch, res.Counters, want)
		}
		res.Verified = true
	}

	log.Info("run finished", "id", res.ID, "instructions", res.Instructions,
		"elapsed", res.Elapsed.String(), "ips", res.Throughput())
	return res, nil
}

// RunRepeated runs spec n times, each on a fresh machine, stopping at the
// first error or when ctx is cancelled between runs.
func (r *Runner) RunRepeated(ctx context.Context, spec Spec, n int) ([]*Result, error) {
	results := make([]*Result, 0, n)
	for i := 0; i < n; i++ {
		res, err := r.Run(ctx, spec)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runMachine(spec Spec, res *Result) (fault error, err error) {
	m := vm.NewMachine(spec.Capacity)
	if r.Profiler != nil {
		m.SetProfiler(r.Profiler)
	}
	counters, err := program.Load(m, spec.Program())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if err := m.SetInitialIP(spec.InitialIP); err != nil {
		return nil, fmt.Errorf("%w: initial IP %d: %v", ErrInvalidSpec, spec.InitialIP, err)
	}

	start := time.Now()
	if spec.Mode == manifest.ModeNested {
		fault = m.RunNested(spec.MaxDepth)
	} else {
		fault = m.Run()
	}
	res.Elapsed = time.Since(start)

	res.IP = m.ReadRegister(vm.RegIP)
	res.SP = m.ReadRegister(vm.RegSP)
	res.Flags = uint8(m.ReadRegister(vm.RegFlags))
	res.Counters = *counters
	res.Instructions = m.Steps()
	res.MaxDepth = m.MaxDepth()
	return fault, nil
}

func (r *Runner) runSwitch(spec Spec, res *Result) error {
	p := spec.Program()

	start := time.Now()
	counters, ip, fault := program.Interpret(p, spec.Capacity, spec.InitialIP)
	res.Elapsed = time.Since(start)

	res.IP = ip
	res.SP = spec.Capacity - 1
	res.Counters = counters
	res.Instructions = counters.Total()
	res.MaxDepth = 1
	return fault
}
