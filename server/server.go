// Package server exposes the benchmark harness over Connect RPC so runs can
// be triggered on a remote machine.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/tailcall/bench"
	"github.com/chazu/tailcall/history"
	"github.com/chazu/tailcall/vm"
)

var log = commonlog.GetLogger("tailcall.server")

// BenchServer serves BenchService over Connect, gRPC and gRPC-Web on one
// port.
type BenchServer struct {
	worker *Worker
	mux    *http.ServeMux
	http   *http.Server
}

// ServerOption configures a BenchServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store    *history.Store
	profiler *vm.Profiler
	limits   Limits
}

// WithHistory records every run in store.
func WithHistory(store *history.Store) ServerOption {
	return func(c *serverConfig) { c.store = store }
}

// WithLimits replaces DefaultLimits.
func WithLimits(l Limits) ServerOption {
	return func(c *serverConfig) { c.limits = l }
}

// WithProfiler attaches p to every machine the server builds.
func WithProfiler(p *vm.Profiler) ServerOption {
	return func(c *serverConfig) { c.profiler = p }
}

// New creates a BenchServer. Run requests are completed from defaults.
func New(defaults bench.Spec, opts ...ServerOption) *BenchServer {
	cfg := &serverConfig{limits: DefaultLimits}
	for _, opt := range opts {
		opt(cfg)
	}

	runner := bench.NewRunner()
	runner.Profiler = cfg.profiler
	worker := NewWorker(runner)

	s := &BenchServer{
		worker: worker,
		mux:    http.NewServeMux(),
	}

	// gRPC clients need HTTP/2; serve it without TLS alongside HTTP/1.
	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)
	s.http = &http.Server{Handler: s.mux, Protocols: &protocols}

	svc := NewBenchService(worker, cfg.store, defaults, cfg.limits)
	s.mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, svc.Run))
	s.mux.Handle(ListProcedure, connect.NewUnaryHandler(ListProcedure, svc.List))

	return s
}

// Handler returns the HTTP handler serving all procedures.
func (s *BenchServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *BenchServer) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Stop is called.
func (s *BenchServer) Serve(l net.Listener) error {
	log.Notice("bench server listening", "addr", l.Addr().String(), "run", RunProcedure)
	err := s.http.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts down the server.
func (s *BenchServer) Stop() {
	s.http.Shutdown(context.Background())
	s.worker.Stop()
}

// NewRunClient returns a client for the Run procedure at baseURL.
func NewRunClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *connect.Client[structpb.Struct, structpb.Struct] {
	return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+RunProcedure, opts...)
}

// NewListClient returns a client for the List procedure at baseURL.
func NewListClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *connect.Client[structpb.Struct, structpb.Struct] {
	return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ListProcedure, opts...)
}
