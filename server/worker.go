package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/tailcall/bench"
)

// Errors reported by the worker.
var (
	ErrPanic   = errors.New("run panicked")
	ErrStopped = errors.New("worker stopped")
)

// job represents a unit of work to be executed on the worker goroutine.
type job struct {
	fn   func(*bench.Runner) (any, error)
	done chan jobResult
}

// jobResult holds the return value from a worker job.
type jobResult struct {
	value any
	err   error
}

// Worker serializes all benchmark runs through a single goroutine.
// Concurrent runs would disturb each other's timings, so every RPC
// handler goes through the worker.
type Worker struct {
	runner   *bench.Runner
	requests chan job
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(r *bench.Runner) *Worker {
	w := &Worker{
		runner:   r,
		requests: make(chan job, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a job, recovering from panics.
func (w *Worker) execute(fn func(*bench.Runner) (any, error)) jobResult {
	var result jobResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		result.value, result.err = fn(w.runner)
	}()
	return result
}

// Do submits a job and blocks until it completes or ctx is done.
// A job that has already started runs to completion even if ctx is
// cancelled; only its result is discarded.
func (w *Worker) Do(ctx context.Context, fn func(*bench.Runner) (any, error)) (any, error) {
	req := job{
		fn:   fn,
		done: make(chan jobResult, 1),
	}
	select {
	case <-w.quit:
		return nil, ErrStopped
	default:
	}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, ErrStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, ErrStopped
	}
}

// Run executes spec on the worker goroutine.
func (w *Worker) Run(ctx context.Context, spec bench.Spec) (*bench.Result, error) {
	v, err := w.Do(ctx, func(r *bench.Runner) (any, error) {
		return r.Run(ctx, spec)
	})
	res, _ := v.(*bench.Result)
	return res, err
}

// Stop shuts down the worker goroutine. Calling Stop more than once is
// safe.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
