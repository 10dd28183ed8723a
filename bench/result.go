package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/chazu/tailcall/program"
)

// Result is the observable outcome of one run.
type Result struct {
	ID        string    `cbor:"id" json:"id"`
	StartedAt time.Time `cbor:"started_at" json:"started_at"`
	Spec      Spec      `cbor:"spec" json:"spec"`

	// Final registers
	IP    int   `cbor:"ip" json:"ip"`
	SP    int   `cbor:"sp" json:"sp"`
	Flags uint8 `cbor:"flags" json:"flags"`

	Counters     program.Counters `cbor:"counters" json:"counters"`
	Instructions uint64           `cbor:"instructions" json:"instructions"`
	MaxDepth     int              `cbor:"max_depth" json:"max_depth"`
	Elapsed      time.Duration    `cbor:"elapsed" json:"elapsed"`

	// Verified is set when the counters were checked against the
	// closed-form expectation.
	Verified bool `cbor:"verified" json:"verified"`

	// Fault holds the dispatch fault that ended the run, if any.
	Fault string `cbor:"fault,omitempty" json:"fault,omitempty"`
}

// Failed reports whether the run ended in a dispatch fault.
func (r *Result) Failed() bool {
	return r.Fault != ""
}

// Throughput returns instructions executed per second.
func (r *Result) Throughput() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Instructions) / secs
}

// WriteText writes a human-readable report of r.
func WriteText(w io.Writer, r *Result) error {
	_, err := fmt.Fprintf(w,
		"[%s] %s size=%d loops=%d\n"+
			"IP:%d SP:%d FLAGS:%d %v\n"+
			"%f seconds\n"+
			"instructions executed: %d, instructions/second: %f\n",
		r.ID, r.Spec.Mode, r.Spec.Size, r.Spec.Loops,
		r.IP, r.SP, r.Flags, r.Counters,
		r.Elapsed.Seconds(),
		r.Instructions, r.Throughput())
	if err != nil {
		return err
	}
	if r.Failed() {
		_, err = fmt.Fprintf(w, "fault: %s\n", r.Fault)
	}
	return err
}

// ---------------------------------------------------------------------------
// Summary over repeated runs
// ---------------------------------------------------------------------------

// Summary aggregates repeated runs of the same spec.
type Summary struct {
	Runs           int
	Failed         int
	Best           time.Duration
	Mean           time.Duration
	BestThroughput float64
}

// Summarize aggregates the successful runs in results.
func Summarize(results []*Result) Summary {
	var s Summary
	var total time.Duration
	for _, r := range results {
		s.Runs++
		if r.Failed() {
			s.Failed++
			continue
		}
		total += r.Elapsed
		if s.Best == 0 || r.Elapsed < s.Best {
			s.Best = r.Elapsed
		}
		if tp := r.Throughput(); tp > s.BestThroughput {
			s.BestThroughput = tp
		}
	}
	if ok := s.Runs - s.Failed; ok > 0 {
		s.Mean = total / time.Duration(ok)
	}
	return s
}
