package bench

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/tailcall/manifest"
)

func TestThroughput(t *testing.T) {
	r := &Result{Instructions: 3_000_000, Elapsed: 1500 * time.Millisecond}
	if got := r.Throughput(); got != 2_000_000 {
		t.Errorf("Throughput() = %f, want 2000000", got)
	}
	if got := (&Result{Instructions: 5}).Throughput(); got != 0 {
		t.Errorf("Throughput() with zero elapsed = %f, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	results := []*Result{
		{Instructions: 100, Elapsed: 2 * time.Second},
		{Instructions: 100, Elapsed: 1 * time.Second},
		{Instructions: 10, Elapsed: time.Millisecond, Fault: "dispatch fault at IP 3: stack overflow"},
		{Instructions: 100, Elapsed: 3 * time.Second},
	}
	got := Summarize(results)
	want := Summary{
		Runs:           4,
		Failed:         1,
		Best:           time.Second,
		Mean:           2 * time.Second,
		BestThroughput: 100,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", s)
	}
}

func TestWriteText(t *testing.T) {
	res, err := NewRunner().Run(context.Background(), smallSpec(manifest.ModeTrampoline))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"IP:10 SP:99 FLAGS:0 A:0 B:27 C:3 guard:3",
		"instructions executed: 33",
		res.ID,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "fault:") {
		t.Errorf("successful run should not report a fault:\n%s", out)
	}
}
