package vm

import (
	"runtime"
	"testing"
)

// ---------------------------------------------------------------------------
// Tail-call dispatch tests
// ---------------------------------------------------------------------------

// goStackDepth returns the number of Go frames above the caller.
func goStackDepth() int {
	pcs := make([]uintptr, 1<<16)
	return runtime.Callers(1, pcs)
}

// depthRange tracks the smallest and largest stack depth observed.
type depthRange struct {
	min, max int
	samples  int
}

func (d *depthRange) observe(depth int) {
	if d.samples == 0 || depth < d.min {
		d.min = depth
	}
	if depth > d.max {
		d.max = depth
	}
	d.samples++
}

// probeEvery samples the Go stack depth from inside the guard handler on
// the first pass and then every n passes.
func probeEvery(d *depthRange, n int) func(int) {
	return func(guards int) {
		if guards == 1 || guards%n == 0 {
			d.observe(goStackDepth())
		}
	}
}

// TestRunStackDepthIndependentOfLoops runs the same program with loop
// thresholds spanning four orders of magnitude and checks that handlers
// always execute at the same Go stack depth.
func TestRunStackDepthIndependentOfLoops(t *testing.T) {
	loops := []int{100, 10_000, 1_000_000}
	if testing.Short() {
		loops = loops[:2]
	}

	depth := -1
	for _, l := range loops {
		var d depthRange
		m := NewMachine(4)
		c := loadLoopProgram(m, 3, l, probeEvery(&d, 997))
		if err := m.Run(); err != nil {
			t.Fatalf("loops=%d: Run failed: %v", l, err)
		}
		if c.guards != l+1 {
			t.Fatalf("loops=%d: guards = %d, want %d", l, c.guards, l+1)
		}
		if d.min != d.max {
			t.Errorf("loops=%d: handler stack depth varied from %d to %d", l, d.min, d.max)
		}
		if depth >= 0 && d.max != depth {
			t.Errorf("loops=%d: handler stack depth %d, want %d as for smaller runs", l, d.max, depth)
		}
		depth = d.max
		if m.MaxDepth() != 1 {
			t.Errorf("loops=%d: MaxDepth() = %d, want 1", l, m.MaxDepth())
		}
	}
}

// TestRunStackDepthIndependentOfTableSize checks that a long straight-line
// program runs at the same depth as a short one.
func TestRunStackDepthIndependentOfTableSize(t *testing.T) {
	var small, large depthRange

	m1 := NewMachine(2)
	loadLoopProgram(m1, 1, 10, probeEvery(&small, 1))
	if err := m1.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	m2 := NewMachine(100_001)
	loadLoopProgram(m2, 100_000, 10, probeEvery(&large, 1))
	if err := m2.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if small.max != large.max || large.min != large.max {
		t.Errorf("stack depth: size 1 = %d, size 100000 = [%d,%d]", small.max, large.min, large.max)
	}
}

// TestRunSurvivesChainsThatWouldExhaustNesting runs a chain far longer than
// the nested runner is allowed to go.
func TestRunSurvivesChainsThatWouldExhaustNesting(t *testing.T) {
	m := NewMachine(11)
	loadLoopProgram(m, 10, 100_000, nil)

	if err := m.RunNested(DefaultMaxDepth); err == nil {
		t.Fatal("RunNested should exceed its depth limit")
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if m.Steps() <= DefaultMaxDepth {
		t.Errorf("Steps() = %d, want more than %d", m.Steps(), DefaultMaxDepth)
	}
}
