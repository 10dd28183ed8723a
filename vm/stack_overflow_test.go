package vm

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Nested runner and depth limit tests
// ---------------------------------------------------------------------------
//
// RunNested chains handlers as ordinary Go calls, so every dispatch costs a
// frame. These tests verify:
// - Nesting past the limit aborts with ErrStackOverflow
// - Within the limit, results match Run exactly
// - The real Go stack grows with every pass
// ---------------------------------------------------------------------------

func TestRunNestedOverflows(t *testing.T) {
	m := NewMachine(11)
	loadLoopProgram(m, 10, 100, nil)

	err := m.RunNested(50)
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("RunNested(50) = %v, want ErrStackOverflow", err)
	}
	var fault *DispatchFault
	if !errors.As(err, &fault) {
		t.Fatalf("RunNested(50) = %T, want *DispatchFault", err)
	}
	if !strings.Contains(err.Error(), "stack overflow") {
		t.Errorf("error message %q should mention stack overflow", err.Error())
	}
	if m.MaxDepth() != 50 {
		t.Errorf("MaxDepth() = %d, want 50", m.MaxDepth())
	}
}

func TestRunNestedMatchesRun(t *testing.T) {
	m := NewMachine(11)
	c := loadLoopProgram(m, 10, 20, nil)
	if err := m.RunNested(1000); err != nil {
		t.Fatalf("RunNested failed: %v", err)
	}
	nestedSteps, nestedGuards, nestedIP := c.steps, c.guards, m.IP

	// Handler-owned state carries across runs; start a fresh program.
	m2 := NewMachine(11)
	c2 := loadLoopProgram(m2, 10, 20, nil)
	if err := m2.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if nestedSteps != c2.steps || nestedGuards != c2.guards || nestedIP != m2.IP {
		t.Errorf("nested (%d,%d,%d) != trampoline (%d,%d,%d)",
			nestedSteps, nestedGuards, nestedIP, c2.steps, c2.guards, m2.IP)
	}
	// Every dispatch nests one level deeper.
	if uint64(m.MaxDepth()) != m.Steps() {
		t.Errorf("MaxDepth() = %d, want Steps() = %d", m.MaxDepth(), m.Steps())
	}
}

func TestRunNestedGrowsGoStack(t *testing.T) {
	var d depthRange
	m := NewMachine(6)
	loadLoopProgram(m, 5, 100, probeEvery(&d, 1))
	if err := m.RunNested(0); err != nil {
		t.Fatalf("RunNested failed: %v", err)
	}
	// 101 guard samples, each pass adds six frames.
	if d.max-d.min < 100*6 {
		t.Errorf("nested stack depth grew by %d frames, want at least %d", d.max-d.min, 100*6)
	}
}

func TestRunNestedDefaultLimit(t *testing.T) {
	m := NewMachine(2)
	loadLoopProgram(m, 1, DefaultMaxDepth, nil)
	err := m.RunNested(0)
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("RunNested(0) = %v, want ErrStackOverflow", err)
	}
	if m.MaxDepth() != DefaultMaxDepth {
		t.Errorf("MaxDepth() = %d, want %d", m.MaxDepth(), DefaultMaxDepth)
	}
}

func TestRunNestedPropagatesDispatchFault(t *testing.T) {
	m := NewMachine(3)
	_ = m.Load(0, func(m *Machine) Handler { return m.Advance() })
	if err := m.RunNested(10); !errors.Is(err, ErrUnpopulated) {
		t.Errorf("RunNested = %v, want ErrUnpopulated", err)
	}
}
