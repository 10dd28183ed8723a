package program

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/tailcall/vm"
)

func TestPattern(t *testing.T) {
	ops := Pattern(27)
	if len(ops) != 28 {
		t.Fatalf("len = %d, want 28", len(ops))
	}

	tests := []struct {
		slot int
		want Opcode
	}{
		{0, OpStepC},
		{1, OpStepB},
		{13, OpStepA},
		{17, OpStepC},
		{26, OpStepA},
		{27, OpLoopGuard},
	}
	for _, tt := range tests {
		if ops[tt.slot] != tt.want {
			t.Errorf("slot %d = %v, want %v", tt.slot, ops[tt.slot], tt.want)
		}
	}
}

func TestPatternDefaultSizeMix(t *testing.T) {
	got := Expect(Program{Ops: Pattern(DefaultSize)}, 0)
	// With Loops = 0 the counters hold exactly one pass.
	want := Counters{A: 724, B: 8687, C: 589, Guard: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("one pass of default pattern mismatch (-want +got):\n%s", diff)
	}
}

func TestOpcodeNames(t *testing.T) {
	for _, op := range []Opcode{OpStepA, OpStepB, OpStepC, OpLoopGuard} {
		parsed, err := ParseOpcode(strings.ToLower(op.String()))
		if err != nil {
			t.Errorf("ParseOpcode(%q) failed: %v", op, err)
			continue
		}
		if parsed != op {
			t.Errorf("ParseOpcode(%q) = %v", op, parsed)
		}
	}
	if _, err := ParseOpcode("HALT"); err == nil {
		t.Error("ParseOpcode(HALT) should fail")
	}
	if Opcode(0).Valid() {
		t.Error("zero opcode should not be valid")
	}
	if got := Opcode(0x7f).String(); got != "UNKNOWN_7F" {
		t.Errorf("String() = %q, want UNKNOWN_7F", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Program
	}{
		{"empty", Program{}},
		{"negative loops", Program{Ops: Pattern(3), Loops: -1}},
		{"unknown opcode", Program{Ops: []Opcode{OpStepA, 0, OpLoopGuard}}},
		{"no trailing guard", Program{Ops: []Opcode{OpStepA, OpStepB}}},
		{"guard before the end", Program{Ops: []Opcode{OpStepA, OpLoopGuard, OpStepB, OpLoopGuard}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); !errors.Is(err, ErrInvalidProgram) {
				t.Errorf("Validate() = %v, want ErrInvalidProgram", err)
			}
		})
	}
	if err := New(10, 2).Validate(); err != nil {
		t.Errorf("standard program invalid: %v", err)
	}
}

func TestListing(t *testing.T) {
	var buf bytes.Buffer
	if err := New(2, 0).Listing(&buf); err != nil {
		t.Fatal(err)
	}
	want := "     0  STEP_C\n     1  STEP_B\n     2  LOOP_GUARD\n"
	if buf.String() != want {
		t.Errorf("Listing =\n%s\nwant\n%s", buf.String(), want)
	}
}

// ---------------------------------------------------------------------------
// Runs on a machine
// ---------------------------------------------------------------------------

func runOnMachine(t *testing.T, p Program, capacity, initialIP int) (Counters, *vm.Machine) {
	t.Helper()
	m := vm.NewMachine(capacity)
	c, err := Load(m, p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := m.SetInitialIP(initialIP); err != nil {
		t.Fatalf("SetInitialIP failed: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return *c, m
}

// TestExampleScenario is the ten-slot, two-loop program.
func TestExampleScenario(t *testing.T) {
	p := New(10, 2)

	t.Run("from slot 0", func(t *testing.T) {
		c, m := runOnMachine(t, p, 100, 0)
		want := Counters{A: 0, B: 27, C: 3, Guard: 3}
		if diff := cmp.Diff(want, c); diff != "" {
			t.Errorf("counters mismatch (-want +got):\n%s", diff)
		}
		if m.IP != 10 {
			t.Errorf("final IP = %d, want 10", m.IP)
		}
		if m.Steps() != c.Total() {
			t.Errorf("Steps() = %d, want %d", m.Steps(), c.Total())
		}
	})

	t.Run("from the guard", func(t *testing.T) {
		c, m := runOnMachine(t, p, 100, 10)
		if c.Steps() != 20 {
			t.Errorf("step counters sum to %d, want 20", c.Steps())
		}
		if c.Guard != 3 {
			t.Errorf("guard = %d, want 3", c.Guard)
		}
		if m.IP != 10 {
			t.Errorf("final IP = %d, want 10", m.IP)
		}
	})
}

// TestCounterConservation checks steps = size × loops and guard = loops+1
// for runs entered at the guard, for several thresholds.
func TestCounterConservation(t *testing.T) {
	const size = 100
	for _, loops := range []int{0, 1, 100, 10_000} {
		p := New(size, loops)
		c, _ := runOnMachine(t, p, size+1, size)
		if c.Steps() != uint64(size*loops) {
			t.Errorf("loops=%d: steps = %d, want %d", loops, c.Steps(), size*loops)
		}
		if c.Guard != uint64(loops+1) {
			t.Errorf("loops=%d: guard = %d, want %d", loops, c.Guard, loops+1)
		}
	}
}

func TestRunMatchesExpect(t *testing.T) {
	tests := []struct {
		size, loops, ip int
	}{
		{1, 0, 0},
		{10, 2, 0},
		{10, 2, 5},
		{221, 7, 0},
		{1000, 3, 999},
	}
	for _, tt := range tests {
		p := New(tt.size, tt.loops)
		got, _ := runOnMachine(t, p, tt.size+1, tt.ip)
		if diff := cmp.Diff(Expect(p, tt.ip), got); diff != "" {
			t.Errorf("size=%d loops=%d ip=%d mismatch (-want +got):\n%s", tt.size, tt.loops, tt.ip, diff)
		}
	}
}

func TestLoadTooLarge(t *testing.T) {
	m := vm.NewMachine(5)
	if _, err := Load(m, New(5, 1)); !errors.Is(err, vm.ErrOutOfRange) {
		t.Errorf("Load = %v, want ErrOutOfRange", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	m := vm.NewMachine(5)
	if _, err := Load(m, Program{Ops: []Opcode{OpStepA}}); !errors.Is(err, ErrInvalidProgram) {
		t.Errorf("Load = %v, want ErrInvalidProgram", err)
	}
}

func TestCountersReset(t *testing.T) {
	c := Counters{A: 1, B: 2, C: 3, Guard: 4}
	if c.Total() != 10 {
		t.Errorf("Total() = %d, want 10", c.Total())
	}
	c.Reset()
	if c != (Counters{}) {
		t.Errorf("Reset left %v", c)
	}
}
