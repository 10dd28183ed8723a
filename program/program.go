package program

import (
	"errors"
	"fmt"
	"io"
)

// Default benchmark sizes.
const (
	DefaultCapacity = 100_005
	DefaultSize     = 10_000
	DefaultLoops    = 100_000
)

// ErrInvalidProgram is returned for programs that cannot be loaded.
var ErrInvalidProgram = errors.New("invalid program")

// Program is an opcode sequence plus the loop guard's threshold.
type Program struct {
	Ops   []Opcode
	Loops int
}

// New returns the standard pattern of the given size with a loop guard
// threshold of loops.
func New(size, loops int) Program {
	return Program{Ops: Pattern(size), Loops: loops}
}

// Pattern returns size step opcodes followed by one loop guard. Slot i is
// STEP_C when i is a multiple of 17, otherwise STEP_B when i is not a
// multiple of 13, otherwise STEP_A.
func Pattern(size int) []Opcode {
	if size < 0 {
		size = 0
	}
	ops := make([]Opcode, size+1)
	for i := 0; i < size; i++ {
		switch {
		case i%17 == 0:
			ops[i] = OpStepC
		case i%13 != 0:
			ops[i] = OpStepB
		default:
			ops[i] = OpStepA
		}
	}
	ops[size] = OpLoopGuard
	return ops
}

// Len returns the number of slots the program occupies.
func (p Program) Len() int {
	return len(p.Ops)
}

// Validate checks that every opcode is known, that the loop threshold is
// not negative and that the only loop guard is the last slot.
func (p Program) Validate() error {
	if p.Loops < 0 {
		return fmt.Errorf("%w: negative loop threshold %d", ErrInvalidProgram, p.Loops)
	}
	if len(p.Ops) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidProgram)
	}
	last := len(p.Ops) - 1
	for i, op := range p.Ops {
		if !op.Valid() {
			return fmt.Errorf("%w: slot %d holds %v", ErrInvalidProgram, i, op)
		}
		if op == OpLoopGuard && i != last {
			return fmt.Errorf("%w: %v at slot %d before the last slot", ErrInvalidProgram, op, i)
		}
	}
	if p.Ops[last] != OpLoopGuard {
		return fmt.Errorf("%w: last slot must be %v", ErrInvalidProgram, OpLoopGuard)
	}
	return nil
}

// Listing writes one line per slot: index and opcode name.
func (p Program) Listing(w io.Writer) error {
	for i, op := range p.Ops {
		if _, err := fmt.Fprintf(w, "%6d  %v\n", i, op); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Counters
// ---------------------------------------------------------------------------

// Counters are the handler-owned state of a program run.
type Counters struct {
	A     uint64 `cbor:"a" json:"a"`
	B     uint64 `cbor:"b" json:"b"`
	C     uint64 `cbor:"c" json:"c"`
	Guard uint64 `cbor:"guard" json:"guard"`
}

// Steps returns the number of step instructions executed.
func (c Counters) Steps() uint64 {
	return c.A + c.B + c.C
}

// Total returns the number of instructions executed, guard included.
func (c Counters) Total() uint64 {
	return c.Steps() + c.Guard
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	*c = Counters{}
}

func (c Counters) String() string {
	return fmt.Sprintf("A:%d B:%d C:%d guard:%d", c.A, c.B, c.C, c.Guard)
}

// bump increments the counter that op owns.
func (c *Counters) bump(op Opcode) {
	switch op {
	case OpStepA:
		c.A++
	case OpStepB:
		c.B++
	case OpStepC:
		c.C++
	case OpLoopGuard:
		c.Guard++
	}
}

// ---------------------------------------------------------------------------
// Expected results
// ---------------------------------------------------------------------------

// Expect returns the counters a run of the standard shape (steps followed
// by a single trailing guard) produces when started at initialIP.
//
// Every guard firing but the last sends control back to slot 0, and the
// guard halts on its Loops+1'th firing, so a run is one partial pass from
// initialIP plus Loops full passes.
func Expect(p Program, initialIP int) Counters {
	var partial, full Counters
	for i, op := range p.Ops {
		if op == OpLoopGuard {
			continue
		}
		full.bump(op)
		if i >= initialIP {
			partial.bump(op)
		}
	}
	l := uint64(p.Loops)
	return Counters{
		A:     partial.A + l*full.A,
		B:     partial.B + l*full.B,
		C:     partial.C + l*full.C,
		Guard: l + 1,
	}
}
