package program

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies the handler installed in a table slot.
type Opcode byte

const (
	OpStepA     Opcode = iota + 1 // increment A, fall through
	OpStepB                       // increment B, fall through
	OpStepC                       // increment C, fall through
	OpLoopGuard                   // increment Guard, halt past Loops or jump to 0
)

var opcodeNames = map[Opcode]string{
	OpStepA:     "STEP_A",
	OpStepB:     "STEP_B",
	OpStepC:     "STEP_C",
	OpLoopGuard: "LOOP_GUARD",
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%02X", byte(op))
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// ParseOpcode maps a name such as "step_b" to its opcode.
func ParseOpcode(name string) (Opcode, error) {
	for op, n := range opcodeNames {
		if strings.EqualFold(n, name) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", name)
}
