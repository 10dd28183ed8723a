package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

// Flags is the condition register. No current handler reads or writes it;
// handlers that do not define flag semantics must leave it unchanged.
type Flags uint8

const (
	ZR Flags = 1 << iota // last result was zero
	CY                   // last operation generated carry/borrow
)

// Has reports whether every bit in f is set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Set returns fl with the bits in f set.
func (fl Flags) Set(f Flags) Flags { return fl | f }

// Clear returns fl with the bits in f cleared.
func (fl Flags) Clear(f Flags) Flags { return fl &^ f }

func (fl Flags) String() string {
	var names []string
	if fl.Has(ZR) {
		names = append(names, "ZR")
	}
	if fl.Has(CY) {
		names = append(names, "CY")
	}
	if rest := fl.Clear(ZR | CY); rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "|")
}

// ---------------------------------------------------------------------------
// Registers
// ---------------------------------------------------------------------------

// Registers is the machine's register file. It is plain state with no
// synchronization; only the goroutine running the machine may touch it.
type Registers struct {
	IP    int   // instruction pointer (index into the dispatch table)
	SP    int   // stack pointer, reserved for opcodes that push/pop state
	Flags Flags // condition bits
}

// Register names one register for ReadRegister.
type Register int

const (
	RegIP Register = iota
	RegSP
	RegFlags
)

var registerNames = [...]string{
	RegIP:    "IP",
	RegSP:    "SP",
	RegFlags: "FLAGS",
}

func (r Register) String() string {
	if r >= 0 && int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", int(r))
}

// ParseRegister maps a register name (case-insensitive) to a Register.
func ParseRegister(name string) (Register, error) {
	for i, n := range registerNames {
		if strings.EqualFold(n, name) {
			return Register(i), nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}
