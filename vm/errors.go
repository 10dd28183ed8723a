package vm

import (
	"errors"
	"fmt"
)

// Errors reported by the dispatch table and the machine.
var (
	ErrOutOfRange    = errors.New("index out of range")
	ErrUnpopulated   = errors.New("slot not populated")
	ErrRunning       = errors.New("machine is running")
	ErrStackOverflow = errors.New("stack overflow")
)

// DispatchFault is returned by Run when control is transferred to a slot
// that cannot be dispatched. The run is abandoned at that point; registers
// keep the values they had when the fault occurred.
type DispatchFault struct {
	IP  int
	Err error
}

func (f *DispatchFault) Error() string {
	return fmt.Sprintf("dispatch fault at IP %d: %v", f.IP, f.Err)
}

func (f *DispatchFault) Unwrap() error {
	return f.Err
}
