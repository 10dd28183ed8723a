package program

import "github.com/chazu/tailcall/vm"

// Interpret runs p starting at initialIP with a switch over the opcode
// kinds instead of a table of handlers. capacity is the size of the table
// the program would be loaded into; slots past the program but inside the
// table count as empty, as does a zero opcode. The final counters, IP and
// fault match a vm.Machine run of the same program.
func Interpret(p Program, capacity, initialIP int) (Counters, int, error) {
	var c Counters
	ops := p.Ops
	limit := uint64(p.Loops)
	capacity = max(capacity, len(ops))
	ip := initialIP

	for {
		if uint(ip) >= uint(capacity) {
			return c, ip, &vm.DispatchFault{IP: ip, Err: vm.ErrOutOfRange}
		}
		if ip >= len(ops) {
			return c, ip, &vm.DispatchFault{IP: ip, Err: vm.ErrUnpopulated}
		}

		switch ops[ip] {
		case OpStepA:
			c.A++
			ip++
		case OpStepB:
			c.B++
			ip++
		case OpStepC:
			c.C++
			ip++
		case OpLoopGuard:
			c.Guard++
			if c.Guard > limit {
				return c, ip, nil
			}
			ip = 0
		default:
			return c, ip, &vm.DispatchFault{IP: ip, Err: vm.ErrUnpopulated}
		}
	}
}
