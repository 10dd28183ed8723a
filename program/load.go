package program

import (
	"fmt"

	"github.com/chazu/tailcall/vm"
)

// Load installs p into m's dispatch table starting at slot 0 and returns
// the counters its handlers update. The program must fit in the table.
func Load(m *vm.Machine, p Program) (*Counters, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Len() > m.Table().Len() {
		return nil, fmt.Errorf("program needs %d slots, table has %d: %w",
			p.Len(), m.Table().Len(), vm.ErrOutOfRange)
	}

	c := &Counters{}
	handlers := Handlers(c, p.Loops)
	for i, op := range p.Ops {
		if err := m.Load(i, handlers[op]); err != nil {
			return nil, fmt.Errorf("load slot %d: %w", i, err)
		}
	}
	return c, nil
}

// Handlers returns one handler per opcode, all updating c. The loop guard
// halts once it has fired more than loops times.
func Handlers(c *Counters, loops int) map[Opcode]vm.Handler {
	limit := uint64(loops)
	return map[Opcode]vm.Handler{
		OpStepA: func(m *vm.Machine) vm.Handler {
			c.A++
			return m.Advance()
		},
		OpStepB: func(m *vm.Machine) vm.Handler {
			c.B++
			return m.Advance()
		},
		OpStepC: func(m *vm.Machine) vm.Handler {
			c.C++
			return m.Advance()
		},
		OpLoopGuard: func(m *vm.Machine) vm.Handler {
			c.Guard++
			if c.Guard > limit {
				return m.Halt()
			}
			return m.Jump(0)
		},
	}
}
