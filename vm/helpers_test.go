package vm

// ---------------------------------------------------------------------------
// Test programs
// ---------------------------------------------------------------------------

// loopCounts records what a loopProgram did.
type loopCounts struct {
	steps  int
	guards int
}

// loadLoopProgram fills slots [0,size) with step handlers and slot size
// with a guard that jumps back to 0 until it has run more than loops times.
// probe, when non-nil, is called from the guard before it decides.
func loadLoopProgram(m *Machine, size, loops int, probe func(guards int)) *loopCounts {
	c := &loopCounts{}
	step := func(m *Machine) Handler {
		c.steps++
		return m.Advance()
	}
	guard := func(m *Machine) Handler {
		c.guards++
		if probe != nil {
			probe(c.guards)
		}
		if c.guards > loops {
			return m.Halt()
		}
		return m.Jump(0)
	}
	for i := 0; i < size; i++ {
		if err := m.Load(i, step); err != nil {
			panic(err)
		}
	}
	if err := m.Load(size, guard); err != nil {
		panic(err)
	}
	return c
}
