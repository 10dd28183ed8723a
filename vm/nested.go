package vm

// ---------------------------------------------------------------------------
// Nested runner
// ---------------------------------------------------------------------------

// RunNested executes the same chain as Run, but invokes each successor from
// inside the frame of its predecessor. The Go compiler does not eliminate
// these calls, so stack usage grows by one frame per instruction executed.
// Nesting deeper than maxDepth (DefaultMaxDepth when maxDepth <= 0) aborts
// the run with a *DispatchFault wrapping ErrStackOverflow.
func (m *Machine) RunNested(maxDepth int) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	m.depthLimit = maxDepth
	m.call(m.Next(), 1)
	return m.fault
}

func (m *Machine) call(h Handler, depth int) {
	if h == nil {
		return
	}
	if depth > m.depthLimit {
		m.fault = &DispatchFault{IP: m.IP, Err: ErrStackOverflow}
		return
	}
	if depth > m.maxDepth {
		m.maxDepth = depth
	}
	m.call(h(m), depth+1)
}
