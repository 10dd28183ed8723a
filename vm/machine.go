package vm

// ---------------------------------------------------------------------------
// Handler: the uniform routine signature
// ---------------------------------------------------------------------------

// Handler is the unit of work stored in a dispatch table slot.
//
// A handler performs its side effect, sets IP, and then ends with exactly
// one of two statements:
//
//	return m.Next()   // or m.Advance(), m.Jump(ip): continue at table[IP]
//	return m.Halt()   // end the run
//
// The returned handler is invoked by the trampoline after this one has
// returned, so handler frames never nest no matter how many instructions
// execute. A handler must not call another handler directly.
type Handler func(m *Machine) Handler

// DefaultMaxDepth bounds RunNested when no limit is given.
const DefaultMaxDepth = 100_000

// ---------------------------------------------------------------------------
// Machine: table, registers and the trampoline entry
// ---------------------------------------------------------------------------

// Machine owns one dispatch table and one register file. A machine is not
// safe for concurrent use; independent machines may run in parallel.
type Machine struct {
	Registers

	table     *Table
	initialIP int
	profiler  *Profiler

	// Execution state
	running    bool
	fault      error
	steps      uint64 // dispatches performed by the current/last run
	maxDepth   int    // deepest handler nesting seen by the current/last run
	depthLimit int    // nesting limit for RunNested
}

// NewMachine creates a machine whose table has the given capacity.
// SP starts at the top of the addressable space.
func NewMachine(capacity int) *Machine {
	m := &Machine{table: NewTable(capacity)}
	m.Reset()
	return m
}

// Table returns the machine's dispatch table.
func (m *Machine) Table() *Table {
	return m.table
}

// Load installs a handler before the run starts.
func (m *Machine) Load(index int, h Handler) error {
	if m.running {
		return ErrRunning
	}
	return m.table.Load(index, h)
}

// SetInitialIP sets the IP that Run starts from. The default is 0.
func (m *Machine) SetInitialIP(ip int) error {
	if m.running {
		return ErrRunning
	}
	if !m.table.inRange(ip) {
		return ErrOutOfRange
	}
	m.initialIP = ip
	return nil
}

// InitialIP returns the IP that Run starts from.
func (m *Machine) InitialIP() int {
	return m.initialIP
}

// SetProfiler attaches p to the machine; nil detaches. Every dispatch is
// recorded while a profiler is attached.
func (m *Machine) SetProfiler(p *Profiler) {
	m.profiler = p
}

// Reset restores the registers to their power-on values.
func (m *Machine) Reset() {
	m.Registers = Registers{
		IP: m.initialIP,
		SP: m.table.Len() - 1,
	}
}

// ReadRegister returns the value of the named register.
func (m *Machine) ReadRegister(r Register) int {
	switch r {
	case RegIP:
		return m.IP
	case RegSP:
		return m.SP
	case RegFlags:
		return int(m.Flags)
	}
	return 0
}

// Steps returns the number of dispatches performed by the last run.
func (m *Machine) Steps() uint64 {
	return m.steps
}

// MaxDepth returns the deepest handler nesting reached by the last run.
// It is 1 for any run started with Run that dispatched at least once.
func (m *Machine) MaxDepth() int {
	return m.maxDepth
}

// Running reports whether a run is in progress.
func (m *Machine) Running() bool {
	return m.running
}

// Run is the trampoline entry. It sets IP to the initial IP, dispatches
// table[IP] and keeps invoking whichever handler the previous one returned
// until a handler halts. Run returns nil when the chain halts and a
// *DispatchFault when IP reaches a slot that cannot be dispatched.
func (m *Machine) Run() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	h := m.Next()
	if h != nil {
		m.maxDepth = 1
	}
	for h != nil {
		h = h(m)
	}
	return m.fault
}

// Next resolves table[IP]. Handlers end with `return m.Next()` to transfer
// control. On a bad IP the fault is recorded and nil is returned, which
// stops the trampoline.
func (m *Machine) Next() Handler {
	ip := m.IP
	if !m.table.inRange(ip) {
		m.fault = &DispatchFault{IP: ip, Err: ErrOutOfRange}
		return nil
	}
	h := m.table.slots[ip]
	if h == nil {
		m.fault = &DispatchFault{IP: ip, Err: ErrUnpopulated}
		return nil
	}
	m.steps++
	if m.profiler != nil {
		m.profiler.RecordDispatch(ip)
	}
	return h
}

// Advance increments IP and transfers control to table[IP].
func (m *Machine) Advance() Handler {
	m.IP++
	return m.Next()
}

// Jump sets IP and transfers control to table[IP].
func (m *Machine) Jump(ip int) Handler {
	m.IP = ip
	return m.Next()
}

// Halt ends the run. It is the only way for a handler to finish without
// transferring control.
func (m *Machine) Halt() Handler {
	return nil
}

func (m *Machine) begin() error {
	if m.running {
		return ErrRunning
	}
	m.running = true
	m.fault = nil
	m.steps = 0
	m.maxDepth = 0
	m.IP = m.initialIP
	return nil
}

func (m *Machine) end() {
	m.running = false
}
