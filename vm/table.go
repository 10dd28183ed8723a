package vm

// ---------------------------------------------------------------------------
// Table: the dispatch table
// ---------------------------------------------------------------------------

// Table is a fixed-capacity sequence of handlers indexed by instruction
// pointer. Capacity is set at construction and never changes.
type Table struct {
	slots     []Handler
	populated int
}

// NewTable creates a table with n empty slots.
func NewTable(n int) *Table {
	if n < 0 {
		n = 0
	}
	return &Table{slots: make([]Handler, n)}
}

// Len returns the capacity of the table.
func (t *Table) Len() int {
	return len(t.slots)
}

// Populated returns the number of slots holding a handler.
func (t *Table) Populated() int {
	return t.populated
}

// Load installs h at index, replacing any handler already there.
// Loading nil empties the slot.
func (t *Table) Load(index int, h Handler) error {
	if !t.inRange(index) {
		return ErrOutOfRange
	}
	switch old := t.slots[index]; {
	case old == nil && h != nil:
		t.populated++
	case old != nil && h == nil:
		t.populated--
	}
	t.slots[index] = h
	return nil
}

// Get returns the handler at index.
func (t *Table) Get(index int) (Handler, error) {
	if !t.inRange(index) {
		return nil, ErrOutOfRange
	}
	h := t.slots[index]
	if h == nil {
		return nil, ErrUnpopulated
	}
	return h, nil
}

// Reset empties every slot.
func (t *Table) Reset() {
	clear(t.slots)
	t.populated = 0
}

func (t *Table) inRange(index int) bool {
	return uint(index) < uint(len(t.slots))
}
