package handletab

import (
	"sync"

	"github.com/portmux/ipcwire"
)

// Dropper is implemented by payload values that need cleanup when their
// handle is closed.
type Dropper interface {
	Drop()
}

type entry struct {
	value  any
	closes int
}

// Table is an in-process handle table: it issues ipcwire.Handle values for
// arbitrary payloads and tracks their lifecycle. It implements
// ipcwire.Disposer, standing in for a kernel handle table when exercising
// the codec in tests and tools.
type Table struct {
	mu      sync.Mutex
	entries map[ipcwire.Handle]*entry
	next    uint32
}

// New creates an empty table. Handle numbering starts above the reserved
// invalid handle.
func New() *Table {
	return &Table{
		entries: make(map[ipcwire.Handle]*entry),
		next:    1,
	}
}

// Create stores a value and returns a fresh handle for it.
func (t *Table) Create(value any) ipcwire.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := ipcwire.Handle(t.next)
	t.next++
	t.entries[h] = &entry{value: value}
	return h
}

// Get retrieves the payload for an open handle.
func (t *Table) Get(h ipcwire.Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h]
	if !ok || e.closes > 0 {
		return nil, false
	}
	return e.value, true
}

// Close releases a handle. The entry is retained so double closes remain
// observable through CloseCount. Implements ipcwire.Disposer.
func (t *Table) Close(h ipcwire.Handle) {
	t.mu.Lock()
	e, ok := t.entries[h]
	if !ok {
		t.mu.Unlock()
		return
	}
	e.closes++
	first := e.closes == 1
	value := e.value
	t.mu.Unlock()

	if first {
		if d, ok := value.(Dropper); ok {
			d.Drop()
		}
	}
}

// Open reports whether the handle exists and has not been closed.
func (t *Table) Open(h ipcwire.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h]
	return ok && e.closes == 0
}

// CloseCount returns how many times Close was called for the handle.
func (t *Table) CloseCount(h ipcwire.Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[h]; ok {
		return e.closes
	}
	return 0
}

// OpenCount returns the number of issued handles still open.
func (t *Table) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.closes == 0 {
			n++
		}
	}
	return n
}
