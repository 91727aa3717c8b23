package reservations

import (
	"sort"
	"strconv"
	"sync"

	"maitred/internal/models"
)

// Tracker is the local set of reserved tables. Reservations never leave
// this process; the backend has no notion of them.
type Tracker struct {
	mu       sync.RWMutex
	reserved map[int]struct{}
}

// NewTracker creates an empty reservation tracker
func NewTracker() *Tracker {
	return &Tracker{reserved: make(map[int]struct{})}
}

// Reserve marks the table as reserved. Reserving twice reports a conflict
// and changes nothing.
func (t *Tracker) Reserve(table int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.reserved[table]; ok {
		return &models.ConflictError{Kind: "reservation", Key: strconv.Itoa(table)}
	}
	t.reserved[table] = struct{}{}
	return nil
}

// Cancel drops the table's reservation, reporting a not-found condition when
// there was none.
func (t *Tracker) Cancel(table int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.reserved[table]; !ok {
		return &models.NotFoundError{Kind: "reservation", Key: strconv.Itoa(table)}
	}
	delete(t.reserved, table)
	return nil
}

// IsReserved reports whether the table is reserved
func (t *Tracker) IsReserved(table int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.reserved[table]
	return ok
}

// Reserved returns the reserved table numbers in ascending order
func (t *Tracker) Reserved() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tables := make([]int, 0, len(t.reserved))
	for table := range t.reserved {
		tables = append(tables, table)
	}
	sort.Ints(tables)
	return tables
}
