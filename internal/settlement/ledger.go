package settlement

import (
	"sync"

	"maitred/internal/models"
)

// Ledger keeps the receipts settled during this session.
type Ledger struct {
	mu       sync.RWMutex
	receipts []models.Receipt
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends a receipt
func (l *Ledger) Record(r models.Receipt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts = append(l.receipts, r)
}

// Receipts returns a copy of every receipt in settlement order
func (l *Ledger) Receipts() []models.Receipt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Receipt, len(l.receipts))
	copy(out, l.receipts)
	return out
}

// Total is the sum of all settled receipts
func (l *Ledger) Total() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var sum int64
	for _, r := range l.receipts {
		sum += r.Total
	}
	return sum
}

// Len returns the number of receipts
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.receipts)
}
