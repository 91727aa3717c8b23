package tables

import (
	"maitred/internal/models"
)

// OrderReader is the read side of the order store
type OrderReader interface {
	View(table int) ([]models.OrderLine, int64)
}

// ReservationReader is the read side of the reservation tracker
type ReservationReader interface {
	IsReserved(table int) bool
}

// Aggregator derives display state for tables. It holds no state of its own.
type Aggregator struct {
	orders       OrderReader
	reservations ReservationReader
}

// NewAggregator creates a new aggregator over the given stores
func NewAggregator(orders OrderReader, reservations ReservationReader) *Aggregator {
	return &Aggregator{orders: orders, reservations: reservations}
}

// DeriveStatus computes the table's status. A reservation overlays the status
// but the order summary is still filled in when the table has lines.
func (a *Aggregator) DeriveStatus(table int) models.TableStatus {
	status := models.TableStatus{Table: table, Status: models.TableEmpty}

	lines, total := a.orders.View(table)
	if len(lines) > 0 {
		status.Status = models.TableOrdered
		status.HeadlineItem = lines[0].ItemName
		status.ExtraCount = len(lines) - 1
		status.Total = total
	}

	if a.reservations.IsReserved(table) {
		status.Status = models.TableReserved
	}

	return status
}

// DeriveAll returns the status of tables 1..count
func (a *Aggregator) DeriveAll(count int) []models.TableStatus {
	statuses := make([]models.TableStatus, 0, count)
	for table := 1; table <= count; table++ {
		statuses = append(statuses, a.DeriveStatus(table))
	}
	return statuses
}

// CountByState tallies statuses by state
func CountByState(statuses []models.TableStatus) map[models.TableState]int {
	counts := map[models.TableState]int{
		models.TableEmpty:    0,
		models.TableOrdered:  0,
		models.TableReserved: 0,
	}
	for _, status := range statuses {
		counts[status.Status]++
	}
	return counts
}
