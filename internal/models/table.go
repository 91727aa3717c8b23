package models

// TableState represents the display state of a table
type TableState string

const (
	TableEmpty    TableState = "empty"
	TableOrdered  TableState = "ordered"
	TableReserved TableState = "reserved"
)

// TableStatus is the derived, display-ready view of a single table.
type TableStatus struct {
	Table        int
	Status       TableState
	HeadlineItem string
	ExtraCount   int
	Total        int64
}

// HasOrders reports whether the status carries an order summary.
func (s TableStatus) HasOrders() bool {
	return s.HeadlineItem != ""
}
