package models

import "time"

// OrderLine is one menu item's quantity and price on a table.
// ItemName and UnitPrice are copied from the catalog when the line is created,
// so later catalog changes do not reprice open tables.
type OrderLine struct {
	TableNumber int
	MenuItemID  string
	ItemName    string
	Quantity    int
	UnitPrice   int64
}

// Subtotal returns quantity times unit price.
func (l OrderLine) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// Key identifies the line within its table. Lines pulled from the backend may
// lack a menu id; those are keyed by name instead.
func (l OrderLine) Key() string {
	if l.MenuItemID != "" {
		return l.MenuItemID
	}
	return "name:" + l.ItemName
}

// Receipt is the settled bill handed to the receipt renderer.
type Receipt struct {
	ID          string
	TableNumber int
	Lines       []OrderLine
	Total       int64
	SettledAt   time.Time
}

// ItemCount returns the number of units on the receipt.
func (r Receipt) ItemCount() int {
	count := 0
	for _, line := range r.Lines {
		count += line.Quantity
	}
	return count
}
