package tables

import (
	"sort"

	"maitred/internal/models"
)

// Summary is the end-of-day view: what sold best and what has been taken.
type Summary struct {
	PopularItem     string
	PopularQuantity int
	SettledSales    int64
	OpenSales       int64
	SettledTables   int
}

// TotalSales returns settled plus still-open sales
func (s Summary) TotalSales() int64 {
	return s.SettledSales + s.OpenSales
}

// OpenOrders is the part of the order store a summary reads
type OpenOrders interface {
	Tables() []int
	View(table int) ([]models.OrderLine, int64)
}

// Summarize builds a summary from settled receipts and currently open lines.
// Ties for most popular item are broken alphabetically so the result is stable.
func Summarize(receipts []models.Receipt, open OpenOrders) Summary {
	var summary Summary
	quantities := make(map[string]int)

	for _, receipt := range receipts {
		summary.SettledSales += receipt.Total
		summary.SettledTables++
		for _, line := range receipt.Lines {
			quantities[line.ItemName] += line.Quantity
		}
	}

	if open != nil {
		for _, table := range open.Tables() {
			lines, total := open.View(table)
			summary.OpenSales += total
			for _, line := range lines {
				quantities[line.ItemName] += line.Quantity
			}
		}
	}

	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if quantities[name] > summary.PopularQuantity {
			summary.PopularItem = name
			summary.PopularQuantity = quantities[name]
		}
	}

	return summary
}
