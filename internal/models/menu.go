package models

import "fmt"

// MenuItem represents a sellable dish as published by the menu service.
// Prices are in minor currency units.
type MenuItem struct {
	ID        string
	Name      string
	Price     int64
	Category  string
	Available bool
}

// CategoryOther groups items published without a category
const CategoryOther = "other"

// ValidateMenuItem validates a menu item
func ValidateMenuItem(item *MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("menu item id is required")
	}
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("menu item price must not be negative")
	}
	return nil
}

// CategoryOrOther returns the item's category, or "other" when unset.
func (mi *MenuItem) CategoryOrOther() string {
	if mi.Category == "" {
		return CategoryOther
	}
	return mi.Category
}
