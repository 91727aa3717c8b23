package database

import (
	"fmt"

	"go.uber.org/zap"
)

// DemoMenu is the menu a fresh backend starts with
func DemoMenu() []MenuItemRecord {
	return []MenuItemRecord{
		{ID: "kimchi-jjigae", Name: "김치찌개", Price: 12000, Category: "stew", Available: true, Position: 1},
		{ID: "samgyeopsal", Name: "삼겹살", Price: 13000, Category: "grill", Available: true, Position: 2},
		{ID: "doenjang-jjigae", Name: "된장찌개", Price: 8000, Category: "stew", Available: true, Position: 3},
		{ID: "bibimbap", Name: "비빔밥", Price: 10000, Category: "rice", Available: true, Position: 4},
	}
}

// SeedMenu inserts the demo menu when the menu is empty
func (s *Store) SeedMenu() error {
	var count int
	if err := s.db.Model(&MenuItemRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count menu items: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, item := range DemoMenu() {
		if err := s.db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to seed menu item %s: %w", item.ID, err)
		}
	}

	s.log.Info("Seeded demo menu", zap.Int("items", len(DemoMenu())))
	return nil
}
