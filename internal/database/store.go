package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"

	"maitred/internal/models"
)

// MenuPatch holds the editable fields of a menu item. Nil fields are left
// unchanged.
type MenuPatch struct {
	Name      *string `json:"name"`
	Price     *int64  `json:"price"`
	Category  *string `json:"category"`
	Available *bool   `json:"available"`
	ImageURL  *string `json:"imageUrl"`
}

// Store is the backend's persistence layer
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStore wraps an open database
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Migrate creates or updates the schema
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&MenuItemRecord{}, &TableOrderRecord{}).Error; err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping() error {
	return s.db.DB().Ping()
}

// ListMenu returns the menu in display order
func (s *Store) ListMenu() ([]MenuItemRecord, error) {
	var items []MenuItemRecord
	if err := s.db.Order("position asc").Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	return items, nil
}

// CreateMenuItem inserts an item at the end of the menu
func (s *Store) CreateMenuItem(item MenuItemRecord) (MenuItemRecord, error) {
	if item.Position == 0 {
		var count int
		if err := s.db.Model(&MenuItemRecord{}).Count(&count).Error; err != nil {
			return MenuItemRecord{}, fmt.Errorf("failed to count menu items: %w", err)
		}
		item.Position = count + 1
	}
	if err := s.db.Create(&item).Error; err != nil {
		return MenuItemRecord{}, fmt.Errorf("failed to create menu item: %w", err)
	}
	return item, nil
}

// UpdateMenuItem applies patch to the item with the given id
func (s *Store) UpdateMenuItem(id string, patch MenuPatch) (MenuItemRecord, error) {
	var item MenuItemRecord
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return MenuItemRecord{}, &models.NotFoundError{Kind: "menu item", Key: id}
		}
		return MenuItemRecord{}, fmt.Errorf("failed to load menu item: %w", err)
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}
	if patch.ImageURL != nil {
		item.ImageURL = *patch.ImageURL
	}

	if err := s.db.Save(&item).Error; err != nil {
		return MenuItemRecord{}, fmt.Errorf("failed to update menu item: %w", err)
	}
	return item, nil
}

// ListTables returns every table holding an order, by table number
func (s *Store) ListTables() ([]TableOrderRecord, error) {
	var tables []TableOrderRecord
	if err := s.db.Order("table_num asc").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// SaveOrder replaces the table's order. An empty order removes the table.
func (s *Store) SaveOrder(table int, lines StoredLines, total int64) (TableOrderRecord, error) {
	if len(lines) == 0 {
		_, err := s.ClearTable(table)
		return TableOrderRecord{TableNum: table, Lines: StoredLines{}}, err
	}

	record := TableOrderRecord{TableNum: table, Lines: lines, TotalPrice: total}
	if err := s.db.Save(&record).Error; err != nil {
		return TableOrderRecord{}, fmt.Errorf("failed to save order for table %d: %w", table, err)
	}

	s.log.Debug("Order saved", zap.Int("table", table), zap.Int("lines", len(lines)), zap.Int64("total", total))
	return record, nil
}

// ClearTable removes the table's order and reports whether there was one
func (s *Store) ClearTable(table int) (bool, error) {
	result := s.db.Where("table_num = ?", table).Delete(&TableOrderRecord{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to clear table %d: %w", table, result.Error)
	}
	return result.RowsAffected > 0, nil
}
