package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StoredLine is one order line as persisted by the backend.
type StoredLine struct {
	MenuID   string `json:"menuId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// StoredLines is a list of order lines kept as a JSON column
type StoredLines []StoredLine

// Value converts the lines to a JSON string for storage
func (s StoredLines) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan converts the database value back to lines
func (s *StoredLines) Scan(value interface{}) error {
	if value == nil {
		*s = StoredLines{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StoredLines")
	}
}

// MenuItemRecord is a sellable item
type MenuItemRecord struct {
	ID        string `gorm:"primary_key"`
	Name      string `gorm:"not null"`
	Price     int64  `gorm:"not null"`
	Category  string
	Available bool `gorm:"not null"`
	ImageURL  string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for MenuItemRecord
func (MenuItemRecord) TableName() string {
	return "menu_items"
}

// TableOrderRecord is the last order submitted for a table
type TableOrderRecord struct {
	TableNum   int         `gorm:"primary_key;auto_increment:false"`
	Lines      StoredLines `gorm:"type:text"`
	TotalPrice int64
	UpdatedAt  time.Time
}

// TableName specifies the table name for TableOrderRecord
func (TableOrderRecord) TableName() string {
	return "table_orders"
}
