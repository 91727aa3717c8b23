package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

// Open connects to the backend database. driver is "sqlite3" or "postgres".
func Open(driver, url string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite3" {
		// One writer; an in-memory database also lives on a single connection.
		db.DB().SetMaxOpenConns(1)
	}
	return db, nil
}
