package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/okatsune/desudl/database/data_model"
)

// Open connects to the cache database at given path and migrates the schema.
// ":memory:" opens a throwaway in-memory database.
func Open(filePath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %s", filePath, err)
	}

	err = db.AutoMigrate(data_model.All()...)
	if err != nil {
		return nil, fmt.Errorf("database migration failed: %s", err)
	}

	return &Store{db: db}, nil
}

// Close shuts the underlying connection down.
func (s *Store) Close() error {
	inner, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to close database, can't read inner data: %s", err)
	}

	err = inner.Close()
	if err != nil {
		return fmt.Errorf("failed to close inner database: %s", err)
	}

	return nil
}
