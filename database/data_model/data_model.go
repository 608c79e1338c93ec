package data_model

import "gorm.io/gorm"

type DataModel interface {
	Upsert(db *gorm.DB) error
}

// All lists every model migrated on database open.
func All() []any {
	return []any{
		&FileCacheEntry{},
		&AlbumBatchEntry{},
		&ReadingHistoryEntry{},
		&ErrorLogEntry{},
	}
}
