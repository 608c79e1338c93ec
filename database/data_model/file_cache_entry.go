package data_model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileCacheEntry maps one delivered archive onto the delivery channel's
// remote handle so a repeated request skips the whole download. SubUnit is
// the chapter id for chapter archives and the volume label for volume
// archives. At most one entry exists per (manga, sub-unit, format),
// recreation overwrites.
type FileCacheEntry struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	MangaID int64  `gorm:"primaryKey;autoIncrement:false"`
	SubUnit string `gorm:"primaryKey"`
	Format  string `gorm:"primaryKey"`

	FileID   string
	FileName string
}

func (entry *FileCacheEntry) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "manga_id"}, {Name: "sub_unit"}, {Name: "format"},
		},
		UpdateAll: true,
	}).Create(entry).Error
}
