package data_model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadingHistoryEntry records that a user downloaded or read one chapter.
type ReadingHistoryEntry struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	MangaID   int64 `gorm:"primaryKey;autoIncrement:false"`
	ChapterID int64 `gorm:"primaryKey;autoIncrement:false"`

	ChapterNum string
}

func (entry *ReadingHistoryEntry) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "manga_id"}, {Name: "chapter_id"},
		},
		UpdateAll: true,
	}).Create(entry).Error
}
