package data_model

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlbumBatchEntry caches the remote handles of one sent album batch, at
// most 10 images per batch. Unlike archive cache entries these are written
// incrementally per batch, a failed batch anywhere in the set invalidates
// every batch of the chapter.
type AlbumBatchEntry struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	MangaID    int64 `gorm:"primaryKey;autoIncrement:false"`
	ChapterID  int64 `gorm:"primaryKey;autoIncrement:false"`
	BatchIndex int   `gorm:"primaryKey;autoIncrement:false"`

	FileIDs string
}

func (entry *AlbumBatchEntry) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "manga_id"}, {Name: "chapter_id"}, {Name: "batch_index"},
		},
		UpdateAll: true,
	}).Create(entry).Error
}

// SetHandles stores given handle list in the entry's packed form.
func (entry *AlbumBatchEntry) SetHandles(handles []string) {
	entry.FileIDs = strings.Join(handles, ",")
}

// Handles unpacks the entry's handle list.
func (entry *AlbumBatchEntry) Handles() []string {
	if entry.FileIDs == "" {
		return nil
	}
	return strings.Split(entry.FileIDs, ",")
}
