package database

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/okatsune/desudl/database/data_model"
)

// Store is the durable shared state the download core touches: delivered
// artifact handles, album batch handles, reading history and the error
// log. All writes are idempotent upserts keyed by composite identity.
type Store struct {
	db *gorm.DB
}

// DB exposes the underlying connection for management commands.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CachedFile looks a delivered archive handle up. The second return value
// reports whether an entry exists.
func (s *Store) CachedFile(mangaID int64, subUnit string, format string) (data_model.FileCacheEntry, bool) {
	entry := data_model.FileCacheEntry{}
	result := s.db.Limit(1).Find(&entry,
		"manga_id = ? AND sub_unit = ? AND format = ?", mangaID, subUnit, format)

	if result.Error != nil || result.RowsAffected == 0 {
		return entry, false
	}

	return entry, true
}

// CacheFile records the remote handle of a fully delivered archive,
// overwriting any previous entry for the same key.
func (s *Store) CacheFile(mangaID int64, subUnit string, format string, fileID string, fileName string) error {
	entry := &data_model.FileCacheEntry{
		MangaID:  mangaID,
		SubUnit:  subUnit,
		Format:   format,
		FileID:   fileID,
		FileName: fileName,
	}

	if err := entry.Upsert(s.db); err != nil {
		return fmt.Errorf("failed to cache file handle for manga %d %s: %s", mangaID, subUnit, err)
	}

	return nil
}

// CachedAlbum returns the cached album batches of one chapter ordered by
// batch index, or false when nothing is cached.
func (s *Store) CachedAlbum(mangaID, chapterID int64) ([][]string, bool) {
	entries := []data_model.AlbumBatchEntry{}
	result := s.db.Find(&entries, "manga_id = ? AND chapter_id = ?", mangaID, chapterID)
	if result.Error != nil || len(entries) == 0 {
		return nil, false
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].BatchIndex < entries[j].BatchIndex
	})

	batches := make([][]string, 0, len(entries))
	for i := range entries {
		batches = append(batches, entries[i].Handles())
	}

	return batches, true
}

// CacheAlbumBatch records the remote handles of one sent album batch.
func (s *Store) CacheAlbumBatch(mangaID, chapterID int64, batchIndex int, handles []string) error {
	entry := &data_model.AlbumBatchEntry{
		MangaID:    mangaID,
		ChapterID:  chapterID,
		BatchIndex: batchIndex,
	}
	entry.SetHandles(handles)

	if err := entry.Upsert(s.db); err != nil {
		return fmt.Errorf("failed to cache album batch %d of chapter %d: %s", batchIndex, chapterID, err)
	}

	return nil
}

// ClearAlbum drops every cached batch of one chapter so a later replay
// never gets served a truncated set.
func (s *Store) ClearAlbum(mangaID, chapterID int64) error {
	result := s.db.Where("manga_id = ? AND chapter_id = ?", mangaID, chapterID).
		Delete(&data_model.AlbumBatchEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to clear album cache of chapter %d: %s", chapterID, result.Error)
	}

	return nil
}

// MarkChapterRead records a chapter into the user's reading history.
func (s *Store) MarkChapterRead(userID, mangaID, chapterID int64, chapterNum string) error {
	entry := &data_model.ReadingHistoryEntry{
		UserID:     userID,
		MangaID:    mangaID,
		ChapterID:  chapterID,
		ChapterNum: chapterNum,
	}

	if err := entry.Upsert(s.db); err != nil {
		return fmt.Errorf("failed to record reading history: %s", err)
	}

	return nil
}

// ReadChapters returns the ids of chapters the user already read for one
// manga. A failed query reads as empty history, the failure itself only
// gets logged since history marks are cosmetic.
func (s *Store) ReadChapters(userID, mangaID int64) []int64 {
	entries := []data_model.ReadingHistoryEntry{}
	result := s.db.Find(&entries, "user_id = ? AND manga_id = ?", userID, mangaID)
	if result.Error != nil {
		log.Warnf("failed to read reading history: %s", result.Error)
	}

	ids := make([]int64, 0, len(entries))
	for i := range entries {
		ids = append(ids, entries[i].ChapterID)
	}

	return ids
}

// LogError writes one (kind, message, context) triple to the log output
// and the persistent error log. Logging failures are swallowed, a broken
// error log must never fail the request it was reporting on.
func (s *Store) LogError(kind, message, context string) {
	log.Errorf("%s: %s (context: %s)", kind, message, context)

	if s == nil || s.db == nil {
		return
	}

	s.db.Create(&data_model.ErrorLogEntry{
		Kind:    kind,
		Message: message,
		Context: context,
	})
}

// RecentErrors returns up to `limit` newest error log records.
func (s *Store) RecentErrors(limit int) ([]data_model.ErrorLogEntry, error) {
	entries := []data_model.ErrorLogEntry{}
	result := s.db.Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read error log: %s", result.Error)
	}

	return entries, nil
}
