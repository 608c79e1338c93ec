package delivery

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/okatsune/desudl/catalog"
	"github.com/okatsune/desudl/database"
	"github.com/okatsune/desudl/network"
	"github.com/okatsune/desudl/progress"
	"github.com/okatsune/desudl/transform"
)

// AlbumBatchSize is the most images one chat batch may carry, an external
// platform constraint.
const AlbumBatchSize = 10

// AlbumSender sends page images as chat image batches. SendBatch returns
// one remote handle per image sent. SendCached replays previously
// obtained handles without re-uploading.
type AlbumSender interface {
	SendBatch(ctx context.Context, images [][]byte) ([]string, error)
	SendCached(ctx context.Context, handles []string) error
}

// Album streams chapter pages as image batches instead of an archive
// file. The per-chapter batch cache is all or nothing, any shortfall
// clears the whole set so a replay is never served a truncated chapter.
type Album struct {
	fetcher *network.Fetcher
	store   *database.Store
}

func NewAlbum(fetcher *network.Fetcher, store *database.Store) *Album {
	return &Album{
		fetcher: fetcher,
		store:   store,
	}
}

// Stream sends every page of one chapter in batches of at most
// AlbumBatchSize. Cached batches are replayed from their stored handles.
func (a *Album) Stream(
	ctx context.Context,
	pages []catalog.Page,
	sender AlbumSender,
	subjectID, subUnitID int64,
	sink progress.Sink,
) error {
	if sink == nil {
		sink = progress.Discard
	}

	if batches, ok := a.store.CachedAlbum(subjectID, subUnitID); ok {
		log.Infof("album cache hit for chapter %d, replaying %d batches", subUnitID, len(batches))
		return a.replay(ctx, sender, batches, sink)
	}

	total := len(pages)
	sent := 0

	for batchIndex := 0; sent < total; batchIndex++ {
		end := sent + AlbumBatchSize
		if end > total {
			end = total
		}

		images, err := a.fetchBatch(ctx, pages[sent:end], sent, total, sink)
		if err != nil {
			a.invalidate(subjectID, subUnitID, err)
			return err
		}

		handles, err := sender.SendBatch(ctx, images)
		if err == nil && len(handles) != len(images) {
			err = fmt.Errorf("sent %d images but got %d handles back", len(images), len(handles))
		}
		if err != nil {
			a.invalidate(subjectID, subUnitID, err)
			return fmt.Errorf("failed to send album batch %d: %s", batchIndex, err)
		}

		if err := a.store.CacheAlbumBatch(subjectID, subUnitID, batchIndex, handles); err != nil {
			log.Warnf("%s", err)
		}

		sent = end
		sink.Update(sent, total, fmt.Sprintf("sent %d/%d pages", sent, total))
	}

	return nil
}

func (a *Album) fetchBatch(
	ctx context.Context,
	pages []catalog.Page,
	done, total int,
	sink progress.Sink,
) ([][]byte, error) {
	images := make([][]byte, 0, len(pages))

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sink.Update(done+i, total, fmt.Sprintf("fetching page %d/%d", done+i+1, total))

		img, err := a.fetcher.FetchImage(ctx, page.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %s", done+i+1, err)
		}

		data, err := transform.EncodeJPEG(
			transform.ResizeToFit(img, transform.DeliveryMaxDimension),
			transform.NormalJPEGQuality,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %s", done+i+1, err)
		}

		images = append(images, data)
	}

	return images, nil
}

func (a *Album) replay(
	ctx context.Context,
	sender AlbumSender,
	batches [][]string,
	sink progress.Sink,
) error {
	for i, handles := range batches {
		if err := sender.SendCached(ctx, handles); err != nil {
			return fmt.Errorf("failed to replay album batch %d: %s", i, err)
		}
		sink.Update(i+1, len(batches), fmt.Sprintf("replayed batch %d/%d", i+1, len(batches)))
	}

	return nil
}

// invalidate drops every cached batch of the chapter after any shortfall.
func (a *Album) invalidate(subjectID, subUnitID int64, cause error) {
	a.store.LogError("album",
		cause.Error(),
		fmt.Sprintf("manga=%d chapter=%d", subjectID, subUnitID))

	if err := a.store.ClearAlbum(subjectID, subUnitID); err != nil {
		log.Warnf("%s", err)
	}
}
