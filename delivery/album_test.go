package delivery

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okatsune/desudl/catalog"
	"github.com/okatsune/desudl/network"
)

type stubSender struct {
	failOnBatch int

	batchCnt  int
	sentSizes []int
	replayed  [][]string
}

func (s *stubSender) SendBatch(_ context.Context, images [][]byte) ([]string, error) {
	s.batchCnt++
	if s.failOnBatch > 0 && s.batchCnt == s.failOnBatch {
		return nil, fmt.Errorf("send rejected")
	}

	s.sentSizes = append(s.sentSizes, len(images))

	handles := make([]string, len(images))
	for i := range handles {
		handles[i] = fmt.Sprintf("h%d-%d", s.batchCnt, i)
	}
	return handles, nil
}

func (s *stubSender) SendCached(_ context.Context, handles []string) error {
	s.replayed = append(s.replayed, handles)
	return nil
}

func albumFixture(t *testing.T, pageCnt int) (*Album, []catalog.Page) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		png.Encode(w, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	}))
	t.Cleanup(server.Close)

	pages := make([]catalog.Page, pageCnt)
	for i := range pages {
		pages[i] = catalog.Page{URL: fmt.Sprintf("%s/%d.png", server.URL, i)}
	}

	album := NewAlbum(network.NewFetcher(network.Options{RetryCnt: 1}), testStore(t))

	return album, pages
}

func TestAlbumBatching(t *testing.T) {
	album, pages := albumFixture(t, 25)
	sender := &stubSender{}

	err := album.Stream(context.Background(), pages, sender, 42, 1001, nil)
	if err != nil {
		t.Fatalf("album stream failed: %s", err)
	}

	// 25 pages split as 10, 10, 5.
	want := []int{10, 10, 5}
	if len(sender.sentSizes) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(sender.sentSizes))
	}
	for i, size := range want {
		if sender.sentSizes[i] != size {
			t.Fatalf("batch %d has %d images instead of %d", i, sender.sentSizes[i], size)
		}
	}

	batches, ok := album.store.CachedAlbum(42, 1001)
	if !ok || len(batches) != 3 {
		t.Fatalf("expected 3 cached batches, got %d ok=%v", len(batches), ok)
	}
}

func TestAlbumInvalidationOnSendFailure(t *testing.T) {
	album, pages := albumFixture(t, 25)
	sender := &stubSender{failOnBatch: 2}

	err := album.Stream(context.Background(), pages, sender, 42, 1001, nil)
	if err == nil {
		t.Fatalf("expected stream error")
	}

	if _, ok := album.store.CachedAlbum(42, 1001); ok {
		t.Fatalf("failed stream must leave no cached batches")
	}
}

func TestAlbumCachedReplay(t *testing.T) {
	album, pages := albumFixture(t, 12)
	sender := &stubSender{}

	if err := album.Stream(context.Background(), pages, sender, 42, 1001, nil); err != nil {
		t.Fatalf("album stream failed: %s", err)
	}

	replaySender := &stubSender{}
	if err := album.Stream(context.Background(), pages, replaySender, 42, 1001, nil); err != nil {
		t.Fatalf("album replay failed: %s", err)
	}

	if replaySender.batchCnt != 0 {
		t.Fatalf("replay must not re-upload, got %d batch sends", replaySender.batchCnt)
	}
	if len(replaySender.replayed) != 2 {
		t.Fatalf("expected 2 replayed batches, got %d", len(replaySender.replayed))
	}
	if len(replaySender.replayed[0]) != 10 || len(replaySender.replayed[1]) != 2 {
		t.Fatalf("unexpected replayed batch sizes: %v, %v",
			len(replaySender.replayed[0]), len(replaySender.replayed[1]))
	}
}
