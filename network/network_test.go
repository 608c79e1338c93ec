package network

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode test image: %s", err)
	}

	return buf.Bytes()
}

func TestFetchImage(t *testing.T) {
	gotUA := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write(pngBytes(t, 30, 40))
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{})
	img, err := fetcher.FetchImage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch failed: %s", err)
	}

	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 40 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if gotUA != defaultHeaders["User-Agent"] {
		t.Fatalf("request carried User-Agent %q", gotUA)
	}
}

func TestFetchImageCompressedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.Buffer{}
		writer := gzip.NewWriter(&buf)
		writer.Write(pngBytes(t, 10, 10))
		writer.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{})
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err != nil {
		t.Fatalf("fetch failed: %s", err)
	}
}

func TestFetchImageRetry(t *testing.T) {
	hitCnt := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hitCnt, 1) < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write(pngBytes(t, 10, 10))
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{RetryCnt: 3})
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err != nil {
		t.Fatalf("fetch failed after retries: %s", err)
	}
	if hitCnt != 3 {
		t.Fatalf("expected 3 attempts, got %d", hitCnt)
	}
}

func TestFetchImageMaxRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{RetryCnt: 2})
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	if !errors.Is(err, ErrMaxRetry) {
		t.Fatalf("expected ErrMaxRetry, got %v", err)
	}
}

func TestFetchImageNotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not found</html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{})
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err == nil {
		t.Fatalf("expected decode error")
	}
}
