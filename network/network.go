package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/okatsune/desudl/common"
)

var ErrMaxRetry = errors.New("max retry")

const defaultTimeout = 30 * time.Second

// The origin rejects default client fingerprints, so requests carry a
// browser-like header set.
var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Referer":    "https://desu.win/",
	"Accept":     "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
}

// Fetcher downloads page images from the manga origin.
type Fetcher struct {
	client   *http.Client
	headers  map[string]string
	retryCnt int
}

// Options configures a Fetcher. Zero values fall back to defaults: 30s
// timeout, a single attempt per page, the origin-compatible header set.
type Options struct {
	Timeout  time.Duration
	RetryCnt int
	Headers  map[string]string
}

func NewFetcher(options Options) *Fetcher {
	headers := options.Headers
	if headers == nil {
		headers = defaultHeaders
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: common.GetDurationOr(options.Timeout, defaultTimeout),
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
		headers:  headers,
		retryCnt: common.GetIntOr(options.RetryCnt, 1),
	}
}

// FetchImage requests one page image and decodes it into a bitmap. Network
// errors, non-2xx statuses and undecodable bodies are all reported as
// errors, the caller decides whether a failed page aborts anything.
func (f *Fetcher) FetchImage(ctx context.Context, url string) (image.Image, error) {
	var lastErr error

	for attempt := 0; attempt < f.retryCnt; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := f.tryFetch(ctx, url)
		if err == nil {
			return img, nil
		}
		lastErr = err
	}

	if f.retryCnt > 1 {
		return nil, fmt.Errorf("%w after %d attempts: %s", ErrMaxRetry, f.retryCnt, lastErr)
	}

	return nil, lastErr
}

func (f *Fetcher) tryFetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", err)
	}

	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error during get remote data: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error during reading response body: %s", err)
	}

	// net/http only handles gzip on its own, manga CDNs also hand out
	// brotli and zstd bodies.
	body, err = DecompressBody(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("image decoding failed: %s", err)
	}

	return img, nil
}
