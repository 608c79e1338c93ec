package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okatsune/desudl/common"
)

const defaultTimeout = 20 * time.Second

// Client is a thin wrapper over the catalog's JSON API.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

// NewClient makes a catalog client for given API base URL, e.g.
// "https://desu.win/manga/api". Timeout of zero falls back to 20s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: common.GetDurationOr(timeout, defaultTimeout),
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// SetHeaders updates default headers used by all requests.
func (c *Client) SetHeaders(headers map[string]string) {
	result := map[string]string{}
	for k, v := range headers {
		result[k] = v
	}
	c.headers = result
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %s", target, err)
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %s", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request to %s failed with status %s", target, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s: %s", target, err)
	}

	// Every endpoint wraps its payload in a `response` envelope.
	envelope := struct {
		Response json.RawMessage `json:"response"`
	}{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unexpected response shape from %s: %s", target, err)
	}
	if envelope.Response == nil {
		envelope.Response = data
	}

	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("failed to decode response of %s: %s", target, err)
	}

	return nil
}

type wireGenre struct {
	Russian string `json:"russian"`
	Name    string `json:"name"`
}

func (g wireGenre) label() string {
	return common.GetStrOr(g.Russian, common.GetStrOr(g.Name, "Unknown"))
}

type wireImage struct {
	Original string `json:"original"`
}

type wireChapter struct {
	ID     int64      `json:"id"`
	Volume flexString `json:"vol"`
	Number flexString `json:"ch"`
	Title  string     `json:"title"`
}

type wireManga struct {
	ID          int64       `json:"id"`
	Russian     string      `json:"russian"`
	Name        string      `json:"name"`
	Year        int         `json:"year"`
	Description string      `json:"description"`
	Score       float64     `json:"score"`
	Genres      []wireGenre `json:"genres"`
	Image       wireImage   `json:"image"`
	Chapters    struct {
		Count int           `json:"count"`
		List  []wireChapter `json:"list"`
	} `json:"chapters"`
}

func (m *wireManga) title() string {
	return common.GetStrOr(m.Russian, common.GetStrOr(m.Name, "Untitled"))
}

func (m *wireManga) genreLabels() []string {
	labels := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		labels = append(labels, g.label())
	}
	return labels
}

// SearchManga queries the catalog with given keyword, empty keyword lists
// the default ordering of given page.
func (c *Client) SearchManga(ctx context.Context, keyword string, page int) ([]Summary, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(common.GetIntOr(page, 1)))
	query.Set("limit", "20")
	if keyword != "" {
		query.Set("search", keyword)
	}

	list := []wireManga{}
	if err := c.get(ctx, "", query, &list); err != nil {
		return nil, err
	}

	result := make([]Summary, 0, len(list))
	for i := range list {
		m := &list[i]
		result = append(result, Summary{
			ID:     m.ID,
			Title:  m.title(),
			Cover:  m.Image.Original,
			Genres: m.genreLabels(),
		})
	}

	return result, nil
}

// MangaDetail fetches full metadata of one manga.
func (c *Client) MangaDetail(ctx context.Context, mangaID int64) (*Detail, error) {
	m := wireManga{}
	if err := c.get(ctx, fmt.Sprintf("/%d", mangaID), nil, &m); err != nil {
		return nil, err
	}

	return &Detail{
		ID:           m.ID,
		Title:        m.title(),
		Year:         m.Year,
		Description:  m.Description,
		Genres:       m.genreLabels(),
		Cover:        m.Image.Original,
		ChapterCount: m.Chapters.Count,
		Rating:       m.Score,
	}, nil
}

// MangaTitle fetches the display title of one manga.
func (c *Client) MangaTitle(ctx context.Context, mangaID int64) (string, error) {
	detail, err := c.MangaDetail(ctx, mangaID)
	if err != nil {
		return "", err
	}
	return detail.Title, nil
}

// Chapters fetches the ordered chapter list of one manga.
func (c *Client) Chapters(ctx context.Context, mangaID int64) ([]Chapter, error) {
	m := wireManga{}
	if err := c.get(ctx, fmt.Sprintf("/%d", mangaID), nil, &m); err != nil {
		return nil, err
	}

	chapters := make([]Chapter, 0, len(m.Chapters.List))
	for _, ch := range m.Chapters.List {
		chapters = append(chapters, Chapter{
			ID:     ch.ID,
			Volume: string(ch.Volume),
			Number: string(ch.Number),
			Title:  ch.Title,
		})
	}

	return chapters, nil
}

type wirePage struct {
	Img   string `json:"img"`
	Image string `json:"image"`
	URL   string `json:"url"`
}

func (p wirePage) imageURL() string {
	return common.GetStrOr(p.Img, common.GetStrOr(p.Image, p.URL))
}

// ChapterPages fetches the ordered page list of one chapter. Page order in
// the result is the canonical reading order.
func (c *Client) ChapterPages(ctx context.Context, mangaID, chapterID int64) ([]Page, error) {
	payload := struct {
		Pages struct {
			List []wirePage `json:"list"`
		} `json:"pages"`
	}{}

	path := fmt.Sprintf("/%d/chapter/%d", mangaID, chapterID)
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(payload.Pages.List))
	for _, p := range payload.Pages.List {
		u := p.imageURL()
		if u == "" {
			continue
		}
		pages = append(pages, Page{URL: u})
	}

	return pages, nil
}

// VolumePages gathers pages of every chapter belonging to `volume` in
// reading order. Each page is labeled with its chapter title so volume
// archives can be partitioned by chapter.
func (c *Client) VolumePages(ctx context.Context, mangaID int64, chapters []Chapter, volume string) ([]Page, error) {
	volChapters := ChaptersInVolume(chapters, volume)
	if len(volChapters) == 0 {
		return nil, fmt.Errorf("no chapters found for volume %s", volume)
	}

	allPages := []Page{}
	for _, ch := range volChapters {
		pages, err := c.ChapterPages(ctx, mangaID, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pages of chapter %d: %s", ch.ID, err)
		}

		label := ChapterTitle(ch)
		for _, p := range pages {
			p.ChapterLabel = label
			allPages = append(allPages, p)
		}
	}

	return allPages, nil
}
