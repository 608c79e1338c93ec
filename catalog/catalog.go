package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Summary is one row of a manga search result.
type Summary struct {
	ID     int64
	Title  string
	Cover  string
	Genres []string
}

// Detail carries full metadata of one manga.
type Detail struct {
	ID           int64
	Title        string
	Year         int
	Description  string
	Genres       []string
	Cover        string
	ChapterCount int
	Rating       float64
}

// Chapter describes one chapter entry of a manga's chapter list. Volume and
// Number keep the catalog's string form, chapter numbers like "10.5" are
// common.
type Chapter struct {
	ID     int64
	Volume string
	Number string
	Title  string
}

// Page is one remote page image. Pages come from the catalog in canonical
// reading order, that order must be preserved all the way into the produced
// archive. ChapterLabel is only set when pages of several chapters are
// gathered for a volume download.
type Page struct {
	URL          string
	ChapterLabel string
}

// ChapterTitle formats a display label for given chapter, e.g. "V2 Ch.13".
func ChapterTitle(ch Chapter) string {
	if ch.Number != "" {
		label := "Ch." + ch.Number
		if ch.Volume != "" {
			label = "V" + ch.Volume + " " + label
		}
		return label
	}

	if ch.Title != "" {
		return ch.Title
	}

	return "Chapter"
}

// Volumes returns the distinct volume labels found in `chapters`, sorted
// numerically when possible.
func Volumes(chapters []Chapter) []string {
	seen := map[string]bool{}
	list := []string{}
	for _, ch := range chapters {
		if ch.Volume == "" || seen[ch.Volume] {
			continue
		}
		seen[ch.Volume] = true
		list = append(list, ch.Volume)
	}

	sort.Slice(list, func(i, j int) bool {
		a, errA := strconv.ParseFloat(list[i], 64)
		b, errB := strconv.ParseFloat(list[j], 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return list[i] < list[j]
	})

	return list
}

// ChaptersInVolume filters `chapters` down to one volume, sorted by chapter
// number in reading order.
func ChaptersInVolume(chapters []Chapter, volume string) []Chapter {
	list := []Chapter{}
	for _, ch := range chapters {
		if ch.Volume == volume {
			list = append(list, ch)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, errA := strconv.ParseFloat(list[i].Number, 64)
		b, errB := strconv.ParseFloat(list[j].Number, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return list[i].Number < list[j].Number
	})

	return list
}

// flexString accepts both JSON strings and numbers, the catalog serves
// chapter and volume numbers in either form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value is neither string nor number: %s", err)
	}
	*f = flexString(n.String())

	return nil
}
