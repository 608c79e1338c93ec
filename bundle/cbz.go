package bundle

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/okatsune/desudl/common"
	"github.com/okatsune/desudl/transform"
)

// WriteCBZ builds a CBZ (comic book ZIP) archive from `pages` in input
// order. Single chapter output names entries `page_NNN.jpg`; when pages
// carry chapter labels each chapter lands in its own subfolder and page
// numbering restarts per chapter.
func WriteCBZ(pages []Page, quality int, outputName string) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	file, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %s", outputName, err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriter(file)
	defer bufWriter.Flush()

	zipWriter := zip.NewWriter(bufWriter)
	defer zipWriter.Close()

	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	curChapter := ""
	pageNum := 0
	for i, page := range pages {
		if i == 0 || page.Chapter != curChapter {
			curChapter = page.Chapter
			pageNum = 0
		}
		pageNum++

		entryName := fmt.Sprintf("page_%03d.jpg", pageNum)
		if curChapter != "" {
			entryName = common.SanitizeName(curChapter) + "/" + entryName
		}

		data, err := transform.EncodeJPEG(page.Image, quality)
		if err != nil {
			return fmt.Errorf("failed to encode archive entry %s: %s", entryName, err)
		}

		writer, err := zipWriter.Create(entryName)
		if err != nil {
			return fmt.Errorf("failed to create archive entry %s: %s", entryName, err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("failed to write archive entry %s: %s", entryName, err)
		}
	}

	return nil
}
