package bundle

import (
	"fmt"

	"github.com/signintech/gopdf"

	"github.com/okatsune/desudl/transform"
)

// WritePDF builds a multi-page PDF with one page per bitmap, in input
// order. Every bitmap is embedded as JPEG at given quality and each PDF
// page takes the dimensions of its bitmap.
func WritePDF(pages []Page, quality int, outputName string) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	for i, page := range pages {
		data, err := transform.EncodeJPEG(page.Image, quality)
		if err != nil {
			return fmt.Errorf("failed to encode page %d: %s", i+1, err)
		}

		bounds := page.Image.Bounds()
		rect := &gopdf.Rect{
			W: float64(bounds.Dx()),
			H: float64(bounds.Dy()),
		}

		pdf.AddPageWithOption(gopdf.PageOption{PageSize: rect})

		holder, err := gopdf.ImageHolderByBytes(data)
		if err != nil {
			return fmt.Errorf("failed to load page %d image: %s", i+1, err)
		}

		if err := pdf.ImageByHolder(holder, 0, 0, rect); err != nil {
			return fmt.Errorf("failed to add page %d to document: %s", i+1, err)
		}
	}

	if err := pdf.WritePdf(outputName); err != nil {
		return fmt.Errorf("failed to write file %s: %s", outputName, err)
	}

	return nil
}
