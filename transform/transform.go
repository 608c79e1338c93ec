// Package transform holds the image reduction steps applied to downloaded
// page bitmaps before archive embedding or chat delivery.
package transform

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// DeliveryMaxDimension is the hard per-side ceiling for images sent
	// directly to chat.
	DeliveryMaxDimension = 4096
	// CompressMaxDimension is the lossy reduction ceiling used when an
	// archive came out over the delivery size limit.
	CompressMaxDimension = 1800

	NormalJPEGQuality   = 85
	CompressJPEGQuality = 70
)

// ResizeToFit scales the image down so neither side exceeds `maxDimension`,
// preserving aspect ratio. Images already within bounds are returned
// unchanged.
func ResizeToFit(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img
	}

	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}

// EncodeJPEG re-encodes a bitmap as JPEG at given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %s", err)
	}

	return buf.Bytes(), nil
}
