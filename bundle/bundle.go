// Package bundle assembles ordered page bitmaps into deliverable archive
// files, a paginated PDF or a CBZ comic archive.
package bundle

import (
	"errors"
	"fmt"
	"image"
	"os"
)

var ErrNoPages = errors.New("no pages to bundle")

// Format selects the archive container produced for a download.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCBZ Format = "cbz"
)

var AllFormats = []Format{FormatPDF, FormatCBZ}

// ParseFormat maps a user supplied format name onto a Format value.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatCBZ:
		return FormatCBZ, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", name)
	}
}

// Ext returns the file extension of the format, including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Page is one downloaded page bitmap in reading order. Chapter carries the
// chapter label when the page belongs to a volume spanning several
// chapters, it selects the archive subfolder the page lands in.
type Page struct {
	Image   image.Image
	Chapter string
}

// Artifact describes a produced archive file sitting in scratch storage.
// Artifacts are ephemeral, every delivery path removes them before
// returning.
type Artifact struct {
	Path   string
	Size   int64
	Format Format
}

// NewArtifact stats the written archive and wraps it in a descriptor.
func NewArtifact(path string, format Format) (*Artifact, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive %s: %s", path, err)
	}

	return &Artifact{
		Path:   path,
		Size:   stat.Size(),
		Format: format,
	}, nil
}

// Remove deletes the artifact file. Removing an already deleted artifact is
// not an error.
func (a *Artifact) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}

	err := os.Remove(a.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact %s: %s", a.Path, err)
	}

	return nil
}

// Write assembles `pages` into an archive of given format at `outputName`.
func Write(pages []Page, format Format, quality int, outputName string) error {
	switch format {
	case FormatPDF:
		return WritePDF(pages, quality, outputName)
	case FormatCBZ:
		return WriteCBZ(pages, quality, outputName)
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}
