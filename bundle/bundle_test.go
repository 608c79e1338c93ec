package bundle

import (
	"archive/zip"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// testPage makes a small bitmap whose top-left pixel encodes `tag` so tests
// can verify ordering after a round trip.
func testPage(tag uint8, chapter string) Page {
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	img.Set(0, 0, color.RGBA{R: tag, A: 0xff})
	return Page{Image: img, Chapter: chapter}
}

func TestWriteCBZEmptyInput(t *testing.T) {
	outputName := filepath.Join(t.TempDir(), "empty.cbz")

	if err := WriteCBZ(nil, 85, outputName); err != ErrNoPages {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
	if _, err := os.Stat(outputName); !os.IsNotExist(err) {
		t.Error("no file should be created for empty input")
	}
}

func TestWritePDFEmptyInput(t *testing.T) {
	outputName := filepath.Join(t.TempDir(), "empty.pdf")

	if err := WritePDF(nil, 85, outputName); err != ErrNoPages {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}

func TestWriteCBZChapterEntryOrder(t *testing.T) {
	pages := []Page{testPage(1, ""), testPage(2, ""), testPage(3, "")}
	outputName := filepath.Join(t.TempDir(), "chapter.cbz")

	if err := WriteCBZ(pages, 85, outputName); err != nil {
		t.Fatalf("WriteCBZ failed: %s", err)
	}

	reader, err := zip.OpenReader(outputName)
	if err != nil {
		t.Fatalf("failed to open produced archive: %s", err)
	}
	defer reader.Close()

	want := []string{"page_001.jpg", "page_002.jpg", "page_003.jpg"}
	if len(reader.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(reader.File))
	}
	for i, f := range reader.File {
		if f.Name != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, f.Name, want[i])
		}
	}
}

func TestWriteCBZVolumeSubfolders(t *testing.T) {
	pages := []Page{
		testPage(1, "Ch.1"),
		testPage(2, "Ch.1"),
		testPage(3, "Ch.2: Finale?"),
	}
	outputName := filepath.Join(t.TempDir(), "volume.cbz")

	if err := WriteCBZ(pages, 85, outputName); err != nil {
		t.Fatalf("WriteCBZ failed: %s", err)
	}

	reader, err := zip.OpenReader(outputName)
	if err != nil {
		t.Fatalf("failed to open produced archive: %s", err)
	}
	defer reader.Close()

	want := []string{
		"Ch.1/page_001.jpg",
		"Ch.1/page_002.jpg",
		// Chapter label is sanitized and page numbering restarts.
		"Ch.2_ Finale_/page_001.jpg",
	}
	if len(reader.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(reader.File))
	}
	for i, f := range reader.File {
		if f.Name != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, f.Name, want[i])
		}
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	pages := []Page{testPage(1, ""), testPage(2, "")}
	outputName := filepath.Join(t.TempDir(), "out.pdf")

	if err := WritePDF(pages, 85, outputName); err != nil {
		t.Fatalf("WritePDF failed: %s", err)
	}

	data, err := os.ReadFile(outputName)
	if err != nil {
		t.Fatalf("failed to read produced document: %s", err)
	}
	if len(data) < 8 || string(data[:5]) != "%PDF-" {
		t.Error("output does not look like a PDF document")
	}
}

func TestArtifactRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.cbz")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	artifact, err := NewArtifact(path, FormatCBZ)
	if err != nil {
		t.Fatalf("NewArtifact failed: %s", err)
	}
	if artifact.Size != 4 {
		t.Errorf("unexpected artifact size %d", artifact.Size)
	}

	if err := artifact.Remove(); err != nil {
		t.Fatalf("Remove failed: %s", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("artifact file should be gone")
	}

	// Second removal is a no-op.
	if err := artifact.Remove(); err != nil {
		t.Errorf("repeated Remove should not fail: %s", err)
	}
}

func TestFormatExt(t *testing.T) {
	// Call sites concatenate Ext directly onto file names, so the dot
	// must be part of it.
	if got := FormatPDF.Ext(); got != ".pdf" {
		t.Errorf("FormatPDF.Ext() = %q, want %q", got, ".pdf")
	}
	if got := FormatCBZ.Ext(); got != ".cbz" {
		t.Errorf("FormatCBZ.Ext() = %q, want %q", got, ".cbz")
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("rar"); err == nil {
		t.Error("unknown format should be rejected")
	}
	f, err := ParseFormat("pdf")
	if err != nil || f != FormatPDF {
		t.Errorf("ParseFormat(pdf) = %v, %v", f, err)
	}
}
