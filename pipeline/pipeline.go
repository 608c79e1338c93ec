package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/okatsune/desudl/bundle"
	"github.com/okatsune/desudl/catalog"
	"github.com/okatsune/desudl/common"
	"github.com/okatsune/desudl/database"
	"github.com/okatsune/desudl/network"
	"github.com/okatsune/desudl/progress"
	"github.com/okatsune/desudl/transform"
)

// ErrNoArtifact is returned when every page of a job failed to download
// and no archive could be produced.
var ErrNoArtifact = errors.New("no pages could be fetched")

// Pipeline turns a list of remote page images into a single archive file
// in scratch storage. Pages are fetched sequentially so the archive keeps
// canonical reading order, individual page failures are skipped and
// reported in bulk afterwards.
type Pipeline struct {
	fetcher    *network.Fetcher
	store      *database.Store
	scratchDir string
}

type Options struct {
	Fetcher *network.Fetcher
	// Store receives error log records. Optional, a nil store still gets
	// failures written to the log output.
	Store *database.Store
	// ScratchDir is where produced archives land. Empty means the system
	// temp directory.
	ScratchDir string
}

func New(options Options) *Pipeline {
	fetcher := options.Fetcher
	if fetcher == nil {
		fetcher = network.NewFetcher(network.Options{})
	}

	return &Pipeline{
		fetcher:    fetcher,
		store:      options.Store,
		scratchDir: options.ScratchDir,
	}
}

// Job describes one archive to produce.
type Job struct {
	MangaID int64
	// Label is the human readable name of the unit, it becomes the base
	// of the scratch file name and shows up in error log context.
	Label string
	Pages []catalog.Page

	Format bundle.Format
	// Compress switches the transform stage to the smaller dimension cap
	// and the lower JPEG quality.
	Compress bool
	// MaxDimension and JPEGQuality override the profile picked by Compress
	// when positive.
	MaxDimension int
	JPEGQuality  int

	Sink progress.Sink
}

// ProduceChapterArchive builds the archive of a single chapter.
func (p *Pipeline) ProduceChapterArchive(ctx context.Context, job Job) (*bundle.Artifact, error) {
	return p.produce(ctx, job, 3)
}

// ProduceVolumeArchive builds one archive spanning every chapter of a
// volume. Pages are expected to carry chapter labels so the archive can be
// partitioned per chapter.
func (p *Pipeline) ProduceVolumeArchive(ctx context.Context, job Job) (*bundle.Artifact, error) {
	return p.produce(ctx, job, 5)
}

// produce fetches every page of the job, transforms them and writes one
// archive. Pages that fail to download are dropped, the failure count is
// logged once. When not a single page survives no archive is written and
// ErrNoArtifact is returned. Progress is emitted every `progressEvery`
// pages, the sink decides how much of that reaches the user.
func (p *Pipeline) produce(ctx context.Context, job Job, progressEvery int) (*bundle.Artifact, error) {
	sink := job.Sink
	if sink == nil {
		sink = progress.Discard
	}

	maxDimension := transform.DeliveryMaxDimension
	quality := transform.NormalJPEGQuality
	if job.Compress {
		maxDimension = transform.CompressMaxDimension
		quality = transform.CompressJPEGQuality
	}
	maxDimension = common.GetIntOr(job.MaxDimension, maxDimension)
	quality = common.GetIntOr(job.JPEGQuality, quality)

	total := len(job.Pages)
	pages := make([]bundle.Page, 0, total)
	failedCnt := 0

	for i, page := range job.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if i%progressEvery == 0 {
			sink.Update(i, total, fmt.Sprintf("fetching page %d/%d", i+1, total))
		}

		img, err := p.fetcher.FetchImage(ctx, page.URL)
		if err != nil {
			log.Warnf("failed to fetch page %d of %s: %s", i+1, job.Label, err)
			failedCnt++
			continue
		}

		pages = append(pages, bundle.Page{
			Image:   transform.ResizeToFit(img, maxDimension),
			Chapter: page.ChapterLabel,
		})
	}

	if failedCnt > 0 {
		p.logError("archive_download",
			fmt.Sprintf("%d of %d pages failed to download", failedCnt, total),
			fmt.Sprintf("manga=%d unit=%s", job.MangaID, job.Label))
	}

	if len(pages) == 0 {
		p.logError("archive_create", "no pages fetched, archive not created",
			fmt.Sprintf("manga=%d unit=%s", job.MangaID, job.Label))
		return nil, ErrNoArtifact
	}

	sink.Update(total, total, "writing archive")

	outputName, err := p.scratchFile(job.Label, job.Format)
	if err != nil {
		return nil, err
	}

	if err := bundle.Write(pages, job.Format, quality, outputName); err != nil {
		os.Remove(outputName)
		p.logError("archive_create", err.Error(),
			fmt.Sprintf("manga=%d unit=%s", job.MangaID, job.Label))
		return nil, fmt.Errorf("failed to write archive: %s", err)
	}

	return bundle.NewArtifact(outputName, job.Format)
}

// scratchFile reserves a uniquely named output path in the scratch
// directory.
func (p *Pipeline) scratchFile(label string, format bundle.Format) (string, error) {
	pattern := common.SanitizeName(label) + "-*" + format.Ext()

	file, err := os.CreateTemp(p.scratchDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %s", err)
	}
	name := file.Name()
	file.Close()

	return name, nil
}

func (p *Pipeline) logError(kind, message, context string) {
	if p.store != nil {
		p.store.LogError(kind, message, context)
		return
	}

	log.Errorf("%s: %s (context: %s)", kind, message, context)
}
