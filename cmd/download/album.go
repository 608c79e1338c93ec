package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/okatsune/desudl/delivery"
	"github.com/okatsune/desudl/progress"
)

func subCmdAlbum() *cli.Command {
	return &cli.Command{
		Name:  "album",
		Usage: "save chapter pages as loose images in batches instead of an archive",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "manga",
				Usage:    "target manga id",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "chapter",
				Usage:    "target chapter id",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			options, err := getOptionsFromCmd(cmd)
			if err != nil {
				return err
			}

			env, err := setup(options)
			if err != nil {
				return err
			}
			defer env.close()

			pages, err := env.client.ChapterPages(ctx, options.mangaID, options.chapterID)
			if err != nil {
				return err
			}

			sender := &dirSender{dir: options.outputDir}
			album := delivery.NewAlbum(env.fetcher, env.store)

			err = album.Stream(ctx, pages, sender,
				options.mangaID, options.chapterID,
				progress.NewThrottled(progress.NewBar(), 0))
			if err != nil {
				return err
			}

			fmt.Printf("saved %d pages to %s\n", sender.pageCnt, options.outputDir)
			return nil
		},
	}
}

// dirSender satisfies delivery.AlbumSender by writing each image into a
// directory. Handles are the written file paths, replaying a cached
// batch just reports where the files already are.
type dirSender struct {
	dir     string
	pageCnt int
}

func (s *dirSender) SendBatch(ctx context.Context, images [][]byte) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %s", s.dir, err)
	}

	handles := make([]string, 0, len(images))
	for _, data := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.pageCnt++
		target := filepath.Join(s.dir, fmt.Sprintf("page_%03d.jpg", s.pageCnt))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %s", target, err)
		}

		handles = append(handles, target)
	}

	return handles, nil
}

func (s *dirSender) SendCached(_ context.Context, handles []string) error {
	for _, handle := range handles {
		fmt.Println("already saved:", handle)
	}
	return nil
}
