package download

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/okatsune/desudl/bundle"
	"github.com/okatsune/desudl/catalog"
	"github.com/okatsune/desudl/database"
	"github.com/okatsune/desudl/delivery"
	"github.com/okatsune/desudl/network"
	"github.com/okatsune/desudl/pipeline"
	"github.com/okatsune/desudl/progress"
)

const defaultAPIBase = "https://desu.win/manga/api"

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "download manga chapters and volumes as PDF or CBZ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api",
				Usage: "catalog API base URL",
				Value: defaultAPIBase,
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to cache database file",
				Value: "desudl.db",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "path to output directory",
				Value: "./",
			},
			&cli.IntFlag{
				Name:  "retry",
				Usage: "max retry count for each page",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "per-request timeout in seconds",
			},
		},
		Commands: []*cli.Command{
			subCmdSearch(),
			subCmdChapters(),
			subCmdChapter(),
			subCmdVolume(),
			subCmdAlbum(),
		},
	}
}

type options struct {
	apiBase   string
	dbPath    string
	outputDir string

	retryCnt int64
	timeout  time.Duration

	mangaID   int64
	chapterID int64
	volume    string
	userID    int64

	format    bundle.Format
	compress  bool
	maxSizeMB int64
	altDir    string
}

func getOptionsFromCmd(cmd *cli.Command) (options, error) {
	options := options{
		apiBase:   cmd.String("api"),
		dbPath:    cmd.String("db"),
		outputDir: cmd.String("output"),
		retryCnt:  cmd.Int("retry"),
		timeout:   time.Duration(cmd.Int("timeout")) * time.Second,

		mangaID:   cmd.Int("manga"),
		chapterID: cmd.Int("chapter"),
		volume:    cmd.String("volume"),
		userID:    cmd.Int("user"),

		compress:  cmd.Bool("compress"),
		maxSizeMB: cmd.Int("max-size"),
		altDir:    cmd.String("alt-output"),
	}

	if name := cmd.String("format"); name != "" {
		format, err := bundle.ParseFormat(name)
		if err != nil {
			return options, err
		}
		options.format = format
	}

	return options, nil
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     "manga",
			Usage:    "target manga id",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format, pdf or cbz",
			Value: "pdf",
		},
		&cli.BoolFlag{
			Name:  "compress",
			Usage: "start with the compressed transform instead of falling back to it",
		},
		&cli.IntFlag{
			Name:  "max-size",
			Usage: "primary channel size limit in MB",
		},
		&cli.StringFlag{
			Name:  "alt-output",
			Usage: "directory acting as the high capacity channel, empty disables it",
		},
		&cli.IntFlag{
			Name:  "user",
			Usage: "user id for reading history, 0 skips history",
		},
	}
}

// env bundles the collaborators every download action needs.
type env struct {
	client   *catalog.Client
	store    *database.Store
	fetcher  *network.Fetcher
	pipeline *pipeline.Pipeline
	router   *delivery.Router
}

func setup(options options) (*env, error) {
	store, err := database.Open(options.dbPath)
	if err != nil {
		return nil, err
	}

	fetcher := network.NewFetcher(network.Options{
		Timeout:  options.timeout,
		RetryCnt: int(options.retryCnt),
	})

	maxSize := delivery.PrimaryMaxSize
	if options.maxSizeMB > 0 {
		maxSize = options.maxSizeMB << 20
	}

	var alternate delivery.Channel
	if options.altDir != "" {
		alternate = delivery.NewLocalDir(options.altDir, delivery.AlternateMaxSize)
	}

	return &env{
		client:  catalog.NewClient(options.apiBase, options.timeout),
		store:   store,
		fetcher: fetcher,
		pipeline: pipeline.New(pipeline.Options{
			Fetcher: fetcher,
			Store:   store,
		}),
		router: delivery.NewRouter(
			delivery.NewLocalDir(options.outputDir, maxSize),
			alternate,
			store,
		),
	}, nil
}

func (e *env) close() {
	e.store.Close()
}

func subCmdSearch() *cli.Command {
	var keyword string

	return &cli.Command{
		Name:  "search",
		Usage: "search the catalog by keyword",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "keyword",
				UsageText:   "<keyword>",
				Destination: &keyword,
				Max:         1,
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "result page number",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client := catalog.NewClient(cmd.String("api"),
				time.Duration(cmd.Int("timeout"))*time.Second)

			list, err := client.SearchManga(ctx, keyword, int(cmd.Int("page")))
			if err != nil {
				return err
			}

			if len(list) == 0 {
				fmt.Println("nothing found")
				return nil
			}

			for _, entry := range list {
				fmt.Printf("%8d  %s", entry.ID, entry.Title)
				if len(entry.Genres) > 0 {
					fmt.Printf("  (%s)", strings.Join(entry.Genres, ", "))
				}
				fmt.Println()
			}

			return nil
		},
	}
}

func subCmdChapters() *cli.Command {
	return &cli.Command{
		Name:  "chapters",
		Usage: "list chapters and volumes of one manga",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "manga",
				Usage:    "target manga id",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "user",
				Usage: "user id, chapters already read by this user get marked",
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

			title, err := env.client.MangaTitle(ctx, options.mangaID)
			if err != nil {
				return err
			}

			chapters, err := env.client.Chapters(ctx, options.mangaID)
			if err != nil {
				return err
			}

			read := map[int64]bool{}
			if options.userID > 0 {
				for _, id := range env.store.ReadChapters(options.userID, options.mangaID) {
					read[id] = true
				}
			}

			fmt.Printf("%s, %d chapters\n", title, len(chapters))
			fmt.Println("volumes:", strings.Join(catalog.Volumes(chapters), ", "))
			for _, ch := range chapters {
				mark := " "
				if read[ch.ID] {
					mark = "*"
				}
				fmt.Printf("%s %8d  %s\n", mark, ch.ID, catalog.ChapterTitle(ch))
			}

			return nil
		},
	}
}

func subCmdChapter() *cli.Command {
	return &cli.Command{
		Name:  "chapter",
		Usage: "download one chapter as an archive",
		Flags: append(downloadFlags(), &cli.IntFlag{
			Name:     "chapter",
			Usage:    "target chapter id",
			Required: true,
		}),
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

			title, err := env.client.MangaTitle(ctx, options.mangaID)
			if err != nil {
				return err
			}

			chapters, err := env.client.Chapters(ctx, options.mangaID)
			if err != nil {
				return err
			}

			var target *catalog.Chapter
			for i := range chapters {
				if chapters[i].ID == options.chapterID {
					target = &chapters[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("manga %d has no chapter %d", options.mangaID, options.chapterID)
			}

			pages, err := env.client.ChapterPages(ctx, options.mangaID, options.chapterID)
			if err != nil {
				return err
			}

			displayName := fmt.Sprintf("%s %s", title, catalog.ChapterTitle(*target))
			subUnitID := fmt.Sprintf("%d", options.chapterID)

			err = deliverArchive(ctx, env, options, pages, displayName, subUnitID, false)
			if err != nil {
				return err
			}

			if options.userID > 0 {
				err := env.store.MarkChapterRead(
					options.userID, options.mangaID, target.ID, target.Number)
				if err != nil {
					log.Warnf("%s", err)
				}
			}

			return nil
		},
	}
}

func subCmdVolume() *cli.Command {
	return &cli.Command{
		Name:  "volume",
		Usage: "download all chapters of one volume as a single archive",
		Flags: append(downloadFlags(), &cli.StringFlag{
			Name:     "volume",
			Usage:    "target volume label, e.g. 3",
			Required: true,
		}),
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

			title, err := env.client.MangaTitle(ctx, options.mangaID)
			if err != nil {
				return err
			}

			chapters, err := env.client.Chapters(ctx, options.mangaID)
			if err != nil {
				return err
			}

			pages, err := env.client.VolumePages(ctx, options.mangaID, chapters, options.volume)
			if err != nil {
				return err
			}

			displayName := fmt.Sprintf("%s Vol.%s", title, options.volume)
			subUnitID := "vol:" + options.volume

			return deliverArchive(ctx, env, options, pages, displayName, subUnitID, true)
		},
	}
}

// deliverArchive runs the produce-and-route path shared by chapter and
// volume downloads.
func deliverArchive(
	ctx context.Context,
	env *env,
	options options,
	pages []catalog.Page,
	displayName string,
	subUnitID string,
	isVolume bool,
) error {
	sink := progress.NewThrottled(progress.NewBar(), 0)

	outcome, err := env.router.Deliver(ctx, delivery.Request{
		SubjectID:   options.mangaID,
		SubUnitID:   subUnitID,
		Format:      options.format,
		DisplayName: displayName,
		Sink:        sink,
		Produce: func(ctx context.Context, compress bool) (*bundle.Artifact, error) {
			job := pipeline.Job{
				MangaID:  options.mangaID,
				Label:    displayName,
				Pages:    pages,
				Format:   options.format,
				Compress: compress || options.compress,
				Sink:     sink,
			}

			if isVolume {
				return env.pipeline.ProduceVolumeArchive(ctx, job)
			}
			return env.pipeline.ProduceChapterArchive(ctx, job)
		},
	})
	if err != nil {
		if outcome.UserMessage != "" {
			fmt.Println(outcome.UserMessage)
		}
		return err
	}

	if outcome.FromCache {
		fmt.Println("already downloaded:", outcome.Handle)
	} else {
		fmt.Println("saved:", outcome.Handle)
	}

	return nil
}
