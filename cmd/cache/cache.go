package cache

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/okatsune/desudl/database"
	"github.com/okatsune/desudl/database/data_model"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "cache database management utility",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to cache database file",
				Value: "desudl.db",
			},
		},
		Commands: []*cli.Command{
			subCmdList(),
			subCmdClear(),
			subCmdErrors(),
		},
	}
}

func openStore(cmd *cli.Command) (*database.Store, error) {
	return database.Open(cmd.String("db"))
}

func subCmdList() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list cached archive handles",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "manga",
				Usage: "only show entries of this manga id",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			query := store.DB()
			if mangaID := cmd.Int("manga"); mangaID > 0 {
				query = query.Where("manga_id = ?", mangaID)
			}

			entries := []data_model.FileCacheEntry{}
			if result := query.Find(&entries); result.Error != nil {
				return fmt.Errorf("failed to list cache entries: %s", result.Error)
			}

			if len(entries) == 0 {
				fmt.Println("cache is empty")
				return nil
			}

			for _, entry := range entries {
				fmt.Printf("%8d  %-12s  %-4s  %s\n",
					entry.MangaID, entry.SubUnit, entry.Format, entry.FileName)
			}

			return nil
		},
	}
}

func subCmdClear() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "drop cached handles so the next download starts fresh",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "manga",
				Usage:    "target manga id",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "chapter",
				Usage: "chapter id, also clears the album batches of this chapter",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			mangaID := cmd.Int("manga")
			chapterID := cmd.Int("chapter")

			query := store.DB().Where("manga_id = ?", mangaID)
			if chapterID > 0 {
				query = query.Where("sub_unit = ?", fmt.Sprintf("%d", chapterID))
			}
			if result := query.Delete(&data_model.FileCacheEntry{}); result.Error != nil {
				return fmt.Errorf("failed to clear cache entries: %s", result.Error)
			}

			if chapterID > 0 {
				if err := store.ClearAlbum(mangaID, chapterID); err != nil {
					return err
				}
			}

			fmt.Println("done")
			return nil
		},
	}
}

func subCmdErrors() *cli.Command {
	return &cli.Command{
		Name:  "errors",
		Usage: "show the newest records in the error log",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "record count to show",
				Value: 20,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.RecentErrors(int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("error log is empty")
				return nil
			}

			for _, entry := range entries {
				fmt.Printf("%s  [%s] %s (%s)\n",
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
					entry.Kind, entry.Message, entry.Context)
			}

			return nil
		},
	}
}
