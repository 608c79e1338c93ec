package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/okatsune/desudl/cmd/cache"
	"github.com/okatsune/desudl/cmd/download"
)

func main() {
	cmd := &cli.Command{
		Name:    "desudl",
		Usage:   "helper program for downloading manga from desu.win",
		Version: "0.1.0",
		Commands: []*cli.Command{
			download.Cmd(),
			cache.Cmd(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
