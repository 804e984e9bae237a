package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/rsinema/ebook-search/cmd/ebook-search/commands"
	"github.com/rsinema/ebook-search/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.New(logger.DefaultConfig())

	envFlag := func() *cli.StringFlag {
		return &cli.StringFlag{
			Name:  "env",
			Usage: "path to the .env file",
			Value: ".env",
		}
	}
	yesFlag := func() *cli.BoolFlag {
		return &cli.BoolFlag{
			Name:  "yes",
			Usage: "skip the confirmation prompt",
		}
	}

	app := &cli.Command{
		Name:  "ebook-search",
		Usage: "semantic vector search over a corpus of books",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "create the database tables and vector extension",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.InitAction,
			},
			{
				Name:   "drop",
				Usage:  "drop the database tables",
				Flags:  []cli.Flag{envFlag(), yesFlag()},
				Action: commands.DropAction,
			},
			{
				Name:   "index",
				Usage:  "create the nearest-neighbor index over the embeddings",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.IndexAction,
			},
			{
				Name:   "reindex",
				Usage:  "drop and recreate the nearest-neighbor index",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.ReindexAction,
			},
			{
				Name:   "clear",
				Usage:  "delete all books and embeddings",
				Flags:  []cli.Flag{envFlag(), yesFlag()},
				Action: commands.ClearAction,
			},
			{
				Name:      "add",
				Usage:     "ingest a .txt or .pdf document",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{envFlag()},
				Action:    commands.AddAction,
			},
			{
				Name:      "add-dir",
				Usage:     "ingest every .txt and .pdf document in a directory",
				ArgsUsage: "<directory>",
				Flags:     []cli.Flag{envFlag()},
				Action:    commands.AddDirAction,
			},
			{
				Name:      "query",
				Usage:     "search the corpus by semantic similarity",
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					envFlag(),
					&cli.BoolFlag{
						Name:  "books",
						Usage: "rank whole books instead of text chunks",
					},
					&cli.BoolFlag{
						Name:  "extended",
						Usage: "include surrounding text around each matched chunk",
					},
					&cli.IntFlag{
						Name:    "num-results",
						Aliases: []string{"n"},
						Usage:   "number of results to return",
						Value:   5,
					},
				},
				Action: commands.QueryAction,
			},
			{
				Name:   "size",
				Usage:  "print the storage footprint of the corpus",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.SizeAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
