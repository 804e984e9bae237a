package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rsinema/ebook-search/internal/core/search"
)

// QueryAction runs a similarity search and prints the ranked results.
func QueryAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: query <text>")
	}

	mode := search.ModeChunk
	if cmd.Bool("books") {
		mode = search.ModeBook
	} else if cmd.Bool("extended") {
		mode = search.ModeChunkWithContext
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.InitServices(); err != nil {
		return err
	}

	results, err := appCtx.Search.Search(ctx, search.Params{
		Query: query,
		TopN:  cmd.Int("num-results"),
		Mode:  mode,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Found %d results:\n", len(results))
	for _, r := range results {
		if mode == search.ModeBook {
			fmt.Printf("Document: %s\nDistance: %f\n\n", r.Title, r.Distance)
		} else {
			fmt.Printf("Document: %s Distance: %f\nContent: %s\n\n", r.Title, r.Distance, r.Text)
		}
	}

	return nil
}
