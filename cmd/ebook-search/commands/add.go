package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rsinema/ebook-search/internal/infra/textconv"
)

// AddAction ingests a single .txt or .pdf document.
func AddAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: add <file>")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.InitServices(); err != nil {
		return err
	}

	return ingestFile(ctx, appCtx, path)
}

// AddDirAction ingests every .txt and .pdf file in a directory.
func AddDirAction(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("usage: add-dir <directory>")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.InitServices(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".pdf":
			if err := ingestFile(ctx, appCtx, path); err != nil {
				return err
			}
		default:
			slog.Debug("skipping unsupported file", "path", path)
		}
	}

	return nil
}

// ingestFile loads a document's plain text and runs the ingest pipeline.
// PDFs are converted to text first; EPUB conversion is an upstream concern.
func ingestFile(ctx context.Context, appCtx *AppContext, path string) error {
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		extracted, err := textconv.ExtractPDF(path)
		if err != nil {
			return err
		}
		text = extracted
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", path, err)
		}
		text = string(data)
	default:
		return fmt.Errorf("unsupported file type: %s", path)
	}

	title := filepath.Base(path)
	count, err := appCtx.Ingest.Ingest(ctx, title, text)
	if err != nil {
		return err
	}

	fmt.Printf("Added %s to the database (%d chunks).\n", title, count)
	return nil
}
