package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// InitAction creates the tables and the vector extension.
func InitAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Store.InitSchema(ctx); err != nil {
		return err
	}

	slog.Info("schema initialized")
	return nil
}

// DropAction removes both tables after confirmation.
func DropAction(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") && !confirm("Are you sure you want to drop the tables?") {
		fmt.Println("Drop table action aborted.")
		return nil
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Store.DropSchema(ctx); err != nil {
		return err
	}

	slog.Info("schema dropped")
	return nil
}

// IndexAction builds the HNSW index over the embedding column.
func IndexAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Store.BuildIndex(ctx); err != nil {
		return err
	}

	slog.Info("embedding index created")
	return nil
}

// ReindexAction drops and recreates the HNSW index.
func ReindexAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Store.RebuildIndex(ctx); err != nil {
		return err
	}

	slog.Info("embedding index rebuilt")
	return nil
}

// ClearAction deletes every book and chunk after confirmation.
func ClearAction(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") && !confirm("Are you sure you want to clear the database?") {
		fmt.Println("Clear database action aborted.")
		return nil
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Store.ClearAll(ctx); err != nil {
		return err
	}

	slog.Info("database cleared")
	return nil
}

// SizeAction prints the storage footprint of the corpus.
func SizeAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	size, err := appCtx.Store.Size(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Database size: %s\n", size)
	return nil
}
