// Package commands contains the CLI actions. The core performs destructive
// operations unconditionally; the "are you sure" gate lives here.
package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rsinema/ebook-search/internal/core/ingestion"
	"github.com/rsinema/ebook-search/internal/core/search"
	"github.com/rsinema/ebook-search/internal/infra/openai"
	"github.com/rsinema/ebook-search/internal/infra/postgres"
	"github.com/rsinema/ebook-search/pkg/config"
	"github.com/rsinema/ebook-search/pkg/db"
)

// AppContext bundles the shared resources a command needs. The database pool
// and store are always constructed; the embedder and the services built on it
// are only constructed by InitServices, so maintenance commands work without
// an API key.
type AppContext struct {
	Config *config.Config
	DB     *db.DB
	Store  *postgres.Store

	Ingest *ingestion.Service
	Search *search.Service
}

// NewAppContext loads configuration and connects to the database.
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	database, err := db.New(ctx, db.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	store := postgres.NewStore(database.Pool, cfg.OpenAI.EmbeddingDimension, slog.Default())

	return &AppContext{
		Config: cfg,
		DB:     database,
		Store:  store,
	}, nil
}

// InitServices constructs the embedder and the ingest/search services. A
// missing API key fails here, at startup of the command, never mid-pipeline.
func (a *AppContext) InitServices() error {
	embedder, err := openai.NewEmbedder(a.Config.OpenAI.APIKey,
		openai.WithEmbeddingModel(a.Config.OpenAI.EmbeddingModel),
		openai.WithEmbeddingDimension(a.Config.OpenAI.EmbeddingDimension),
	)
	if err != nil {
		return err
	}

	a.Ingest = ingestion.NewService(a.Store, embedder, a.Config.Chunking.Length, a.Config.Chunking.Overlap, slog.Default())
	a.Search = search.NewService(a.Store, embedder, a.Config.Chunking.Length, slog.Default())
	return nil
}

// Close releases the database pool.
func (a *AppContext) Close() {
	a.DB.Close()
}

// confirm asks the user for an explicit y before a destructive operation.
func confirm(prompt string) bool {
	fmt.Printf("%s This action cannot be undone. (y/n): ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
