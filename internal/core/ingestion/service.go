// Package ingestion drives the chunk -> embed -> store pipeline that turns a
// raw document into one book record and its chunk embeddings.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rsinema/ebook-search/internal/core/chunk"
	"github.com/rsinema/ebook-search/pkg/models"
)

// Embedder generates fixed-dimension embeddings for batches of text.
// Implementations hold the model handle; constructing one is expensive and
// happens once at startup.
type Embedder interface {
	// BatchEmbed returns one vector per input text, order preserved.
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the configured vector dimensionality.
	Dimension() int

	// MaxBatchSize returns the largest batch a single BatchEmbed call accepts.
	MaxBatchSize() int
}

// Repository persists books and their chunk embeddings.
type Repository interface {
	// InsertBook inserts a book keyed by title. Inserting an existing title
	// is a no-op, not an error.
	InsertBook(ctx context.Context, title, text string) error

	// BulkInsertChunks inserts all records in one atomic batch.
	BulkInsertChunks(ctx context.Context, records []models.ChunkRecord) error
}

const (
	// DefaultChunkLength is the chunk size in characters.
	DefaultChunkLength = 500
	// DefaultChunkOverlap is the number of characters shared by neighboring chunks.
	DefaultChunkOverlap = 50
)

// Service ingests documents.
type Service struct {
	repo         Repository
	embedder     Embedder
	chunkLength  int
	chunkOverlap int
	logger       *slog.Logger
}

// NewService creates an ingestion service. A chunkLength of 0 selects the
// defaults for both chunk parameters.
func NewService(repo Repository, embedder Embedder, chunkLength, chunkOverlap int, logger *slog.Logger) *Service {
	if chunkLength == 0 {
		chunkLength = DefaultChunkLength
		chunkOverlap = DefaultChunkOverlap
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:         repo,
		embedder:     embedder,
		chunkLength:  chunkLength,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// Ingest chunks the document text, embeds all chunks in batched calls,
// stores the book, and bulk-inserts the chunk records. It returns the number
// of chunk records inserted.
//
// Re-ingesting an existing title leaves the book row untouched but appends a
// second full set of chunks; callers that want idempotent re-ingest must
// clear first.
func (s *Service) Ingest(ctx context.Context, title, text string) (int, error) {
	if title == "" {
		return 0, fmt.Errorf("title is required")
	}

	chunks, err := chunk.Split(text, s.chunkLength, s.chunkOverlap)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks for %q: %w", title, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]models.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = models.ChunkRecord{
			BookTitle:   title,
			ChunkText:   c.Text,
			ChunkNumber: int32(i + 1),
			BeginOffset: int32(c.BeginOffset),
			Embedding:   vectors[i],
		}
	}

	if err := s.repo.InsertBook(ctx, title, text); err != nil {
		return 0, err
	}
	if err := s.repo.BulkInsertChunks(ctx, records); err != nil {
		return 0, err
	}

	s.logger.Info("document ingested", "title", title, "chunks", len(records))
	return len(records), nil
}

// embedAll embeds texts in MaxBatchSize batches so a long book never exceeds
// the adapter's per-call limit. Embedding per-chunk would pay the API round
// trip N times; batching is required, not optional.
func (s *Service) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchSize := s.embedder.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = 1
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.BatchEmbed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}
