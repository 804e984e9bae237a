// Package search embeds query text and retrieves the nearest chunks or books
// from the vector store, optionally expanding matches with surrounding text.
package search

import (
	"context"
	"fmt"
	"log/slog"
)

// Embedder generates the embedding for a query string.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Repository is the vector store surface the retriever depends on.
type Repository interface {
	// QuerySimilarChunks returns up to topN chunks ordered ascending by
	// cosine distance to vector.
	QuerySimilarChunks(ctx context.Context, vector []float32, topN int) ([]ChunkMatch, error)

	// QuerySimilarBooks returns up to topN books ordered ascending by cosine
	// distance between vector and the mean of each book's chunk embeddings.
	QuerySimilarBooks(ctx context.Context, vector []float32, topN int) ([]BookMatch, error)

	// GetBookText returns a book's full original text, or ErrBookNotFound.
	GetBookText(ctx context.Context, title string) (string, error)
}

// DefaultTopN is the result count used when the caller passes 0.
const DefaultTopN = 5

// Service runs similarity searches.
type Service struct {
	repo          Repository
	embedder      Embedder
	contextWindow int
	logger        *slog.Logger
}

// NewService creates a search service. contextWindow is the number of
// characters taken on each side of a match in ModeChunkWithContext; 0 selects
// the ingestion chunk length so a context window spans roughly three chunks.
func NewService(repo Repository, embedder Embedder, contextWindow int, logger *slog.Logger) *Service {
	if contextWindow <= 0 {
		contextWindow = 500
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:          repo,
		embedder:      embedder,
		contextWindow: contextWindow,
		logger:        logger,
	}
}

// Params are the search parameters.
type Params struct {
	Query string
	TopN  int
	Mode  Mode
}

// Search embeds the query and returns results in exactly the distance order
// the vector store produced; no re-ranking happens here.
func (s *Service) Search(ctx context.Context, params Params) ([]Result, error) {
	if params.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	topN := params.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	vector, err := s.embedder.Embed(ctx, params.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	switch params.Mode {
	case ModeBook:
		return s.searchBooks(ctx, vector, topN)
	case ModeChunkWithContext:
		return s.searchChunksWithContext(ctx, vector, topN)
	case ModeChunk, "":
		return s.searchChunks(ctx, vector, topN)
	default:
		return nil, fmt.Errorf("unknown search mode: %q", params.Mode)
	}
}

func (s *Service) searchChunks(ctx context.Context, vector []float32, topN int) ([]Result, error) {
	matches, err := s.repo.QuerySimilarChunks(ctx, vector, topN)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Title:    m.BookTitle,
			Text:     m.ChunkText,
			Distance: m.Distance,
		})
	}
	return results, nil
}

func (s *Service) searchBooks(ctx context.Context, vector []float32, topN int) ([]Result, error) {
	matches, err := s.repo.QuerySimilarBooks(ctx, vector, topN)
	if err != nil {
		return nil, fmt.Errorf("book search failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Title:    m.Title,
			Text:     notApplicable,
			Distance: m.Distance,
		})
	}
	return results, nil
}

func (s *Service) searchChunksWithContext(ctx context.Context, vector []float32, topN int) ([]Result, error) {
	matches, err := s.repo.QuerySimilarChunks(ctx, vector, topN)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	// Several matches often come from the same book; fetch each full text once.
	texts := make(map[string][]rune, len(matches))

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		runes, ok := texts[m.BookTitle]
		if !ok {
			text, err := s.repo.GetBookText(ctx, m.BookTitle)
			if err != nil {
				return nil, fmt.Errorf("failed to load context for %q: %w", m.BookTitle, err)
			}
			runes = []rune(text)
			texts[m.BookTitle] = runes
		}

		results = append(results, Result{
			Title:    m.BookTitle,
			Text:     string(clampWindow(runes, m.BeginOffset, s.contextWindow)),
			Distance: m.Distance,
		})
	}
	return results, nil
}

// clampWindow returns the slice of text covering offset±window, clamped to
// the text bounds.
func clampWindow(text []rune, offset, window int) []rune {
	start := offset - window
	if start < 0 {
		start = 0
	}
	end := offset + window
	if end > len(text) {
		end = len(text)
	}
	if start > len(text) {
		start = len(text)
	}
	return text[start:end]
}
