package search

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{ called bool }

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.called = true
	return []float32{1, 0, 0}, nil
}

type stubRepo struct {
	chunks       []ChunkMatch
	books        []BookMatch
	bookTexts    map[string]string
	lastTopN     int
	textRequests int
}

func (r *stubRepo) QuerySimilarChunks(ctx context.Context, vector []float32, topN int) ([]ChunkMatch, error) {
	r.lastTopN = topN
	if topN < len(r.chunks) {
		return r.chunks[:topN], nil
	}
	return r.chunks, nil
}

func (r *stubRepo) QuerySimilarBooks(ctx context.Context, vector []float32, topN int) ([]BookMatch, error) {
	r.lastTopN = topN
	if topN < len(r.books) {
		return r.books[:topN], nil
	}
	return r.books, nil
}

func (r *stubRepo) GetBookText(ctx context.Context, title string) (string, error) {
	r.textRequests++
	text, ok := r.bookTexts[title]
	if !ok {
		return "", ErrBookNotFound
	}
	return text, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchChunkModePreservesStoreOrder(t *testing.T) {
	repo := &stubRepo{
		chunks: []ChunkMatch{
			{BookTitle: "moby-dick.txt", ChunkText: "Call me Ishmael.", Distance: 0.12},
			{BookTitle: "dracula.txt", ChunkText: "Listen to them", Distance: 0.31},
		},
	}
	embedder := &stubEmbedder{}
	svc := NewService(repo, embedder, 0, testLogger())

	results, err := svc.Search(context.Background(), Params{Query: "whale", Mode: ModeChunk})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, embedder.called)
	assert.Equal(t, DefaultTopN, repo.lastTopN)
	assert.Equal(t, "moby-dick.txt", results[0].Title)
	assert.Equal(t, "Call me Ishmael.", results[0].Text)
	assert.InDelta(t, 0.12, results[0].Distance, 1e-9)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestSearchBookModeUsesSentinelText(t *testing.T) {
	repo := &stubRepo{
		books: []BookMatch{
			{Title: "moby-dick.txt", Distance: 0.2},
			{Title: "dracula.txt", Distance: 0.4},
		},
	}
	svc := NewService(repo, &stubEmbedder{}, 0, testLogger())

	results, err := svc.Search(context.Background(), Params{Query: "whale", TopN: 2, Mode: ModeBook})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, "N/A", r.Text, "book mode never returns chunk text")
	}
}

func TestSearchContextModeExpandsAroundOffset(t *testing.T) {
	fullText := strings.Repeat("x", 100) + "THE MATCH" + strings.Repeat("y", 100)
	repo := &stubRepo{
		chunks: []ChunkMatch{
			{BookTitle: "book.txt", ChunkText: "THE MATCH", Distance: 0.1, BeginOffset: 100},
		},
		bookTexts: map[string]string{"book.txt": fullText},
	}
	svc := NewService(repo, &stubEmbedder{}, 20, testLogger())

	results, err := svc.Search(context.Background(), Params{Query: "match", TopN: 1, Mode: ModeChunkWithContext})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// ±20 characters around offset 100.
	assert.Equal(t, fullText[80:120], results[0].Text)
}

func TestSearchContextModeClampsWindow(t *testing.T) {
	repo := &stubRepo{
		chunks: []ChunkMatch{
			{BookTitle: "book.txt", ChunkText: "start", Distance: 0.1, BeginOffset: 0},
			{BookTitle: "book.txt", ChunkText: "end", Distance: 0.2, BeginOffset: 28},
		},
		bookTexts: map[string]string{"book.txt": "abcdefghijklmnopqrstuvwxyz0123"},
	}
	svc := NewService(repo, &stubEmbedder{}, 10, testLogger())

	results, err := svc.Search(context.Background(), Params{Query: "q", TopN: 2, Mode: ModeChunkWithContext})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Offset 0: window clamps to [0, 10], never a negative start.
	assert.Equal(t, "abcdefghij", results[0].Text)
	// Offset near the end: window clamps to the text length.
	assert.Equal(t, "stuvwxyz0123", results[1].Text)
}

func TestSearchContextModeFetchesEachBookOnce(t *testing.T) {
	repo := &stubRepo{
		chunks: []ChunkMatch{
			{BookTitle: "book.txt", Distance: 0.1, BeginOffset: 0},
			{BookTitle: "book.txt", Distance: 0.2, BeginOffset: 5},
			{BookTitle: "book.txt", Distance: 0.3, BeginOffset: 10},
		},
		bookTexts: map[string]string{"book.txt": strings.Repeat("z", 40)},
	}
	svc := NewService(repo, &stubEmbedder{}, 10, testLogger())

	_, err := svc.Search(context.Background(), Params{Query: "q", TopN: 3, Mode: ModeChunkWithContext})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.textRequests)
}

func TestSearchContextModeUnknownBook(t *testing.T) {
	repo := &stubRepo{
		chunks:    []ChunkMatch{{BookTitle: "ghost.txt", Distance: 0.1, BeginOffset: 0}},
		bookTexts: map[string]string{},
	}
	svc := NewService(repo, &stubEmbedder{}, 0, testLogger())

	_, err := svc.Search(context.Background(), Params{Query: "q", Mode: ModeChunkWithContext})
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestSearchValidation(t *testing.T) {
	svc := NewService(&stubRepo{}, &stubEmbedder{}, 0, testLogger())

	_, err := svc.Search(context.Background(), Params{Query: ""})
	require.Error(t, err)

	_, err = svc.Search(context.Background(), Params{Query: "q", Mode: Mode("bogus")})
	require.Error(t, err)
}
