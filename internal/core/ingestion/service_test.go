package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsinema/ebook-search/pkg/models"
)

type stubEmbedder struct {
	dimension    int
	maxBatchSize int
	batchSizes   []int
	failAfter    int // fail on the Nth BatchEmbed call (0 = never)
	calls        int
}

func (e *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.failAfter > 0 && e.calls >= e.failAfter {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	e.batchSizes = append(e.batchSizes, len(texts))
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, e.dimension)
	}
	return vectors, nil
}

func (e *stubEmbedder) Dimension() int    { return e.dimension }
func (e *stubEmbedder) MaxBatchSize() int { return e.maxBatchSize }

type stubRepo struct {
	books     map[string]string
	chunks    []models.ChunkRecord
	insertErr error
	bulkErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{books: make(map[string]string)}
}

func (r *stubRepo) InsertBook(ctx context.Context, title, text string) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	// Upsert-or-ignore: an existing title is left untouched.
	if _, ok := r.books[title]; !ok {
		r.books[title] = text
	}
	return nil
}

func (r *stubRepo) BulkInsertChunks(ctx context.Context, records []models.ChunkRecord) error {
	if r.bulkErr != nil {
		return r.bulkErr
	}
	r.chunks = append(r.chunks, records...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestProducesSequencedRecords(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{dimension: 4, maxBatchSize: 100}
	svc := NewService(repo, embedder, 10, 2, testLogger())

	text := strings.Repeat("lorem ipsum dolor sit amet ", 10)
	count, err := svc.Ingest(context.Background(), "lorem.txt", text)
	require.NoError(t, err)
	require.Equal(t, len(repo.chunks), count)
	require.NotEmpty(t, repo.chunks)

	assert.Equal(t, text, repo.books["lorem.txt"])
	for i, rec := range repo.chunks {
		assert.Equal(t, "lorem.txt", rec.BookTitle)
		assert.Equal(t, int32(i+1), rec.ChunkNumber, "sequence numbers are 1-based and contiguous")
		assert.Equal(t, int32(i*(10-2)), rec.BeginOffset)
		assert.Len(t, rec.Embedding, 4)
	}
}

func TestIngestBatchesEmbeddingCalls(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{dimension: 4, maxBatchSize: 3}
	svc := NewService(repo, embedder, 10, 0, testLogger())

	// 100 characters at stride 10 -> 10 chunks -> batches of 3,3,3,1.
	count, err := svc.Ingest(context.Background(), "batched.txt", strings.Repeat("a", 100))
	require.NoError(t, err)
	assert.Equal(t, 10, count)
	assert.Equal(t, []int{3, 3, 3, 1}, embedder.batchSizes)
}

func TestIngestReingestAppendsChunks(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{dimension: 4, maxBatchSize: 100}
	svc := NewService(repo, embedder, 10, 2, testLogger())

	text := strings.Repeat("b", 50)
	first, err := svc.Ingest(context.Background(), "dup.txt", text)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), "dup.txt", text)
	require.NoError(t, err)

	// The book row stays single, but the chunk rows double.
	assert.Equal(t, first, second)
	assert.Len(t, repo.books, 1)
	assert.Len(t, repo.chunks, first+second)
}

func TestIngestEmptyTextInsertsBookOnly(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{dimension: 4, maxBatchSize: 100}
	svc := NewService(repo, embedder, 0, 0, testLogger())

	count, err := svc.Ingest(context.Background(), "empty.txt", "")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Contains(t, repo.books, "empty.txt")
	assert.Empty(t, repo.chunks)
	assert.Zero(t, embedder.calls)
}

func TestIngestRejectsMissingTitle(t *testing.T) {
	svc := NewService(newStubRepo(), &stubEmbedder{dimension: 4, maxBatchSize: 100}, 0, 0, testLogger())

	_, err := svc.Ingest(context.Background(), "", "text")
	require.Error(t, err)
}

func TestIngestEmbeddingFailureWritesNothing(t *testing.T) {
	repo := newStubRepo()
	embedder := &stubEmbedder{dimension: 4, maxBatchSize: 2, failAfter: 2}
	svc := NewService(repo, embedder, 10, 0, testLogger())

	_, err := svc.Ingest(context.Background(), "fail.txt", strings.Repeat("c", 100))
	require.Error(t, err)

	// Embedding happens before any storage call; a mid-batch failure must
	// leave the repository untouched.
	assert.Empty(t, repo.books)
	assert.Empty(t, repo.chunks)
}
