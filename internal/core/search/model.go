package search

import "errors"

// ErrBookNotFound is returned when a title has no book row.
var ErrBookNotFound = errors.New("book not found")

// Mode selects the granularity of a similarity search.
type Mode string

const (
	// ModeChunk returns matching chunks with their stored text.
	ModeChunk Mode = "chunk"
	// ModeBook returns whole books ranked by the mean of their chunk embeddings.
	ModeBook Mode = "book"
	// ModeChunkWithContext returns matching chunks with a window of the
	// surrounding original text.
	ModeChunkWithContext Mode = "chunk_with_context"
)

// notApplicable is the text placeholder for book-level results, which never
// carry chunk text.
const notApplicable = "N/A"

// Result is one similarity match. Distance is cosine distance; lower means
// more similar.
type Result struct {
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// ChunkMatch is a raw chunk-level match from the vector store.
type ChunkMatch struct {
	BookTitle   string
	ChunkText   string
	Distance    float64
	BeginOffset int
}

// BookMatch is a raw book-level match from the vector store.
type BookMatch struct {
	Title    string
	Distance float64
}
