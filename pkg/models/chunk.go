package models

// ChunkRecord is one embedded slice of a book's text, ready for persistence.
// The field order matches ChunkColumns so that bulk insertion can serialize
// records without any runtime column-name matching.
type ChunkRecord struct {
	BookTitle   string
	ChunkText   string
	ChunkNumber int32
	BeginOffset int32
	Embedding   []float32
}

// ChunkColumns is the fixed column order used for bulk-inserting chunk
// records into the book_embeddings table.
var ChunkColumns = []string{"book_title", "chunk_text", "chunk_number", "begin_offset", "embedding"}
