package postgres

// SQL statements for the two-table layout: books holds each document's full
// text keyed by unique title; book_embeddings holds one row per chunk with
// its embedding, sequence number, and begin offset into the book text.
const (
	createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS vector`

	createBooksTableSQL = `
		CREATE TABLE IF NOT EXISTS books (
			id SERIAL PRIMARY KEY,
			title TEXT UNIQUE,
			text TEXT
		)`

	// The embedding column dimension is substituted at schema init from the
	// configured embedding length.
	createChunksTableSQL = `
		CREATE TABLE IF NOT EXISTS book_embeddings (
			id SERIAL PRIMARY KEY,
			book_title TEXT REFERENCES books(title),
			chunk_text TEXT,
			chunk_number INTEGER,
			begin_offset INTEGER,
			embedding vector(%d)
		)`

	dropChunksTableSQL = `DROP TABLE IF EXISTS book_embeddings`
	dropBooksTableSQL  = `DROP TABLE IF EXISTS books`

	createIndexSQL = `
		CREATE INDEX IF NOT EXISTS embedding_idx ON book_embeddings
		USING hnsw (embedding vector_cosine_ops)
		WITH (m = 16, ef_construction = 64)`

	dropIndexSQL = `DROP INDEX IF EXISTS embedding_idx`

	insertBookSQL = `
		INSERT INTO books (title, text)
		VALUES ($1, $2)
		ON CONFLICT (title) DO NOTHING`

	getBookTextSQL = `SELECT text FROM books WHERE title = $1`

	querySimilarChunksSQL = `
		SELECT book_title, chunk_text, embedding <=> $1 AS distance, begin_offset
		FROM book_embeddings
		ORDER BY distance
		LIMIT $2`

	// Book-level similarity ranks by distance to the live mean of each
	// book's chunk embeddings; nothing per-book is stored or cached.
	querySimilarBooksSQL = `
		SELECT book_title, avg(embedding) <=> $1 AS distance
		FROM book_embeddings
		GROUP BY book_title
		ORDER BY distance
		LIMIT $2`

	clearChunksSQL = `DELETE FROM book_embeddings`
	clearBooksSQL  = `DELETE FROM books`

	databaseSizeSQL = `SELECT pg_size_pretty(pg_database_size(current_database()))`
)
