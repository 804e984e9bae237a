// Package postgres implements the vector store over PostgreSQL with the
// pgvector extension: books and chunk embeddings live in two tables, chunk
// similarity uses the cosine distance operator, and an HNSW index accelerates
// nearest-neighbor queries.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/rsinema/ebook-search/internal/core/ingestion"
	"github.com/rsinema/ebook-search/internal/core/search"
	"github.com/rsinema/ebook-search/pkg/models"
)

// Store owns persistence of books and chunk embeddings.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
	logger    *slog.Logger
}

// NewStore creates a Store. dimension is the embedding column width used by
// InitSchema; it must match the embedder's configured dimension.
func NewStore(pool *pgxpool.Pool, dimension int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		pool:      pool,
		dimension: dimension,
		logger:    logger,
	}
}

var (
	_ ingestion.Repository = (*Store)(nil)
	_ search.Repository    = (*Store)(nil)
)

// transact runs fn inside a single transaction scoped to this call. On any
// error the transaction is rolled back and the error returned with the
// operation name attached.
func (s *Store) transact(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%s: tx rollback failed: %v (original err: %w)", op, rbErr, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// InitSchema idempotently creates the vector extension and both tables.
// Calling it on an initialized store is a no-op.
func (s *Store) InitSchema(ctx context.Context) error {
	err := s.transact(ctx, "init schema", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createExtensionSQL); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
		if _, err := tx.Exec(ctx, createBooksTableSQL); err != nil {
			return fmt.Errorf("failed to create books table: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(createChunksTableSQL, s.dimension)); err != nil {
			return fmt.Errorf("failed to create book_embeddings table: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Connections opened before the extension existed never registered the
	// vector codec; recycle them so every connection can encode embeddings.
	s.pool.Reset()
	return nil
}

// DropSchema idempotently removes both tables. Destructive; the caller is
// responsible for confirming intent before invoking it.
func (s *Store) DropSchema(ctx context.Context) error {
	return s.transact(ctx, "drop schema", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, dropChunksTableSQL); err != nil {
			return fmt.Errorf("failed to drop book_embeddings table: %w", err)
		}
		if _, err := tx.Exec(ctx, dropBooksTableSQL); err != nil {
			return fmt.Errorf("failed to drop books table: %w", err)
		}
		return nil
	})
}

// BuildIndex idempotently creates the HNSW index over the embedding column.
func (s *Store) BuildIndex(ctx context.Context) error {
	return s.transact(ctx, "build index", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createIndexSQL); err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
		return nil
	})
}

// DropIndex idempotently removes the HNSW index. Queries keep working after
// a drop, degrading to an exact scan.
func (s *Store) DropIndex(ctx context.Context) error {
	return s.transact(ctx, "drop index", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, dropIndexSQL); err != nil {
			return fmt.Errorf("failed to drop embedding index: %w", err)
		}
		return nil
	})
}

// RebuildIndex drops and recreates the index in one transaction, so
// concurrent queries never observe a failed store; at worst they fall back
// to an exact scan while the new index builds.
func (s *Store) RebuildIndex(ctx context.Context) error {
	return s.transact(ctx, "rebuild index", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, dropIndexSQL); err != nil {
			return fmt.Errorf("failed to drop embedding index: %w", err)
		}
		if _, err := tx.Exec(ctx, createIndexSQL); err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
		return nil
	})
}

// InsertBook inserts a book keyed by title. An existing title is left
// untouched: no overwrite, no error.
func (s *Store) InsertBook(ctx context.Context, title, text string) error {
	return s.transact(ctx, "insert book", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertBookSQL, title, text); err != nil {
			return fmt.Errorf("failed to insert book %q: %w", title, err)
		}
		return nil
	})
}

// BulkInsertChunks copies all records into book_embeddings in one
// transaction. The batch is all-or-nothing: any row failure rolls back the
// whole call.
func (s *Store) BulkInsertChunks(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			rec.BookTitle,
			rec.ChunkText,
			rec.ChunkNumber,
			rec.BeginOffset,
			pgvector.NewVector(rec.Embedding),
		})
	}

	return s.transact(ctx, "bulk insert chunks", func(tx pgx.Tx) error {
		copied, err := tx.CopyFrom(ctx, pgx.Identifier{"book_embeddings"}, models.ChunkColumns, pgx.CopyFromRows(rows))
		if err != nil {
			first := records[0]
			return fmt.Errorf("copy failed (types: book_title=%T chunk_text=%T chunk_number=%T begin_offset=%T embedding=%T): %w",
				first.BookTitle, first.ChunkText, first.ChunkNumber, first.BeginOffset, first.Embedding, err)
		}
		if copied != int64(len(records)) {
			return fmt.Errorf("copied %d of %d chunk rows", copied, len(records))
		}
		return nil
	})
}

// QuerySimilarChunks returns up to topN chunks ordered ascending by cosine
// distance to vector. Ties fall wherever the index iteration puts them.
func (s *Store) QuerySimilarChunks(ctx context.Context, vector []float32, topN int) ([]search.ChunkMatch, error) {
	rows, err := s.pool.Query(ctx, querySimilarChunksSQL, pgvector.NewVector(vector), topN)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]search.ChunkMatch, 0, topN)
	for rows.Next() {
		var m search.ChunkMatch
		var beginOffset int32
		if err := rows.Scan(&m.BookTitle, &m.ChunkText, &m.Distance, &beginOffset); err != nil {
			return nil, fmt.Errorf("query similar chunks: failed to scan row: %w", err)
		}
		m.BeginOffset = int(beginOffset)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}

	return matches, nil
}

// QuerySimilarBooks returns up to topN books ordered ascending by cosine
// distance between vector and the mean of each book's chunk embeddings. The
// mean is computed live, so it always reflects the current chunk rows.
func (s *Store) QuerySimilarBooks(ctx context.Context, vector []float32, topN int) ([]search.BookMatch, error) {
	rows, err := s.pool.Query(ctx, querySimilarBooksSQL, pgvector.NewVector(vector), topN)
	if err != nil {
		return nil, fmt.Errorf("query similar books: %w", err)
	}
	defer rows.Close()

	matches := make([]search.BookMatch, 0, topN)
	for rows.Next() {
		var m search.BookMatch
		if err := rows.Scan(&m.Title, &m.Distance); err != nil {
			return nil, fmt.Errorf("query similar books: failed to scan row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query similar books: %w", err)
	}

	return matches, nil
}

// GetBookText returns the full stored text for a book.
func (s *Store) GetBookText(ctx context.Context, title string) (string, error) {
	var text string
	err := s.pool.QueryRow(ctx, getBookTextSQL, title).Scan(&text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", search.ErrBookNotFound, title)
		}
		return "", fmt.Errorf("failed to get book text for %q: %w", title, err)
	}
	return text, nil
}

// ClearAll removes the index and every book and chunk row, in one
// transaction. Destructive; confirmation is the caller's responsibility.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.transact(ctx, "clear all", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, dropIndexSQL); err != nil {
			return fmt.Errorf("failed to drop embedding index: %w", err)
		}
		if _, err := tx.Exec(ctx, clearChunksSQL); err != nil {
			return fmt.Errorf("failed to clear book_embeddings: %w", err)
		}
		if _, err := tx.Exec(ctx, clearBooksSQL); err != nil {
			return fmt.Errorf("failed to clear books: %w", err)
		}
		return nil
	})
}

// Size returns a human-readable footprint of the whole database, as reported
// by the server.
func (s *Store) Size(ctx context.Context) (string, error) {
	var size string
	if err := s.pool.QueryRow(ctx, databaseSizeSQL).Scan(&size); err != nil {
		return "", fmt.Errorf("failed to query database size: %w", err)
	}
	return size, nil
}
