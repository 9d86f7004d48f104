package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docschat/internal/models"
	"docschat/internal/vectorstore"
)

// Store queries a pgvector-enabled Postgres holding the deepseek_pages
// schema from migrations/001_deepseek_pages.sql.
type Store struct {
	pool   *pgxpool.Pool
	source string
}

func NewStore(pool *pgxpool.Pool, source string) *Store {
	return &Store{pool: pool, source: source}
}

func (s *Store) Match(ctx context.Context, embedding []float32, count int) ([]models.Document, error) {
	query := `SELECT title, url, content, similarity
		FROM ` + vectorstore.MatchFunction + `($1, $2, $3::jsonb)`

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(embedding), count, sourceFilter(s.source))
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", vectorstore.MatchFunction, err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Title, &d.URL, &d.Content, &d.Similarity); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

func (s *Store) ListURLs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT url FROM ` + vectorstore.PagesTable + `
		WHERE metadata @> $1::jsonb
		ORDER BY url`

	rows, err := s.pool.Query(ctx, query, sourceFilter(s.source))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

func (s *Store) PageChunks(ctx context.Context, url string) ([]models.PageChunk, error) {
	query := `SELECT url, chunk_number, title, summary, content, metadata
		FROM ` + vectorstore.PagesTable + `
		WHERE url = $1
		ORDER BY chunk_number`

	rows, err := s.pool.Query(ctx, query, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.PageChunk
	for rows.Next() {
		var c models.PageChunk
		var metadata []byte
		if err := rows.Scan(&c.URL, &c.ChunkNumber, &c.Title, &c.Summary, &c.Content, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s#%d: %w", c.URL, c.ChunkNumber, err)
			}
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

func (s *Store) SaveChunk(ctx context.Context, chunk models.PageChunk, updateExisting bool) (vectorstore.SaveResult, error) {
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return vectorstore.Skipped, err
	}

	conflict := `DO NOTHING`
	if updateExisting {
		conflict = `DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`
	}

	query := `INSERT INTO ` + vectorstore.PagesTable + ` (url, chunk_number, title, summary, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url, chunk_number) ` + conflict + `
		RETURNING (xmax = 0)`

	var inserted bool
	err = s.pool.QueryRow(ctx, query,
		chunk.URL, chunk.ChunkNumber, chunk.Title, chunk.Summary, chunk.Content, metadata,
		pgvector.NewVector(chunk.Embedding),
	).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return vectorstore.Skipped, nil
	}
	if err != nil {
		return vectorstore.Skipped, err
	}

	if inserted {
		return vectorstore.Inserted, nil
	}
	return vectorstore.Updated, nil
}

// sourceFilter is the jsonb containment filter; an empty source matches all rows.
func sourceFilter(source string) string {
	if source == "" {
		return "{}"
	}
	b, _ := json.Marshal(map[string]string{"source": source})
	return string(b)
}
