package topicseed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

// OpenEmbeddingCache opens a cache from a URL: sqlite://embeddings.db or
// redis://host:6379/0. An empty URL disables caching and returns nil.
func OpenEmbeddingCache(url string) (EmbeddingCache, error) {
	switch {
	case url == "":
		return nil, nil
	case strings.HasPrefix(url, "sqlite://"):
		cache, err := NewSQLiteEmbeddingCache(strings.TrimPrefix(url, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return cache, nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("%w: bad redis URL: %w", ErrInvalidInput, err)
		}
		return NewRedisEmbeddingCache(redis.NewClient(opts), 0), nil
	}
	return nil, fmt.Errorf("%w: unsupported embedding cache URL %q", ErrInvalidInput, url)
}

// SQLiteEmbeddingCache stores embedding vectors as JSON in a local database.
type SQLiteEmbeddingCache struct {
	db *sql.DB
}

var _ EmbeddingCache = (*SQLiteEmbeddingCache)(nil)

func NewSQLiteEmbeddingCache(path string) (*SQLiteEmbeddingCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS embeddings (
		text_key TEXT PRIMARY KEY,
		embedding_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
		return nil, err
	}
	return &SQLiteEmbeddingCache{db: db}, nil
}

func (c *SQLiteEmbeddingCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	var embeddingJSON string
	err := c.db.QueryRowContext(ctx, "SELECT embedding_json FROM embeddings WHERE text_key = ?", key).Scan(&embeddingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float64
	if err := json.Unmarshal([]byte(embeddingJSON), &vec); err != nil {
		return nil, false, fmt.Errorf("failed to parse embedding: %w", err)
	}
	return vec, true, nil
}

func (c *SQLiteEmbeddingCache) Put(ctx context.Context, key string, vec []float64) error {
	embeddingJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (text_key, embedding_json) VALUES (?, ?)`,
		key, string(embeddingJSON))
	return err
}

func (c *SQLiteEmbeddingCache) Close() error { return c.db.Close() }
