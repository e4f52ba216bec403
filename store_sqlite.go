package topicseed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps documents as JSON bodies in a single table.
type SQLiteStore struct {
	db *sql.DB
}

var _ DocumentStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_collection ON documents(collection);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	ids, err := s.InsertMany(ctx, collection, []any{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany stores all docs in one transaction.
func (s *SQLiteStore) InsertMany(ctx context.Context, collection string, docs []any) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		fields, err := toFields(doc)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}
		ids[i] = newDocumentID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, collection, body) VALUES (?, ?, ?)`,
			ids[i], collection, string(body)); err != nil {
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) Search(ctx context.Context, collection string, filter map[string]any) ([]Document, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, body FROM documents WHERE collection = ?`)
	args := []any{collection}

	// Sorted for a stable statement text.
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		query.WriteString(` AND json_extract(body, ?) = ?`)
		args = append(args, "$."+k, sqliteValue(filter[k]))
	}
	query.WriteString(` ORDER BY seq`)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var docs []Document
	for rows.Next() {
		var doc Document
		var body string
		if err := rows.Scan(&doc.ID, &body); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(body), &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to parse document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// sqliteValue maps a filter value onto what json_extract returns for it.
func sqliteValue(v any) any {
	switch v := v.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case Label:
		return v.String()
	}
	return v
}
