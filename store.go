package topicseed

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Collections of the labelling document store.
const (
	CollectionTopicEntity      = "topic_entity"
	CollectionTopicDefinition  = "topic_entity_definition"
	CollectionLabelledSentence = "labelled_sentence"
	CollectionSentenceLabel    = "sentence_label"
)

// Document is a stored record with its store-assigned id.
type Document struct {
	ID     string
	Fields map[string]any
}

// Decode unmarshals the document fields into v through JSON.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// DocumentStore is a collection-oriented key/value persistence layer.
type DocumentStore interface {
	// Insert stores doc and returns its new id.
	Insert(ctx context.Context, collection string, doc any) (string, error)
	InsertMany(ctx context.Context, collection string, docs []any) ([]string, error)
	// Search returns the documents whose fields equal every filter value, in
	// insertion order. An empty filter matches all documents.
	Search(ctx context.Context, collection string, filter map[string]any) ([]Document, error)
	Close() error
}

// OpenStore opens a store from a URL: sqlite://path/to/file.db or mongodb://host/database.
func OpenStore(ctx context.Context, url string) (DocumentStore, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		store, err := NewSQLiteStore(strings.TrimPrefix(url, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		store, err := NewMongoStore(ctx, url, "")
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: unsupported store URL %q", ErrInvalidInput, url)
}

// toFields converts a record into a flat field map through JSON.
func toFields(doc any) (map[string]any, error) {
	if m, ok := doc.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return fields, nil
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// newDocumentID returns a ULID. Ids created in the same millisecond still
// sort in creation order.
func newDocumentID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}
