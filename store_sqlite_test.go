package topicseed

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreInsertSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Insert(ctx, "things", map[string]any{"name": "a", "generated": true, "n": 1})
	if err != nil {
		t.Fatal(err)
	}
	ids, err := s.InsertMany(ctx, "things", []any{
		map[string]any{"name": "b", "generated": false, "n": 2},
		SentenceRecord{SentenceText: "c", Generated: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || id == ids[0] || ids[0] == ids[1] {
		t.Fatalf("ids = %q, %q", id, ids)
	}
	if _, err := s.Insert(ctx, "other", map[string]any{"name": "a"}); err != nil {
		t.Fatal(err)
	}

	all, err := s.Search(ctx, "things", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != id || all[1].ID != ids[0] || all[2].ID != ids[1] {
		t.Fatalf("Search(all) = %+v, want three documents in insertion order", all)
	}

	byName, err := s.Search(ctx, "things", map[string]any{"name": "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byName) != 1 || byName[0].Fields["n"] != float64(1) {
		t.Errorf("Search(name=a) = %+v", byName)
	}

	generated, err := s.Search(ctx, "things", map[string]any{"generated": true})
	if err != nil {
		t.Fatal(err)
	}
	if len(generated) != 2 {
		t.Errorf("Search(generated=true) returned %d documents, want 2", len(generated))
	}

	none, err := s.Search(ctx, "things", map[string]any{"name": "a", "n": 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("Search with conflicting filter = %+v, want none", none)
	}
}

func TestDocumentDecode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	want := SentenceLabelRecord{SentenceID: "s1", TopicID: "c40", PositionInText: -1, Confidence: 1, Label: LabelYes, Explanation: "why"}
	if _, err := s.Insert(ctx, CollectionSentenceLabel, want); err != nil {
		t.Fatal(err)
	}
	docs, err := s.Search(ctx, CollectionSentenceLabel, map[string]any{"label": LabelYes})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("found %d documents, want 1", len(docs))
	}
	var got SentenceLabelRecord
	if err := docs[0].Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
}

func TestOpenStoreRejectsUnknownScheme(t *testing.T) {
	_, err := OpenStore(context.Background(), "postgres://localhost/db")
	assertErrorIs(t, err, ErrInvalidInput)
}

func TestInsertRejectsNonObject(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Insert(context.Background(), "things", []string{"a"}); err == nil {
		t.Error("expected error inserting a JSON array")
	}
}

func TestSQLiteEmbeddingCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewSQLiteEmbeddingCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}
	if err := c.Put(ctx, "k", []float64{0.5, -1}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "k", []float64{0.25, 2}); err != nil {
		t.Fatal(err)
	}
	vec, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != 2 {
		t.Errorf("vec = %v, want [0.25 2]", vec)
	}
}

func TestOpenEmbeddingCache(t *testing.T) {
	c, err := OpenEmbeddingCache("")
	if err != nil || c != nil {
		t.Errorf("OpenEmbeddingCache(\"\") = %v, %v, want no cache", c, err)
	}
	c, err = OpenEmbeddingCache("sqlite://" + filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*SQLiteEmbeddingCache); !ok {
		t.Errorf("cache = %T, want *SQLiteEmbeddingCache", c)
	}
	c.(*SQLiteEmbeddingCache).Close()

	if c, err = OpenEmbeddingCache("redis://localhost:6379/0"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*RedisEmbeddingCache); !ok {
		t.Errorf("cache = %T, want *RedisEmbeddingCache", c)
	}
	c.(*RedisEmbeddingCache).Close()

	_, err = OpenEmbeddingCache("memcached://localhost")
	assertErrorIs(t, err, ErrInvalidInput)
}
