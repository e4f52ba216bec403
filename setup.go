package topicseed

import (
	"context"
	"io"
	"log"

	"github.com/openai/openai-go/v3"
)

// openStore opens the document store named by Config.StoreURL.
func openStore(ctx context.Context) (DocumentStore, error) {
	url := Config.StoreURL
	if url == "" {
		url = DefaultStoreURL
	}
	return OpenStore(ctx, url)
}

func closeStore(store DocumentStore) {
	if err := store.Close(); err != nil {
		log.Printf("Failed to close store: %v", err)
	}
}

// services are the collaborators shared by the stage commands.
type services struct {
	client    *openai.Client
	embedder  Embedder
	generator *Generator
	cache     EmbeddingCache
}

// newServices builds the OpenAI client, the (optionally cached) embedder and
// the generator from Config.
func newServices() (*services, error) {
	client := NewOpenAIClient(ClientOptionsFromConfig())
	s := &services{
		client:    client,
		embedder:  NewOpenAIEmbedder(client, Config.EmbeddingModel),
		generator: NewGenerator(client, Config.ChatModel),
	}

	cache, err := OpenEmbeddingCache(Config.EmbeddingCacheURL)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		model := Config.EmbeddingModel
		if model == "" {
			model = DefaultEmbeddingModel
		}
		s.cache = cache
		s.embedder = &CachedEmbedder{Embedder: s.embedder, Cache: cache, Namespace: model}
	}
	return s, nil
}

func (s *services) clusterer() *Clusterer {
	return &Clusterer{Embedder: s.embedder}
}

func (s *services) Close() {
	if c, ok := s.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Failed to close embedding cache: %v", err)
		}
	}
}

func labellerID() string {
	if Config.LabellerID != "" {
		return Config.LabellerID
	}
	return DefaultLabellerID
}
