package topicseed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/openai/openai-go/v3"
)

// Embedder maps texts to equal-length vectors. Identical input must produce
// identical output.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// openAIMaxBatch is the maximum number of inputs per embeddings request.
const openAIMaxBatch = 2048

// OpenAIEmbedder calls the OpenAI (or Azure OpenAI) embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Large)
	}
	return &OpenAIEmbedder{client: client, model: model}
}

// Model returns the embedding model name.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed returns one vector per text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	result := make([][]float64, len(texts))
	for i := 0; i < len(texts); i += openAIMaxBatch {
		end := min(i+openAIMaxBatch, len(texts))
		vecs, err := e.callAPI(ctx, texts[i:end])
		if err != nil {
			return nil, dependencyError(fmt.Sprintf("embed batch [%d:%d]", i, end), err)
		}
		copy(result[i:], vecs)
	}
	return result, nil
}

func (e *OpenAIEmbedder) callAPI(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	vecs := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= int64(len(texts)) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", item.Index, len(texts))
		}
		vecs[item.Index] = item.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}

// EmbeddingCache stores vectors by key. Get reports ok=false on a miss.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) (vec []float64, ok bool, err error)
	Put(ctx context.Context, key string, vec []float64) error
}

// CachedEmbedder serves repeated texts from an EmbeddingCache and only sends
// misses to the wrapped embedder.
type CachedEmbedder struct {
	Embedder Embedder
	Cache    EmbeddingCache
	// Namespace separates keys of different embedding models.
	Namespace string
}

var _ Embedder = (*CachedEmbedder)(nil)

func (c *CachedEmbedder) key(text string) string {
	sum := sha1.Sum([]byte(c.Namespace + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	result := make([][]float64, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		vec, ok, err := c.Cache.Get(ctx, c.key(text))
		if err != nil {
			log.Printf("Embedding cache read failed, recomputing: %v", err)
			ok = false
		}
		if ok {
			result[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return result, nil
	}

	vecs, err := c.Embedder.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", ErrDependencyUnavailable, len(vecs), len(missTexts))
	}
	for j, vec := range vecs {
		result[missIdx[j]] = vec
		if err := c.Cache.Put(ctx, c.key(missTexts[j]), vec); err != nil {
			log.Printf("Failed to cache embedding: %v", err)
		}
	}
	log.Printf("Embedded %d texts (%d from cache)", len(texts), len(texts)-len(missTexts))
	return result, nil
}
