package topicseed

import "time"

// Config holds all environment variables
var Config struct {
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIKey     string
	AzureOpenAIAPIVersion string
	ChatModel             string
	EmbeddingModel        string
	MaxRetries            int
	RequestTimeout        time.Duration
	StoreURL              string
	EmbeddingCacheURL     string
	LabellerID            string
}

// Defaults applied by cmd/topicseed when the environment leaves a key empty.
const (
	DefaultChatModel       = "gpt-4.1"
	DefaultEmbeddingModel  = "text-embedding-3-large"
	DefaultMaxRetries      = 5
	DefaultStoreURL        = "sqlite://topicseed.db"
	DefaultLabellerID      = "0kgu5o0Bzhy8p2ulxOM5"
	DefaultAzureAPIVersion = "2024-08-01-preview"
)
