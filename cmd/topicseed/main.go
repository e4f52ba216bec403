package main

import (
	"log"
	"os"
	"strconv"

	"github.com/cenkalti/topicseed"
	"github.com/joho/godotenv"
	"github.com/sosodev/duration"
	"github.com/spf13/cobra"
)

func getenvDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func main() {
	// A missing .env is fine, the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// Set configuration for the topicseed package
	topicseed.Config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	topicseed.Config.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	topicseed.Config.AzureOpenAIEndpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	topicseed.Config.AzureOpenAIAPIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	topicseed.Config.AzureOpenAIAPIVersion = getenvDefault("AZURE_OPENAI_API_VERSION", topicseed.DefaultAzureAPIVersion)
	topicseed.Config.ChatModel = getenvDefault("OPENAI_CHAT_MODEL", topicseed.DefaultChatModel)
	topicseed.Config.EmbeddingModel = getenvDefault("OPENAI_EMBEDDING_MODEL", topicseed.DefaultEmbeddingModel)
	topicseed.Config.StoreURL = getenvDefault("STORE_URL", topicseed.DefaultStoreURL)
	topicseed.Config.EmbeddingCacheURL = os.Getenv("EMBEDDING_CACHE_URL")
	topicseed.Config.LabellerID = getenvDefault("LABELLER_ID", topicseed.DefaultLabellerID)

	topicseed.Config.MaxRetries = topicseed.DefaultMaxRetries
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid OPENAI_MAX_RETRIES: %v", err)
		}
		topicseed.Config.MaxRetries = n
	}
	if v := os.Getenv("OPENAI_TIMEOUT"); v != "" {
		d, err := duration.Parse(v)
		if err != nil {
			log.Fatalf("Invalid OPENAI_TIMEOUT (want ISO 8601, e.g. PT2M): %v", err)
		}
		topicseed.Config.RequestTimeout = d.ToTimeDuration()
	}

	if topicseed.Config.OpenAIAPIKey == "" && topicseed.Config.AzureOpenAIEndpoint == "" {
		log.Println("⚠️  Neither OPENAI_API_KEY nor AZURE_OPENAI_ENDPOINT is set; commands that call the API will fail")
	}

	rootCmd := &cobra.Command{
		Use:   "topicseed",
		Short: "Suggest diverse training sentences for topic labelling",
	}

	rootCmd.AddCommand(topicseed.AddTopicCmd)
	rootCmd.AddCommand(topicseed.AugmentTopicCmd)
	rootCmd.AddCommand(topicseed.SuggestSentencesCmd)
	rootCmd.AddCommand(topicseed.GenerateReportCmd)
	rootCmd.AddCommand(topicseed.ServeCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
