package topicseed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

// ClientOptions selects between the public OpenAI API and an Azure OpenAI deployment.
type ClientOptions struct {
	APIKey  string
	BaseURL string

	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string

	// MaxRetries covers rate limits and transient 5xx responses. The SDK
	// honours Retry-After and otherwise backs off exponentially.
	MaxRetries int
	Timeout    time.Duration
}

// ClientOptionsFromConfig reads the package Config.
func ClientOptionsFromConfig() ClientOptions {
	return ClientOptions{
		APIKey:          Config.OpenAIAPIKey,
		BaseURL:         Config.OpenAIBaseURL,
		AzureEndpoint:   Config.AzureOpenAIEndpoint,
		AzureAPIKey:     Config.AzureOpenAIAPIKey,
		AzureAPIVersion: Config.AzureOpenAIAPIVersion,
		MaxRetries:      Config.MaxRetries,
		Timeout:         Config.RequestTimeout,
	}
}

// NewOpenAIClient creates a client for embeddings and chat completions.
func NewOpenAIClient(o ClientOptions) *openai.Client {
	var opts []option.RequestOption
	if o.AzureEndpoint != "" {
		version := o.AzureAPIVersion
		if version == "" {
			version = DefaultAzureAPIVersion
		}
		opts = append(opts,
			azure.WithEndpoint(o.AzureEndpoint, version),
			azure.WithAPIKey(o.AzureAPIKey),
		)
	} else {
		opts = append(opts, option.WithAPIKey(o.APIKey))
		if o.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(o.BaseURL))
		}
	}
	opts = append(opts, option.WithMaxRetries(o.MaxRetries))
	if o.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(o.Timeout))
	}
	client := openai.NewClient(opts...)
	return &client
}

// responseSchema generates a strict JSON schema for structured output.
func responseSchema(v any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(v)

	// Ensure the schema has the correct type
	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}

	schemaBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return schema, nil
}

// completeJSON runs a chat completion whose reply must match the schema of out,
// then decodes the reply into out.
func completeJSON(ctx context.Context, client *openai.Client, model, name, description, system, user string, out any) error {
	schema, err := responseSchema(out)
	if err != nil {
		return err
	}

	chatCompletion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(0.7),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        name,
					Description: openai.String(description),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return dependencyError(name, err)
	}

	if len(chatCompletion.Choices) == 0 || chatCompletion.Choices[0].Message.Content == "" {
		return dependencyError(name, fmt.Errorf("no content in response"))
	}
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", name, err)
	}
	return nil
}
