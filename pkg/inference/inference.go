// Package inference is a chat-completions client for OpenAI-compatible
// language model APIs (OpenAI, Ollama, vLLM, Groq and friends).
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    inference.WithModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages:       []inference.Message{inference.NewUserMessage("Hello!")},
//	    ResponseFormat: inference.FormatJSONObject,
//	})
package inference

import "context"

// Provider generates chat completions.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ResponseFormat constrains the shape of the model output.
type ResponseFormat string

const (
	// FormatText is free text, the API default.
	FormatText ResponseFormat = ""

	// FormatJSONObject forces a single JSON object. The prompt must mention JSON.
	FormatJSONObject ResponseFormat = "json_object"
)

// ChatRequest for chat completions.
type ChatRequest struct {
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length. 0 uses the client default.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0). 0 uses the client default.
	Temperature float64

	ResponseFormat ResponseFormat
}

// ChatResponse from chat completion.
type ChatResponse struct {
	Message      Message
	FinishReason string
	Usage        Usage
	Model        string
	LatencyMs    int64
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
