package llm

import "context"

// Message roles understood by the generation client.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options controls sampling for a completion call.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client is the boundary to the text-generation service. Implementations
// return the completion text; an empty string with a nil error is a soft
// failure the caller must handle, not an error.
type Client interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}
