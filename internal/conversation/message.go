package conversation

// Part types for structured message content.
const (
	PartTypeText  = "text"
	PartTypeImage = "image_url"
)

// Part is one piece of a structured message: either a text fragment or an
// image reference.
type Part struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Message is a single conversation turn. Content holds plain text; Parts,
// when non-empty, takes precedence and holds structured content.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
}

// TextMessage builds a plain-text message.
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}
