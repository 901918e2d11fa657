package responder

import "context"

// ChatMessage is one role-tagged message in a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the wire body sent to the chat-completion endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
}

// ChatResponse carries the fields read back from the endpoint.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client performs one bounded request against a chat-completion backend.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
