package llm

import "context"

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator is the minimal text-generation surface consumed by the router,
// the agent, and the code summarizer. *Client implements it; tests supply
// fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
