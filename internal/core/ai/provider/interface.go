package provider

import (
	"context"

	"nutrition-calculator/internal/pkg/common"
)

// Chat roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message sent to a provider.
type Message = common.Message

// Request is a chat completion request. Zero MaxTokens or Temperature fall
// back to the provider's configured values.
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response is the first choice of a completion.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider is a chat completion backend.
type Provider interface {
	// Generate returns the model's reply to req.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GetModel returns the model identifier requests are sent to.
	GetModel() string
}

// NewRequest builds a request from a system prompt and a user prompt.
func NewRequest(system, prompt string) *Request {
	req := &Request{}
	if system != "" {
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: system})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: prompt})
	return req
}
