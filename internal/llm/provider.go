package llm

import (
	"context"
)

// Provider defines the interface for LLM providers used for lyric generation
type Provider interface {
	// Generate produces lyric text for the request
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for lyric generation
type GenerationRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
}

// GenerationResponse contains the generated lyrics plus token accounting
type GenerationResponse struct {
	Text  string     `json:"text"`
	Usage TokenUsage `json:"usage"`
}

// TokenUsage mirrors the provider's token accounting
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}
