package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name         string
	generateFunc func(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &GenerationResponse{}, nil
}

func TestProviderInterface(t *testing.T) {
	mock := &MockProvider{
		name: "mock",
	}

	assert.Equal(t, "mock", mock.Name())
}

func TestFactoryExplicitProvider(t *testing.T) {
	factory := NewProviderFactory("sk-test", "")

	provider, err := factory.GetProvider(context.Background(), "", "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
}

func TestFactoryExplicitProviderMissingKey(t *testing.T) {
	factory := NewProviderFactory("", "")

	_, err := factory.GetProvider(context.Background(), "", "openai")
	assert.Error(t, err)

	_, err = factory.GetProvider(context.Background(), "", "gemini")
	assert.Error(t, err)
}

func TestFactoryUnknownProvider(t *testing.T) {
	factory := NewProviderFactory("sk-test", "gk-test")

	_, err := factory.GetProvider(context.Background(), "", "anthropic")
	assert.Error(t, err)
}

func TestFactoryModelRouting(t *testing.T) {
	factory := NewProviderFactory("sk-test", "gk-test")

	tests := []struct {
		model        string
		wantProvider string
	}{
		{"gpt-4o", "openai"},
		{"GPT-4o-mini", "openai"},
		{"gemini-2.0-flash", "gemini"},
		{"some-unknown-model", "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			provider, err := factory.GetProvider(context.Background(), tt.model, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, provider.Name())
		})
	}
}

func TestFactoryGeminiModelMissingKey(t *testing.T) {
	factory := NewProviderFactory("sk-test", "")

	_, err := factory.GetProvider(context.Background(), "gemini-2.0-flash", "")
	assert.Error(t, err)
}
