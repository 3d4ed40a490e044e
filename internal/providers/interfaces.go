package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// GenerationConfig carries sampling settings. Zero values leave the
// provider defaults in place.
type GenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type GenerateRequest struct {
	Operation string           `json:"operation"`
	Prompt    string           `json:"prompt"`
	Context   []string         `json:"context"`
	Config    GenerationConfig `json:"config"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}
