package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIProvider uses the OpenAI chat completions API when a key is configured.
type OpenAIProvider struct {
	chatEndpoint
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	model := os.Getenv("DECA_OPENAI_MODEL")
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{chatEndpoint{
		name:    "openai",
		url:     "https://api.openai.com/v1/chat/completions",
		apiKey:  resolveOpenAIKey(keyName),
		keyName: keyName,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}}
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	return o.generate(ctx, req)
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		k := os.Getenv("DECA_OPENAI_KEY_" + strings.ToUpper(alias))
		if k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}
