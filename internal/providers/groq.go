package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

// GroqProvider supports generation via Groq's OpenAI-compatible API.
type GroqProvider struct {
	chatEndpoint
}

func NewGroqProvider(keyName string) *GroqProvider {
	model := os.Getenv("DECA_GROQ_MODEL")
	if strings.TrimSpace(model) == "" {
		model = "llama-3.1-8b-instant"
	}
	return &GroqProvider{chatEndpoint{
		name:    "groq",
		url:     "https://api.groq.com/openai/v1/chat/completions",
		apiKey:  resolveGroqKey(keyName),
		keyName: keyName,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}}
}

func (g *GroqProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	return g.generate(ctx, req)
}

func resolveGroqKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("DECA_GROQ_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv("GROQ_API_KEY")
}
