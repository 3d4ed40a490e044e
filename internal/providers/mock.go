package providers

import (
	"context"
	"strings"
)

// MockProvider answers deterministically so the API can run without keys.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if err := ctx.Err(); err != nil {
		return GenerateResponse{}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, err
	}
	text := "Mock response."
	if strings.Contains(strings.ToLower(req.Operation), "tutor") {
		var b strings.Builder
		b.WriteString("## Explanation\n")
		b.WriteString("- Deterministic tutor output; configure a real provider for substantive answers.")
		if len(req.Context) > 0 {
			b.WriteString("\n## Reference\n- ")
			b.WriteString(req.Context[0])
		}
		text = b.String()
	}
	return GenerateResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}
