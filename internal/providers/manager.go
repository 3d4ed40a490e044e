package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"decaprep/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// CallRecorder receives one outcome per provider call.
type CallRecorder interface {
	RecordProviderCall(provider, outcome string)
}

// Manager fails over across the configured providers, real ones first.
type Manager struct {
	llmProviders []NamedLLMProvider
	recorder     CallRecorder
	log          *slog.Logger
}

func NewManager(cfg config.Config, recorder CallRecorder, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	rc := ResilienceConfig{
		RatePerSecond:   cfg.LLMRatePerSecond,
		Burst:           cfg.LLMBurst,
		MaxRetries:      cfg.LLMMaxRetries,
		Backoff:         cfg.LLMRetryBackoff,
		BreakerFailures: cfg.LLMBreakerFailures,
		BreakerCooldown: cfg.LLMBreakerCooldown,
	}
	m := &Manager{recorder: recorder, log: log}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref)
		if err != nil {
			return nil, err
		}
		if strings.ToLower(ref.Name) != "mock" {
			p = NewResilient(ref.Raw, p, rc, log)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	return m, nil
}

// NewManagerWith wraps already constructed providers, in the given order.
func NewManagerWith(recorder CallRecorder, log *slog.Logger, ps ...NamedLLMProvider) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{llmProviders: ps, recorder: recorder, log: log}
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

// Generate tries each provider in preferred order. Quota, auth, rate and
// transient failures move on to the next provider; anything else is the
// request's fault and is returned at once.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if len(m.llmProviders) == 0 {
		return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("no llm providers configured")
	}
	var lastErr error
	var lastInfo ProviderInfo
	for _, i := range m.PreferredLLMOrder() {
		np := m.llmProviders[i]
		resp, info, err := np.Provider.Generate(ctx, req)
		if err == nil {
			m.record(np.Ref.Name, "ok")
			return resp, info, nil
		}
		kind := ClassifyError(err)
		m.record(np.Ref.Name, string(kind))
		lastErr, lastInfo = err, info
		if ctx.Err() != nil {
			return GenerateResponse{}, info, err
		}
		switch kind {
		case ErrorQuota, ErrorAuth, ErrorRate, ErrorTransient:
			m.log.Warn("llm_failover", "provider", np.Ref.Raw, "error_type", string(kind), "error", err)
			continue
		default:
			return GenerateResponse{}, info, err
		}
	}
	return GenerateResponse{}, lastInfo, fmt.Errorf("all llm providers failed: %w", lastErr)
}

func (m *Manager) record(provider, outcome string) {
	if m.recorder != nil {
		m.recorder.RecordProviderCall(provider, outcome)
	}
}

func buildProvider(ref ProviderRef) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
