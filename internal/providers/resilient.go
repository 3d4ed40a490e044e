package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"decaprep/internal/util"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

type ResilienceConfig struct {
	RatePerSecond   float64
	Burst           int
	MaxRetries      int
	Backoff         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

func (c ResilienceConfig) normalize() ResilienceConfig {
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	return c
}

// Resilient throttles calls to one provider, retries rate-limit and
// transient failures after a fixed pause and stops calling the provider
// while its circuit is open.
type Resilient struct {
	name    string
	next    LLMProvider
	cfg     ResilienceConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[GenerateResponse]
	log     *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewResilient(name string, next LLMProvider, cfg ResilienceConfig, log *slog.Logger) *Resilient {
	cfg = cfg.normalize()
	if log == nil {
		log = slog.Default()
	}
	r := &Resilient{
		name:    name,
		next:    next,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		log:     log,
		sleep:   sleepContext,
	}
	r.breaker = gobreaker.NewCircuitBreaker[GenerateResponse](gobreaker.Settings{
		Name:        "llm-" + name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.BreakerFailures)
		},
		// Rejected prompts say nothing about provider health.
		IsSuccessful: func(err error) bool {
			switch ClassifyError(err) {
			case "", ErrorSafety, ErrorContext:
				return true
			default:
				return false
			}
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit_breaker_state_change", "provider", name, "from", from.String(), "to", to.String())
		},
	})
	return r
}

func (r *Resilient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var info ProviderInfo
	for attempt := 0; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return GenerateResponse{}, info, fmt.Errorf("wait for %s rate limiter: %w", r.name, err)
		}
		resp, err := r.breaker.Execute(func() (GenerateResponse, error) {
			out, i, err := r.next.Generate(ctx, req)
			info = i
			return out, err
		})
		if err == nil {
			return resp, info, nil
		}
		if IsCircuitOpen(err) {
			return GenerateResponse{}, info, fmt.Errorf("%w: %s circuit open: %w", util.ErrTransient, r.name, err)
		}
		kind := ClassifyError(err)
		if !Retryable(kind) || attempt >= r.cfg.MaxRetries {
			return GenerateResponse{}, info, err
		}
		r.log.Warn("llm_retry",
			"provider", r.name,
			"attempt", attempt+1,
			"max_retries", r.cfg.MaxRetries,
			"error_type", string(kind),
			"backoff_ms", r.cfg.Backoff.Milliseconds(),
			"error", err,
		)
		if err := r.sleep(ctx, r.cfg.Backoff); err != nil {
			return GenerateResponse{}, info, err
		}
	}
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
