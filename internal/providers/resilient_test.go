package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"decaprep/internal/util"

	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return GenerateResponse{}, ProviderInfo{Name: "scripted"}, s.errs[i]
	}
	return GenerateResponse{Text: "ok"}, ProviderInfo{Name: "scripted"}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResilient(p LLMProvider, cfg ResilienceConfig) (*Resilient, *[]time.Duration) {
	r := NewResilient("scripted", p, cfg, quietLogger())
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return r, &waits
}

func TestResilientRetriesWithFixedBackoff(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		fmt.Errorf("%w: 429", util.ErrRateLimited),
		fmt.Errorf("%w: 503", util.ErrTransient),
	}}
	r, waits := newTestResilient(p, ResilienceConfig{RatePerSecond: 1000, Burst: 10, MaxRetries: 3, Backoff: 250 * time.Millisecond})

	resp, _, err := r.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Text)
	require.Equal(t, 3, p.calls)
	require.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, *waits)
}

func TestResilientGivesUpAfterMaxRetries(t *testing.T) {
	rateErr := fmt.Errorf("%w: 429", util.ErrRateLimited)
	p := &scriptedProvider{errs: []error{rateErr, rateErr, rateErr, rateErr}}
	r, _ := newTestResilient(p, ResilienceConfig{RatePerSecond: 1000, Burst: 10, MaxRetries: 2, BreakerFailures: 10})

	_, _, err := r.Generate(context.Background(), GenerateRequest{})
	require.ErrorIs(t, err, util.ErrRateLimited)
	require.Equal(t, 3, p.calls)
}

func TestResilientDoesNotRetryAuth(t *testing.T) {
	p := &scriptedProvider{errs: []error{fmt.Errorf("%w: bad key", util.ErrUnauthorized)}}
	r, waits := newTestResilient(p, ResilienceConfig{RatePerSecond: 1000, Burst: 10, MaxRetries: 3})

	_, _, err := r.Generate(context.Background(), GenerateRequest{})
	require.ErrorIs(t, err, util.ErrUnauthorized)
	require.Equal(t, 1, p.calls)
	require.Empty(t, *waits)
}

func TestResilientOpensCircuit(t *testing.T) {
	transient := fmt.Errorf("%w: down", util.ErrTransient)
	p := &scriptedProvider{errs: []error{transient, transient, transient}}
	r, _ := newTestResilient(p, ResilienceConfig{RatePerSecond: 1000, Burst: 10, MaxRetries: 0, BreakerFailures: 2, BreakerCooldown: time.Minute})

	for i := 0; i < 2; i++ {
		_, _, err := r.Generate(context.Background(), GenerateRequest{})
		require.ErrorIs(t, err, util.ErrTransient)
	}
	_, _, err := r.Generate(context.Background(), GenerateRequest{})
	require.True(t, IsCircuitOpen(err))
	require.ErrorIs(t, err, util.ErrTransient)
	require.Equal(t, 2, p.calls)
}

func TestResilientSafetyDoesNotTripBreaker(t *testing.T) {
	blocked := fmt.Errorf("%w: filtered", util.ErrContentBlocked)
	p := &scriptedProvider{errs: []error{blocked, blocked, blocked}}
	r, _ := newTestResilient(p, ResilienceConfig{RatePerSecond: 1000, Burst: 10, BreakerFailures: 1})

	for i := 0; i < 3; i++ {
		_, _, err := r.Generate(context.Background(), GenerateRequest{})
		require.ErrorIs(t, err, util.ErrContentBlocked)
	}
	require.Equal(t, 3, p.calls)
}

func TestResilientHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProvider{}
	r, _ := newTestResilient(p, ResilienceConfig{RatePerSecond: 0.001, Burst: 1})
	// Drain the single token so Wait has to block on the cancelled context.
	require.True(t, r.limiter.Allow())

	_, _, err := r.Generate(ctx, GenerateRequest{})
	require.Error(t, err)
	require.Equal(t, 0, p.calls)
}
