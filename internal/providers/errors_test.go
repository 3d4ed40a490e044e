package providers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"decaprep/internal/util"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":         ErrorQuota,
		"429 rate":                   ErrorRate,
		"401 unauthorized":           ErrorAuth,
		"response blocked by safety": ErrorSafety,
		"context too long":           ErrorContext,
		"timeout":                    ErrorTransient,
		"bad request":                ErrorPermanent,
	}
	for msg, want := range cases {
		require.Equal(t, want, ClassifyError(errors.New(msg)), "classify %q", msg)
	}
	require.Equal(t, ErrorType(""), ClassifyError(nil))
}

func TestClassifySentinels(t *testing.T) {
	require.Equal(t, ErrorAuth, ClassifyError(fmt.Errorf("wrapped: %w", util.ErrUnauthorized)))
	require.Equal(t, ErrorTransient, ClassifyError(fmt.Errorf("x: %w", util.ErrTransient)))
}

func TestStatusError(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   ErrorType
	}{
		{http.StatusTooManyRequests, `{"error":"slow down"}`, ErrorRate},
		{http.StatusTooManyRequests, `{"error":{"code":"insufficient_quota"}}`, ErrorQuota},
		{http.StatusUnauthorized, `{}`, ErrorAuth},
		{http.StatusBadRequest, `{"error":{"code":"content_filter"}}`, ErrorSafety},
		{http.StatusBadGateway, `upstream`, ErrorTransient},
		{http.StatusBadRequest, `bad`, ErrorPermanent},
	}
	for _, tc := range cases {
		err := statusError("openai", tc.status, []byte(tc.body))
		require.Equal(t, tc.want, ClassifyError(err), "status %d body %s", tc.status, tc.body)
	}
	require.True(t, Retryable(ErrorRate))
	require.False(t, Retryable(ErrorAuth))
}
