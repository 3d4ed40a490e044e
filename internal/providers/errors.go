package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"decaprep/internal/util"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorAuth      ErrorType = "auth"
	ErrorSafety    ErrorType = "safety"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// ClassifyError buckets a provider failure. Sentinel errors win; otherwise
// the message is inspected.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, util.ErrQuotaExhausted):
		return ErrorQuota
	case errors.Is(err, util.ErrRateLimited):
		return ErrorRate
	case errors.Is(err, util.ErrUnauthorized):
		return ErrorAuth
	case errors.Is(err, util.ErrContentBlocked):
		return ErrorSafety
	case errors.Is(err, util.ErrTransient):
		return ErrorTransient
	case errors.Is(err, util.ErrPermanent):
		return ErrorPermanent
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "401"), strings.Contains(e, "unauthorized"), strings.Contains(e, "invalid api key"), strings.Contains(e, "key missing"):
		return ErrorAuth
	case strings.Contains(e, "safety"), strings.Contains(e, "content_filter"), strings.Contains(e, "blocked"):
		return ErrorSafety
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Retryable reports whether the same provider may succeed on a later attempt.
func Retryable(t ErrorType) bool {
	return t == ErrorRate || t == ErrorTransient
}

// statusError maps an HTTP error response onto the provider sentinels.
func statusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	lower := strings.ToLower(msg)
	var kind error
	switch {
	case strings.Contains(lower, "insufficient_quota"):
		kind = util.ErrQuotaExhausted
	case status == http.StatusTooManyRequests:
		kind = util.ErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = util.ErrUnauthorized
	case strings.Contains(lower, "content_filter") || strings.Contains(lower, "safety"):
		kind = util.ErrContentBlocked
	case status >= 500 || status == http.StatusRequestTimeout:
		kind = util.ErrTransient
	default:
		kind = util.ErrPermanent
	}
	return fmt.Errorf("%w: %s generate error %d: %s", kind, provider, status, msg)
}
