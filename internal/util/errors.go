package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrUnreadablePDF     = errors.New("unreadable pdf")

	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrUnauthorized   = errors.New("provider rejected credentials")
	ErrContentBlocked = errors.New("provider blocked content")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
)
