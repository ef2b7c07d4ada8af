package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotConfigured     = errors.New("not configured")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrTransport         = errors.New("transport error")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrParse             = errors.New("parse error")
	ErrCacheMiss         = errors.New("cache miss")
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindInvalidRequest   ErrorKind = "invalid_request"
	KindNotConfigured    ErrorKind = "not_configured"
	KindRateLimited      ErrorKind = "rate_limited"
	KindTransport        ErrorKind = "transport_error"
	KindExtractionFailed ErrorKind = "extraction_failed"
	KindParse            ErrorKind = "parse_error"
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidRequest:   ErrInvalidRequest,
	KindNotConfigured:    ErrNotConfigured,
	KindRateLimited:      ErrRateLimitExceeded,
	KindTransport:        ErrTransport,
	KindExtractionFailed: ErrExtractionFailed,
	KindParse:            ErrParse,
}

// ProviderError is the only error type adapters return. errors.Is matches the
// sentinel of its Kind as well as the wrapped cause.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func NewProviderError(provider string, kind ErrorKind, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Message:  message,
		Err:      cause,
	}
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the provider error kind carried by err, or "" if none.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// TransportFailure classifies an http.Client error.
func TransportFailure(provider string, err error) *ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewProviderError(provider, KindTransport, "request timeout", err)
	}
	return NewProviderError(provider, KindTransport, fmt.Sprintf("request failed: %v", err), err)
}

// StatusFailure classifies a non-success HTTP status.
func StatusFailure(provider string, status int) *ProviderError {
	if status == 429 {
		return NewProviderError(provider, KindRateLimited, "rate limit exceeded", nil)
	}
	return NewProviderError(provider, KindTransport, fmt.Sprintf("unexpected status %d", status), nil)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}
