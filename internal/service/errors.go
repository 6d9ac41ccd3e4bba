package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrMessageRequired     = errors.New("message is required")
	ErrUpstreamAuth        = errors.New("upstream authentication failed")
	ErrUpstreamRateLimited = errors.New("upstream rate limit exceeded")
	ErrProcessingFailed    = errors.New("failed to process request")
	ErrPersistFailed       = errors.New("failed to persist chat record")
)

// classifyUpstream wraps a completion error in the sentinel the transport
// maps to a status code.
func classifyUpstream(err error) error {
	switch {
	case isAuthError(err):
		return fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	case isRateLimitError(err):
		return fmt.Errorf("%w: %v", ErrUpstreamRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isAuthError(err error) bool {
	switch statusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "API key") || strings.Contains(msg, "status code: 401")
}

func isRateLimitError(err error) bool {
	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "status code: 429")
}

// isTransient reports whether another attempt may succeed. parent is the
// caller's context: a per-attempt deadline is transient, caller
// cancellation is not.
func isTransient(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if isAuthError(err) || isRateLimitError(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	code := statusCode(err)
	if code == http.StatusRequestTimeout || code >= http.StatusInternalServerError {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
