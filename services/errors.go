package services

import "fmt"

// Typed failures for the remote backends. Callers pick their fallback policy
// with errors.As: configuration problems are fatal and never retried, while
// transport and upstream failures are retryable by the caller.

// ConfigError reports missing credentials or model configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// TransportError reports a network-level failure before any response arrived.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a non-2xx response from a remote service.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Body)
}

// EmptyResponseError reports a successful call whose assistant content was
// absent or blank.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string {
	return "empty response: model returned no usable content"
}

// ParseError reports a response that was required to be JSON but was not,
// even after a repair attempt.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v (raw: %s)", e.Err, truncate(e.Raw, 120))
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
