package vision

import "fmt"

// The analyze pipeline reports failures as typed errors so the handler layer
// can map them to user-visible notices without string matching:
//
//   - *ConfigError: required credential missing, nothing was sent
//   - *ProviderError: the endpoint answered with a non-200 status
//   - *TransportError: network/timeout/malformed-response failure
//
// None of these are retried anywhere in the pipeline.

// ConfigError means a required configuration value is absent. Terminal for
// the current operation; no request is attempted.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Missing)
}

// ProviderError carries a non-200 response from the inference endpoint,
// including the raw body for diagnosis (rate limit, quota, invalid request).
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
}

// TransportError wraps network failures, timeouts and unparseable responses.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error analyzing image: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
