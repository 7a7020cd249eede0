package ai

import (
	"fmt"
	"time"
)

// ProviderError represents a failed upstream call: network failure, a
// non-2xx response, or a payload the adapter could not decode.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: upstream error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ParseError means no JSON payload could be located in the model output.
type ParseError struct {
	Feature string
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON payload found in %s output", e.Feature)
}

// ValidationError means JSON was present but did not match the feature's
// expected output schema.
type ValidationError struct {
	Feature string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s output failed validation: %s", e.Feature, e.Reason)
}

// QuotaExceededError is the user-facing daily ceiling denial. It is an
// intentional hard stop, distinct from provider degradation.
type QuotaExceededError struct {
	ErrorCode string    `json:"error_code"`
	Message   string    `json:"message"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	ResetAt   time.Time `json:"reset_at"`
}

func (e *QuotaExceededError) Error() string { return e.Message }

// ConfigurationError surfaces a missing secret at the moment it would
// matter. Adapters never fail construction over a missing key; the error
// appears only when Generate is invoked.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Key)
}
