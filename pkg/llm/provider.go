// Package llm provides a unified interface for text-completion providers.
package llm

import (
	"context"
	"errors"
	"time"
)

// CompletionRequest represents a single request to a completion service.
// A request is assembled per call and discarded after the response is read.
type CompletionRequest struct {
	Prompt         string
	MaxTokens      int
	Temperature    float64
	StopSequences  []string
	NumGenerations int // Number of candidates to request (default 1)
}

// Generation is one generated text candidate.
type Generation struct {
	Text         string
	FinishReason string
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// CompletionResponse represents a validated completion service response.
type CompletionResponse struct {
	Generations []Generation
	Usage       Usage
	Model       string // Resolved model (may differ from requested)
}

// First returns the first generation candidate, or ErrMalformedResponse if
// the service returned an empty candidate list.
func (r CompletionResponse) First() (Generation, error) {
	if len(r.Generations) == 0 {
		return Generation{}, ErrMalformedResponse
	}
	return r.Generations[0], nil
}

// ErrMalformedResponse indicates the completion service returned a response
// that does not match the expected shape (e.g. no generation candidates).
var ErrMalformedResponse = errors.New("malformed completion response")

// Provider is the core abstraction over completion backends.
type Provider interface {
	// Complete sends a completion request and returns generated candidates.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Name returns the provider identifier.
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers. It is passed
// explicitly at construction; providers keep no ambient state.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For self-hosted or OpenAI-compatible endpoints
	Model   string
	Timeout time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 60 * time.Second,
	}
}
