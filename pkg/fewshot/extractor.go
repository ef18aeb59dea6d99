// Package fewshot renders few-shot prompts and interprets model completions
// as extracted entities.
package fewshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fewshotlabs/fewshot/internal/logger"
	"github.com/fewshotlabs/fewshot/pkg/llm"
)

// Result holds one extraction outcome with call metadata.
type Result struct {
	Input      string        // The query text
	Entity     string        // Extracted entity, stop sequence stripped
	Raw        string        // Raw generation text from the provider
	PromptSize int           // Rendered prompt size in bytes
	Usage      llm.Usage     // Token usage for the call
	Model      string        // Resolved model
	Provider   string        // Provider identifier
	Duration   time.Duration // Time spent in the completion call
}

// Config holds generation settings for an extractor.
type Config struct {
	MaxTokens    int
	Temperature  float64
	StopSequence string // Signals the service to emit exactly one line
	Delimiter    string // Line separating prompt blocks
}

// DefaultConfig returns the settings used by the stock extraction prompt:
// a short single-line answer at low temperature.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    10,
		Temperature:  0.25,
		StopSequence: "\n",
		Delimiter:    "--",
	}
}

// Option configures the extractor.
type Option func(*Config)

// WithMaxTokens sets the maximum output length.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithStopSequence sets the generation stop sequence.
func WithStopSequence(s string) Option {
	return func(c *Config) {
		c.StopSequence = s
	}
}

// WithDelimiter sets the line separating prompt blocks.
func WithDelimiter(d string) Option {
	return func(c *Config) {
		c.Delimiter = d
	}
}

// Extractor renders a fixed exemplar set plus one query into a prompt and
// interprets the model's completion as the extracted entity. Fields are
// read-only after construction; each Extract call is otherwise stateless.
type Extractor struct {
	provider llm.Provider
	task     Task
	config   Config
}

// New creates an Extractor for the given task. The task must already be
// validated; New re-validates to fail fast on malformed exemplar sets.
func New(provider llm.Provider, task Task, opts ...Option) (*Extractor, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Extractor{
		provider: provider,
		task:     task,
		config:   cfg,
	}, nil
}

// Task returns the task this extractor was built for.
func (e *Extractor) Task() Task {
	return e.task
}

// BuildPrompt renders the task description, every exemplar block in original
// order, and a final query block with an empty label region. It is a pure
// function of the extractor's task and the query text. No size limit is
// enforced here; an overlong prompt is the completion service's to reject.
func (e *Extractor) BuildPrompt(query string) string {
	separator := "\n" + e.config.Delimiter + "\n"

	var sb strings.Builder
	sb.WriteString(e.task.Description)

	for _, ex := range e.task.Exemplars {
		sb.WriteString(separator)
		sb.WriteString(ex.Text)
		sb.WriteString("\n")
		sb.WriteString(e.task.Template)
		sb.WriteString(ex.Label)
	}

	sb.WriteString(separator)
	sb.WriteString(query)
	sb.WriteString("\n")
	sb.WriteString(e.task.Template)

	return sb.String()
}

// Extract sends one completion request for the query and returns the
// extracted entity. Transport and service errors propagate wrapped; there is
// no retry, caching, or fallback path.
func (e *Extractor) Extract(ctx context.Context, query string) (Result, error) {
	prompt := e.BuildPrompt(query)

	logger.Debug("extractor calling completion service",
		"provider", e.provider.Name(),
		"model", e.provider.Model(),
		"prompt_size", len(prompt),
		"max_tokens", e.config.MaxTokens,
		"temperature", e.config.Temperature)

	start := time.Now()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:         prompt,
		MaxTokens:      e.config.MaxTokens,
		Temperature:    e.config.Temperature,
		StopSequences:  []string{e.config.StopSequence},
		NumGenerations: 1,
	})
	duration := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("completion failed: %w", err)
	}

	gen, err := resp.First()
	if err != nil {
		return Result{}, err
	}

	// Strip only a literal trailing match of the configured stop sequence.
	// Completions without the echo are returned intact.
	entity := strings.TrimSuffix(gen.Text, e.config.StopSequence)

	logger.Debug("extractor completion received",
		"entity", entity,
		"finish_reason", gen.FinishReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", duration)

	return Result{
		Input:      query,
		Entity:     entity,
		Raw:        gen.Text,
		PromptSize: len(prompt),
		Usage:      resp.Usage,
		Model:      resp.Model,
		Provider:   e.provider.Name(),
		Duration:   duration,
	}, nil
}

// ExtractAll processes queries one at a time in input order and stops at the
// first failure. There is no parallel dispatch or batching.
func (e *Extractor) ExtractAll(ctx context.Context, queries []string) ([]Result, error) {
	results := make([]Result, 0, len(queries))
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := e.Extract(ctx, query)
		if err != nil {
			return results, fmt.Errorf("query %d: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}
