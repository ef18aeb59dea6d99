// Package feed fetches raw example text from public JSON content feeds.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrMalformedPayload indicates the feed returned a payload that does not
// match the expected shape (no item list, or items without parseable fields).
var ErrMalformedPayload = errors.New("malformed feed payload")

// Item is one feed entry. Only the title is consumed as example/query text;
// the remaining fields pass through for reference.
type Item struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Source yields raw text items from an external collaborator.
type Source interface {
	// Fetch retrieves items using free-form query parameters.
	Fetch(ctx context.Context, params map[string]string) ([]Item, error)
}

// Config holds settings for a JSON feed client.
type Config struct {
	BaseURL   string
	ItemsKey  string // Key holding the item list; bare-array payloads need none
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults for public feed APIs.
func DefaultConfig() Config {
	return Config{
		ItemsKey: "data",
		Timeout:  30 * time.Second,
	}
}

// JSONFeed fetches items from a JSON-over-HTTP feed with a GET request.
type JSONFeed struct {
	cfg    Config
	client *http.Client
}

// NewJSONFeed creates a feed client for the given base URL.
func NewJSONFeed(cfg Config) (*JSONFeed, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("feed base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid feed base URL: %w", err)
	}
	if cfg.ItemsKey == "" {
		cfg.ItemsKey = DefaultConfig().ItemsKey
	}

	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}

	return &JSONFeed{
		cfg:    cfg,
		client: client,
	}, nil
}

// Fetch issues a GET request with the given query parameters and extracts
// the item list from the response payload.
func (f *JSONFeed) Fetch(ctx context.Context, params map[string]string) ([]Item, error) {
	u, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	query := u.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}

	return f.decodeItems(body)
}

// decodeItems accepts either a bare JSON array of items or an object holding
// the item list under the configured key.
func (f *JSONFeed) decodeItems(body []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	raw, ok := payload[f.cfg.ItemsKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrMalformedPayload, f.cfg.ItemsKey)
	}

	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return items, nil
}

// Titles returns the item titles in feed order.
func Titles(items []Item) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	return titles
}
