package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// --- NewCohereProvider Tests ---

func TestNewCohereProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewCohereProvider(ProviderConfig{})
	if err == nil {
		t.Fatal("expected error when API key is missing")
	}
}

func TestNewCohereProvider_DefaultModel(t *testing.T) {
	p, err := NewCohereProvider(ProviderConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewCohereProvider() error = %v", err)
	}

	if p.Model() != DefaultModels["cohere"] {
		t.Errorf("expected default model %q, got %q", DefaultModels["cohere"], p.Model())
	}
	if p.Name() != "cohere" {
		t.Errorf("expected name cohere, got %q", p.Name())
	}
}

// --- Complete Tests ---

func TestCohereProvider_Complete(t *testing.T) {
	var gotReq cohereRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		resp := map[string]any{
			"id": "gen-1",
			"generations": []map[string]any{
				{"id": "g0", "text": "Interstellar\n", "finish_reason": "STOP_SEQUENCE"},
			},
			"meta": map[string]any{
				"billed_units": map[string]any{
					"input_tokens":  42,
					"output_tokens": 3,
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := NewCohereProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "command",
	})
	if err != nil {
		t.Fatalf("NewCohereProvider() error = %v", err)
	}

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Prompt:        "some prompt",
		MaxTokens:     10,
		Temperature:   0.25,
		StopSequences: []string{"\n"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotReq.Prompt != "some prompt" {
		t.Errorf("prompt not forwarded, got %q", gotReq.Prompt)
	}
	if gotReq.MaxTokens != 10 || gotReq.Temperature != 0.25 {
		t.Errorf("generation parameters not forwarded: %+v", gotReq)
	}
	if len(gotReq.StopSequences) != 1 || gotReq.StopSequences[0] != "\n" {
		t.Errorf("stop sequences not forwarded: %v", gotReq.StopSequences)
	}
	if gotReq.NumGenerations != 1 {
		t.Errorf("expected num_generations default 1, got %d", gotReq.NumGenerations)
	}

	gen, err := resp.First()
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if gen.Text != "Interstellar\n" {
		t.Errorf("unexpected generation text: %q", gen.Text)
	}
	if resp.Usage.InputTokens != 42 || resp.Usage.OutputTokens != 3 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestCohereProvider_Complete_EmptyGenerations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"gen-1","generations":[]}`))
	}))
	defer server.Close()

	p, err := NewCohereProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewCohereProvider() error = %v", err)
	}

	_, err = p.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestCohereProvider_Complete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api token"}`))
	}))
	defer server.Close()

	p, err := NewCohereProvider(ProviderConfig{APIKey: "bad-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewCohereProvider() error = %v", err)
	}

	_, err = p.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

// --- CompletionResponse Tests ---

func TestCompletionResponse_First_Empty(t *testing.T) {
	var resp CompletionResponse
	_, err := resp.First()
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}
