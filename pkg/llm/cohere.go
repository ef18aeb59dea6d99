package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// CohereProvider communicates with the Cohere generate API.
type CohereProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewCohereProvider creates a new Cohere provider.
func NewCohereProvider(cfg ProviderConfig) (*CohereProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.cohere.ai"
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels["cohere"]
	}

	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}

	return &CohereProvider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  client,
	}, nil
}

type cohereRequest struct {
	Model          string   `json:"model"`
	Prompt         string   `json:"prompt"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Temperature    float64  `json:"temperature"`
	NumGenerations int      `json:"num_generations,omitempty"`
	StopSequences  []string `json:"stop_sequences,omitempty"`
}

type cohereGeneration struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type cohereResponse struct {
	ID          string             `json:"id"`
	Generations []cohereGeneration `json:"generations"`
	Meta        struct {
		BilledUnits struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

// Complete sends a completion request to Cohere.
func (p *CohereProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	numGenerations := req.NumGenerations
	if numGenerations == 0 {
		numGenerations = 1
	}

	cohereReq := cohereRequest{
		Model:          p.model,
		Prompt:         req.Prompt,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		NumGenerations: numGenerations,
		StopSequences:  req.StopSequences,
	}

	body, err := json.Marshal(cohereReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return CompletionResponse{}, fmt.Errorf("cohere returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var cohereResp cohereResponse
	if err := json.NewDecoder(resp.Body).Decode(&cohereResp); err != nil {
		return CompletionResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(cohereResp.Generations) == 0 {
		return CompletionResponse{}, fmt.Errorf("%w: empty generation list", ErrMalformedResponse)
	}

	generations := make([]Generation, 0, len(cohereResp.Generations))
	for _, g := range cohereResp.Generations {
		generations = append(generations, Generation{
			Text:         g.Text,
			FinishReason: g.FinishReason,
		})
	}

	return CompletionResponse{
		Generations: generations,
		Usage: Usage{
			InputTokens:  cohereResp.Meta.BilledUnits.InputTokens,
			OutputTokens: cohereResp.Meta.BilledUnits.OutputTokens,
		},
		Model: p.model,
	}, nil
}

// Name returns the provider identifier.
func (p *CohereProvider) Name() string {
	return "cohere"
}

// Model returns the configured model name.
func (p *CohereProvider) Model() string {
	return p.model
}

func init() {
	RegisterProvider("cohere", func(cfg ProviderConfig) (Provider, error) {
		return NewCohereProvider(cfg)
	})
}
