package llm

import (
	"testing"
)

// --- filterStopSequences Tests ---

func TestFilterStopSequences_DropsWhitespaceOnly(t *testing.T) {
	stops := filterStopSequences([]string{"\n", " ", "\t", ""})
	if len(stops) != 0 {
		t.Errorf("whitespace-only stop sequences must not be forwarded, got %q", stops)
	}
}

func TestFilterStopSequences_KeepsLiteralStops(t *testing.T) {
	stops := filterStopSequences([]string{"\n", "--", "END"})
	if len(stops) != 2 || stops[0] != "--" || stops[1] != "END" {
		t.Errorf("non-whitespace stop sequences must survive in order, got %q", stops)
	}
}

// --- NewAnthropicProvider Tests ---

func TestNewAnthropicProvider_DefaultModel(t *testing.T) {
	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}

	if p.Model() != DefaultModels["anthropic"] {
		t.Errorf("expected default model %q, got %q", DefaultModels["anthropic"], p.Model())
	}
	if p.Name() != "anthropic" {
		t.Errorf("expected name anthropic, got %q", p.Name())
	}
}
