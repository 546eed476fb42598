package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zen-systems/itemforge/pkg/item"
)

func TestDefaultRoutingConfigValid(t *testing.T) {
	if err := DefaultRoutingConfig().Validate(); err != nil {
		t.Fatalf("built-in routing config invalid: %v", err)
	}
}

func TestRoutingValidateMissingTypes(t *testing.T) {
	cfg := DefaultRoutingConfig()
	delete(cfg.Assignments, item.TypeSpatialReasoning)
	delete(cfg.Assignments, item.TypeMemoryRecall)

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error for missing types")
	}
	msg := err.Error()
	if !strings.Contains(msg, "memory_recall") || !strings.Contains(msg, "spatial_reasoning") {
		t.Fatalf("error should name every missing type, got %q", msg)
	}
}

func TestRoutingValidateAssignments(t *testing.T) {
	tests := []struct {
		name       string
		assignment ProviderAssignment
		wantErr    string
	}{
		{
			name:       "unknown vendor",
			assignment: ProviderAssignment{Provider: "cohere"},
			wantErr:    "invalid provider",
		},
		{
			name:       "fallback same as provider",
			assignment: ProviderAssignment{Provider: "openai", Fallback: "openai"},
			wantErr:    "must differ from provider",
		},
		{
			name:       "unknown fallback vendor",
			assignment: ProviderAssignment{Provider: "openai", Fallback: "mistral"},
			wantErr:    "invalid fallback",
		},
		{
			name:       "fallback model without fallback",
			assignment: ProviderAssignment{Provider: "openai", FallbackModel: "gpt-5.2-pro"},
			wantErr:    "fallback_model set without fallback",
		},
		{
			name:       "negative batch size",
			assignment: ProviderAssignment{Provider: "openai", MaxBatchSize: -1},
			wantErr:    "max_batch_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRoutingConfig()
			cfg.Assignments[item.TypeLogicalReasoning] = tt.assignment

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRoutingConfig(t *testing.T) {
	content := `version: 1
specialist_routing_enabled: true
assignments:
  logical_reasoning: {provider: anthropic, model: claude-sonnet-4-20250514, fallback: openai}
  quantitative_reasoning: {provider: openai, model: gpt-5.2-pro}
  verbal_reasoning: {provider: anthropic, model: claude-sonnet-4-20250514}
  reading_comprehension: {provider: google, model: gemini-2.0-pro}
  spatial_reasoning: {provider: openai, model: gpt-5.2-thinking}
  memory_recall: {provider: deepseek, model: deepseek-chat, max_batch_size: 100}
default_assignment: {provider: anthropic, model: claude-sonnet-4-20250514}
`
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadRoutingConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.SpecialistRoutingEnabled {
		t.Fatalf("specialist routing flag lost")
	}
	a := cfg.Assignments[item.TypeMemoryRecall]
	if a.Provider != "deepseek" || a.MaxBatchSize != 100 {
		t.Fatalf("memory_recall assignment wrong: %+v", a)
	}
}

func TestLoadRoutingConfigRejectsInvalid(t *testing.T) {
	content := `version: 1
assignments:
  logical_reasoning: {provider: skynet}
default_assignment: {provider: anthropic}
`
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRoutingConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
