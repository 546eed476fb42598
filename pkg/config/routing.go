package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
)

// ProviderAssignment maps a question type to a vendor/model pair with an
// optional fallback.
type ProviderAssignment struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model,omitempty"`
	Rationale     string `yaml:"rationale,omitempty"`
	Fallback      string `yaml:"fallback,omitempty"`
	FallbackModel string `yaml:"fallback_model,omitempty"`
	MaxBatchSize  int    `yaml:"max_batch_size,omitempty"`
}

// RoutingConfig holds the declarative generation routing rules.
type RoutingConfig struct {
	Version                  int                                      `yaml:"version"`
	Assignments              map[item.QuestionType]ProviderAssignment `yaml:"assignments"`
	DefaultAssignment        ProviderAssignment                       `yaml:"default_assignment"`
	SpecialistRoutingEnabled bool                                     `yaml:"specialist_routing_enabled"`
}

// LoadRoutingConfig reads and validates routing configuration from a YAML file.
func LoadRoutingConfig(path string) (*RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse routing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("routing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the assignment table against the closed vendor set and the
// fixed required question types.
func (c *RoutingConfig) Validate() error {
	var missing []string
	for _, qt := range item.RequiredTypes {
		if _, ok := c.Assignments[qt]; !ok {
			missing = append(missing, string(qt))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required question types: %s", strings.Join(missing, ", "))
	}

	for qt, assignment := range c.Assignments {
		if err := validateAssignment(assignment); err != nil {
			return fmt.Errorf("assignment %s: %w", qt, err)
		}
	}
	if err := validateAssignment(c.DefaultAssignment); err != nil {
		return fmt.Errorf("default_assignment: %w", err)
	}
	return nil
}

func validateAssignment(a ProviderAssignment) error {
	if _, err := provider.ParseVendor(a.Provider); err != nil {
		return fmt.Errorf("invalid provider: %w", err)
	}
	if a.Fallback != "" {
		if _, err := provider.ParseVendor(a.Fallback); err != nil {
			return fmt.Errorf("invalid fallback: %w", err)
		}
		if a.Fallback == a.Provider {
			return fmt.Errorf("fallback %q must differ from provider", a.Fallback)
		}
	}
	if a.FallbackModel != "" && a.Fallback == "" {
		return fmt.Errorf("fallback_model set without fallback")
	}
	if a.MaxBatchSize < 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", a.MaxBatchSize)
	}
	return nil
}

// DefaultRoutingConfig returns the built-in routing table used when no
// routing file is present.
func DefaultRoutingConfig() *RoutingConfig {
	return &RoutingConfig{
		Version: 1,
		Assignments: map[item.QuestionType]ProviderAssignment{
			item.TypeLogicalReasoning: {
				Provider:      "anthropic",
				Model:         "claude-sonnet-4-20250514",
				Rationale:     "strong multi-step deduction",
				Fallback:      "openai",
				FallbackModel: "gpt-5.2-thinking",
				MaxBatchSize:  50,
			},
			item.TypeQuantitativeReasoning: {
				Provider:      "openai",
				Model:         "gpt-5.2-pro",
				Rationale:     "best arithmetic and word-problem accuracy",
				Fallback:      "deepseek",
				FallbackModel: "deepseek-reasoner",
				MaxBatchSize:  50,
			},
			item.TypeVerbalReasoning: {
				Provider:      "anthropic",
				Model:         "claude-sonnet-4-20250514",
				Rationale:     "nuanced analogy and inference items",
				Fallback:      "google",
				FallbackModel: "gemini-2.0-pro",
				MaxBatchSize:  50,
			},
			item.TypeReadingComprehension: {
				Provider:      "google",
				Model:         "gemini-2.0-pro",
				Rationale:     "long-passage handling",
				Fallback:      "anthropic",
				FallbackModel: "claude-sonnet-4-20250514",
				MaxBatchSize:  25,
			},
			item.TypeSpatialReasoning: {
				Provider:      "openai",
				Model:         "gpt-5.2-thinking",
				Rationale:     "reliable on rotation and layout descriptions",
				Fallback:      "anthropic",
				FallbackModel: "claude-sonnet-4-20250514",
				MaxBatchSize:  50,
			},
			item.TypeMemoryRecall: {
				Provider:      "deepseek",
				Model:         "deepseek-chat",
				Rationale:     "cheap bulk stimulus generation",
				Fallback:      "openai",
				FallbackModel: "gpt-5.2-instant",
				MaxBatchSize:  100,
			},
		},
		DefaultAssignment: ProviderAssignment{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			Rationale: "general-purpose default",
			Fallback:  "openai",
		},
		SpecialistRoutingEnabled: true,
	}
}
