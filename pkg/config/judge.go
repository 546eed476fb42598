package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/itemforge/pkg/item"
)

// EvaluationCriteria holds the per-criterion acceptance weights. Difficulty
// is deliberately absent: it drives placement, never acceptance.
type EvaluationCriteria struct {
	Clarity    float64 `yaml:"clarity"`
	Validity   float64 `yaml:"validity"`
	Formatting float64 `yaml:"formatting"`
	Creativity float64 `yaml:"creativity"`
}

// Sum returns the total weight.
func (c EvaluationCriteria) Sum() float64 {
	return c.Clarity + c.Validity + c.Formatting + c.Creativity
}

// Normalized returns the criteria scaled so the weights sum to 1.
func (c EvaluationCriteria) Normalized() EvaluationCriteria {
	sum := c.Sum()
	if sum == 0 {
		return c
	}
	return EvaluationCriteria{
		Clarity:    c.Clarity / sum,
		Validity:   c.Validity / sum,
		Formatting: c.Formatting / sum,
		Creativity: c.Creativity / sum,
	}
}

// DifficultyPlacement holds the band-movement thresholds.
type DifficultyPlacement struct {
	DowngradeThreshold float64 `yaml:"downgrade_threshold"`
	UpgradeThreshold   float64 `yaml:"upgrade_threshold"`
}

// JudgeConfig holds judge routing plus scoring configuration.
type JudgeConfig struct {
	Version                  int                                      `yaml:"version"`
	Assignments              map[item.QuestionType]ProviderAssignment `yaml:"assignments"`
	DefaultAssignment        ProviderAssignment                       `yaml:"default_assignment"`
	SpecialistRoutingEnabled bool                                     `yaml:"specialist_routing_enabled"`
	EvaluationCriteria       EvaluationCriteria                       `yaml:"evaluation_criteria"`
	MinJudgeScore            float64                                  `yaml:"min_judge_score"`
	DifficultyPlacement      DifficultyPlacement                      `yaml:"difficulty_placement"`
	MaxConcurrentEvaluations int                                      `yaml:"max_concurrent_evaluations,omitempty"`
	EvaluationTimeoutSeconds int                                      `yaml:"evaluation_timeout_seconds,omitempty"`
}

// LoadJudgeConfig reads and validates judge configuration from a YAML file.
func LoadJudgeConfig(path string) (*JudgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg JudgeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse judge config: %w", err)
	}
	applyJudgeDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("judge config %s: %w", path, err)
	}
	return &cfg, nil
}

// Routing returns the judge's assignment table as a RoutingConfig so it can
// drive the same resolver as generation.
func (c *JudgeConfig) Routing() *RoutingConfig {
	return &RoutingConfig{
		Version:                  c.Version,
		Assignments:              c.Assignments,
		DefaultAssignment:        c.DefaultAssignment,
		SpecialistRoutingEnabled: c.SpecialistRoutingEnabled,
	}
}

// Validate checks the routing table and scoring parameters.
func (c *JudgeConfig) Validate() error {
	if err := c.Routing().Validate(); err != nil {
		return err
	}
	if c.EvaluationCriteria.Sum() <= 0 {
		return fmt.Errorf("evaluation_criteria weights must sum to a positive value")
	}
	if c.MinJudgeScore < 0 || c.MinJudgeScore > 1 {
		return fmt.Errorf("min_judge_score must be in [0,1], got %g", c.MinJudgeScore)
	}
	dp := c.DifficultyPlacement
	if dp.DowngradeThreshold < 0 || dp.UpgradeThreshold > 1 {
		return fmt.Errorf("difficulty_placement thresholds must be in [0,1]")
	}
	if dp.DowngradeThreshold >= dp.UpgradeThreshold {
		return fmt.Errorf("downgrade_threshold %g must be below upgrade_threshold %g",
			dp.DowngradeThreshold, dp.UpgradeThreshold)
	}
	if c.MaxConcurrentEvaluations < 1 {
		return fmt.Errorf("max_concurrent_evaluations must be at least 1")
	}
	return nil
}

func applyJudgeDefaults(cfg *JudgeConfig) {
	if cfg == nil {
		return
	}
	if cfg.MaxConcurrentEvaluations == 0 {
		cfg.MaxConcurrentEvaluations = 3
	}
	if cfg.EvaluationTimeoutSeconds == 0 {
		cfg.EvaluationTimeoutSeconds = 120
	}
}

// DefaultJudgeConfig returns the built-in judge configuration used when no
// judge file is present.
func DefaultJudgeConfig() *JudgeConfig {
	assignments := make(map[item.QuestionType]ProviderAssignment, len(item.RequiredTypes))
	for _, qt := range item.RequiredTypes {
		assignments[qt] = ProviderAssignment{
			Provider:      "anthropic",
			Model:         "claude-opus-4-20250514",
			Rationale:     "strict grader with stable rubric adherence",
			Fallback:      "openai",
			FallbackModel: "gpt-5.2-pro",
		}
	}
	cfg := &JudgeConfig{
		Version:           1,
		Assignments:       assignments,
		DefaultAssignment: assignments[item.TypeLogicalReasoning],
		EvaluationCriteria: EvaluationCriteria{
			Clarity:    0.30,
			Validity:   0.40,
			Formatting: 0.15,
			Creativity: 0.15,
		},
		MinJudgeScore: 0.70,
		DifficultyPlacement: DifficultyPlacement{
			DowngradeThreshold: 0.35,
			UpgradeThreshold:   0.65,
		},
		SpecialistRoutingEnabled: true,
	}
	applyJudgeDefaults(cfg)
	return cfg
}
