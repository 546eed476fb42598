package router

import (
	"errors"
	"testing"

	"github.com/zen-systems/itemforge/pkg/config"
	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
)

func testConfig() *config.RoutingConfig {
	cfg := config.DefaultRoutingConfig()
	cfg.Assignments[item.TypeLogicalReasoning] = config.ProviderAssignment{
		Provider:      "anthropic",
		Model:         "claude-sonnet-4-20250514",
		Fallback:      "openai",
		FallbackModel: "gpt-5.2-thinking",
	}
	cfg.Assignments[item.TypeMemoryRecall] = config.ProviderAssignment{
		Provider: "deepseek",
		Model:    "deepseek-chat",
		Fallback: "openai",
	}
	return cfg
}

func TestResolvePrimary(t *testing.T) {
	r := NewResolver(testConfig())

	tests := []struct {
		name       string
		qt         item.QuestionType
		available  []provider.Vendor
		tier       Tier
		wantVendor provider.Vendor
		wantModel  string
	}{
		{
			name:       "primary available",
			qt:         item.TypeLogicalReasoning,
			available:  []provider.Vendor{provider.VendorAnthropic, provider.VendorOpenAI},
			tier:       TierPrimary,
			wantVendor: provider.VendorAnthropic,
			wantModel:  "claude-sonnet-4-20250514",
		},
		{
			name:       "primary down, fallback takes over with its model",
			qt:         item.TypeLogicalReasoning,
			available:  []provider.Vendor{provider.VendorOpenAI, provider.VendorGoogle},
			tier:       TierPrimary,
			wantVendor: provider.VendorOpenAI,
			wantModel:  "gpt-5.2-thinking",
		},
		{
			name:       "fallback without model override",
			qt:         item.TypeMemoryRecall,
			available:  []provider.Vendor{provider.VendorOpenAI},
			tier:       TierPrimary,
			wantVendor: provider.VendorOpenAI,
			wantModel:  "",
		},
		{
			name:       "neither assigned vendor reachable",
			qt:         item.TypeLogicalReasoning,
			available:  []provider.Vendor{provider.VendorGoogle, provider.VendorDeepSeek},
			tier:       TierPrimary,
			wantVendor: provider.VendorGoogle,
			wantModel:  "",
		},
		{
			name:       "fallback tier prefers fallback vendor",
			qt:         item.TypeLogicalReasoning,
			available:  []provider.Vendor{provider.VendorAnthropic, provider.VendorOpenAI},
			tier:       TierFallback,
			wantVendor: provider.VendorOpenAI,
			wantModel:  "gpt-5.2-thinking",
		},
		{
			name:       "fallback tier falls back to primary resolution",
			qt:         item.TypeLogicalReasoning,
			available:  []provider.Vendor{provider.VendorAnthropic},
			tier:       TierFallback,
			wantVendor: provider.VendorAnthropic,
			wantModel:  "claude-sonnet-4-20250514",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution, err := r.Resolve(tt.qt, tt.available, tt.tier)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if resolution.Vendor != tt.wantVendor || resolution.Model != tt.wantModel {
				t.Fatalf("got %s/%q, want %s/%q", resolution.Vendor, resolution.Model, tt.wantVendor, tt.wantModel)
			}
		})
	}
}

func TestResolveNeverInventsVendors(t *testing.T) {
	r := NewResolver(testConfig())
	available := []provider.Vendor{provider.VendorGoogle}

	for _, qt := range item.RequiredTypes {
		for _, tier := range []Tier{TierPrimary, TierFallback} {
			resolution, err := r.Resolve(qt, available, tier)
			if err != nil {
				t.Fatalf("%s: resolve: %v", qt, err)
			}
			if resolution.Vendor != provider.VendorGoogle {
				t.Fatalf("%s: resolved vendor %s not in available set", qt, resolution.Vendor)
			}
		}
	}
}

func TestResolveEmptyAvailableFails(t *testing.T) {
	r := NewResolver(testConfig())
	_, err := r.Resolve(item.TypeLogicalReasoning, nil, TierPrimary)
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestResolveUnknownTypeUsesDefault(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultAssignment = config.ProviderAssignment{Provider: "google", Model: "gemini-2.0-pro"}
	r := NewResolver(cfg)

	resolution, err := r.Resolve(item.QuestionType("brand_new_domain"),
		[]provider.Vendor{provider.VendorGoogle, provider.VendorAnthropic}, TierPrimary)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Vendor != provider.VendorGoogle || resolution.Model != "gemini-2.0-pro" {
		t.Fatalf("default assignment not used: %+v", resolution)
	}
}

func TestResolveSpecialistRoutingDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SpecialistRoutingEnabled = false
	r := NewResolver(cfg)

	resolution, err := r.Resolve(item.TypeLogicalReasoning,
		[]provider.Vendor{provider.VendorDeepSeek, provider.VendorAnthropic}, TierPrimary)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolution.Vendor != provider.VendorDeepSeek || resolution.Model != "" {
		t.Fatalf("expected first available vendor with no model override, got %+v", resolution)
	}
}
