// Package router resolves which vendor and model serve a question type,
// honoring primary/fallback assignments and the set of vendors that are
// actually reachable.
package router

import (
	"errors"
	"fmt"

	"github.com/zen-systems/itemforge/pkg/config"
	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
)

// Tier selects which side of an assignment resolution starts from.
type Tier int

const (
	// TierPrimary resolves the assignment's primary vendor first.
	TierPrimary Tier = iota
	// TierFallback prefers the assignment's fallback vendor.
	TierFallback
)

// ErrNoProvider is returned when the available vendor set is empty. Callers
// must handle it structurally rather than treating it as a generic failure.
var ErrNoProvider = errors.New("no provider available")

// Resolution is a resolved vendor/model pair. Model may be empty, meaning
// the vendor's default model.
type Resolution struct {
	Vendor provider.Vendor
	Model  string
}

// Resolver resolves question types against an immutable routing config.
type Resolver struct {
	cfg *config.RoutingConfig
}

// NewResolver creates a resolver over a loaded routing config.
func NewResolver(cfg *config.RoutingConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve picks a vendor and model for the question type from the vendors
// currently available. Unknown question types resolve against the default
// assignment. With specialist routing disabled, the first available vendor
// wins with no model override.
func (r *Resolver) Resolve(qt item.QuestionType, available []provider.Vendor, tier Tier) (Resolution, error) {
	if len(available) == 0 {
		return Resolution{}, fmt.Errorf("%w for question type %s", ErrNoProvider, qt)
	}

	if !r.cfg.SpecialistRoutingEnabled {
		return Resolution{Vendor: available[0]}, nil
	}

	assignment, ok := r.cfg.Assignments[qt]
	if !ok {
		assignment = r.cfg.DefaultAssignment
	}

	if tier == TierFallback && assignment.Fallback != "" {
		if fallback, ok := vendorIn(assignment.Fallback, available); ok {
			return Resolution{Vendor: fallback, Model: assignment.FallbackModel}, nil
		}
	}

	if primary, ok := vendorIn(assignment.Provider, available); ok {
		return Resolution{Vendor: primary, Model: assignment.Model}, nil
	}
	if assignment.Fallback != "" {
		if fallback, ok := vendorIn(assignment.Fallback, available); ok {
			return Resolution{Vendor: fallback, Model: assignment.FallbackModel}, nil
		}
	}

	// Neither assigned vendor is reachable; any available vendor serves with
	// its own default model.
	return Resolution{Vendor: available[0]}, nil
}

// Assignment returns the effective assignment for a question type.
func (r *Resolver) Assignment(qt item.QuestionType) config.ProviderAssignment {
	if assignment, ok := r.cfg.Assignments[qt]; ok {
		return assignment
	}
	return r.cfg.DefaultAssignment
}

func vendorIn(name string, available []provider.Vendor) (provider.Vendor, bool) {
	for _, v := range available {
		if string(v) == name {
			return v, true
		}
	}
	return "", false
}
