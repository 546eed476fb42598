package judge

import (
	"testing"

	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
)

func placementJudge() *Judge {
	return New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: provider.NewMockClient(),
	})
}

func TestDeterminePlacement(t *testing.T) {
	j := placementJudge()

	tests := []struct {
		name     string
		current  item.Difficulty
		score    float64
		feedback string
		want     item.Difficulty
		moved    bool
	}{
		{"low score moves down one band", item.DifficultyHard, 0.10, "", item.DifficultyMedium, true},
		{"high score moves up one band", item.DifficultyEasy, 0.90, "", item.DifficultyMedium, true},
		{"down clamped at easy", item.DifficultyEasy, 0.05, "", item.DifficultyEasy, false},
		{"up clamped at hard", item.DifficultyHard, 0.95, "", item.DifficultyHard, false},
		{"score on downgrade threshold stays", item.DifficultyMedium, 0.35, "", item.DifficultyMedium, false},
		{"score on upgrade threshold stays", item.DifficultyMedium, 0.65, "", item.DifficultyMedium, false},
		{"mid score no feedback stays", item.DifficultyMedium, 0.50, "fine item", item.DifficultyMedium, false},
		{"mid score too easy feedback moves down", item.DifficultyMedium, 0.50, "This plays TOO EASY for the band", item.DifficultyEasy, true},
		{"mid score too hard feedback moves up", item.DifficultyMedium, 0.50, "too hard for most takers", item.DifficultyHard, true},
		{"too easy feedback clamped at easy", item.DifficultyEasy, 0.50, "too easy", item.DifficultyEasy, false},
		{"feedback ignored outside threshold window", item.DifficultyMedium, 0.90, "too easy", item.DifficultyHard, true},
		{"unknown band untouched", item.Difficulty("extreme"), 0.05, "", item.Difficulty("extreme"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := j.DeterminePlacement(tt.current, tt.score, tt.feedback)
			if got != tt.want {
				t.Fatalf("placement %s, want %s (reason %q)", got, tt.want, reason)
			}
			if tt.moved && reason == "" {
				t.Fatalf("band moved without a reason")
			}
			if !tt.moved && reason != "" {
				t.Fatalf("band unchanged but reason %q given", reason)
			}
		})
	}
}

func TestDeterminePlacementSingleStep(t *testing.T) {
	j := placementJudge()

	// Even an extreme score moves exactly one band per evaluation.
	got, _ := j.DeterminePlacement(item.DifficultyEasy, 1.0, "")
	if got != item.DifficultyMedium {
		t.Fatalf("expected one-step move to medium, got %s", got)
	}
	got, _ = j.DeterminePlacement(item.DifficultyHard, 0.0, "")
	if got != item.DifficultyMedium {
		t.Fatalf("expected one-step move to medium, got %s", got)
	}
}
