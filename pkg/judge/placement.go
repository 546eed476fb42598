package judge

import (
	"fmt"
	"strings"

	"github.com/zen-systems/itemforge/pkg/item"
)

// DeterminePlacement decides whether an item moves difficulty band. The
// difficulty score is absolute (~0.0-0.3 easy, ~0.4-0.6 medium, ~0.7-1.0
// hard). Bands move at most one step and never leave the ordered set; a
// score exactly on a threshold never moves the band. Between the thresholds
// the judge's free-text feedback is scanned for "too easy"/"too hard".
// The returned reason is empty when the band is unchanged.
func (j *Judge) DeterminePlacement(current item.Difficulty, difficultyScore float64, feedback string) (item.Difficulty, string) {
	idx := current.Index()
	if idx < 0 {
		return current, ""
	}

	dp := j.cfg.DifficultyPlacement
	if difficultyScore < dp.DowngradeThreshold {
		if idx == 0 {
			return current, ""
		}
		return item.Bands[idx-1], fmt.Sprintf(
			"difficulty score %.2f below downgrade threshold %.2f", difficultyScore, dp.DowngradeThreshold)
	}
	if difficultyScore > dp.UpgradeThreshold {
		if idx == len(item.Bands)-1 {
			return current, ""
		}
		return item.Bands[idx+1], fmt.Sprintf(
			"difficulty score %.2f above upgrade threshold %.2f", difficultyScore, dp.UpgradeThreshold)
	}

	if difficultyScore > dp.DowngradeThreshold && difficultyScore < dp.UpgradeThreshold {
		lowered := strings.ToLower(feedback)
		if strings.Contains(lowered, "too easy") && idx > 0 {
			return item.Bands[idx-1], "judge feedback indicates the item plays too easy for its band"
		}
		if strings.Contains(lowered, "too hard") && idx < len(item.Bands)-1 {
			return item.Bands[idx+1], "judge feedback indicates the item plays too hard for its band"
		}
	}

	return current, ""
}
