package performance

import "strings"

const (
	GoalStatusPending    = "pending"
	GoalStatusInProgress = "in-progress"
	GoalStatusCompleted  = "completed"
	GoalStatusOnHold     = "on-hold"

	GoalModeTraining = "Training"
	GoalModeProject  = "Project"

	BadgeTypeCourse  = "course"
	BadgeTypeProject = "project"
)

// Badge tiers, lowest to highest.
var BadgeTiers = []string{"Green", "Cyan", "Blue", "Purple", "Red"}

func ValidBadgeTier(tier string) bool {
	_, ok := CanonicalBadgeTier(tier)
	return ok
}

// CanonicalBadgeTier resolves a tier name case-insensitively to its stored
// spelling. The badges table only accepts the canonical forms.
func CanonicalBadgeTier(tier string) (string, bool) {
	for _, t := range BadgeTiers {
		if strings.EqualFold(t, tier) {
			return t, true
		}
	}
	return "", false
}

func ValidGoalStatus(status string) bool {
	switch status {
	case GoalStatusPending, GoalStatusInProgress, GoalStatusCompleted, GoalStatusOnHold:
		return true
	}
	return false
}
