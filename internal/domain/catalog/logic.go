package catalog

import "companygrow/internal/domain/performance"

// ComputeProgress returns the integer percentage of completed modules,
// rounded down. Progress derives from the completed set on every call and is
// never stored as an independently drifting counter.
func ComputeProgress(completedModules, totalModules int) int {
	if totalModules <= 0 || completedModules <= 0 {
		return 0
	}
	if completedModules >= totalModules {
		return 100
	}
	return 100 * completedModules / totalModules
}

// NextGoalStatus maps a progress value onto the goal status it implies.
// A completed goal never leaves completed, no matter what later no-op
// completion calls report.
func NextGoalStatus(progress int, current string) string {
	if current == performance.GoalStatusCompleted {
		return performance.GoalStatusCompleted
	}
	if progress >= 100 {
		return performance.GoalStatusCompleted
	}
	if progress > 0 {
		return performance.GoalStatusInProgress
	}
	return current
}

// courseHasModule reports whether the module id belongs to the course
// content.
func courseHasModule(course Course, moduleID string) bool {
	for _, m := range course.Content {
		if m.ID == moduleID {
			return true
		}
	}
	return false
}
