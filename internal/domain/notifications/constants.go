package notifications

const (
	TypeEnrollment       = "course_enrolled"
	TypeCourseCompleted  = "course_completed"
	TypeProjectAssigned  = "project_assigned"
	TypeProjectCompleted = "project_completed"
	TypeBadgeEarned      = "badge_earned"
)
