package performance

import "time"

// Period is a dated grouping of goals and badges for one user. At most one
// period per user is active at a time; goal and badge writes land on the
// active period.
type Period struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Active      bool      `json:"active"`
	Goals       []Goal    `json:"goals"`
	Badges      []Badge   `json:"badgesEarned"`
}

type Goal struct {
	ID          string     `json:"id"`
	PeriodID    string     `json:"-"`
	Title       string     `json:"title"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	CourseID    *string    `json:"courseId,omitempty"`
	ProjectID   *string    `json:"projectId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type Badge struct {
	ID          string    `json:"id"`
	PeriodID    string    `json:"-"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	DateEarned  time.Time `json:"dateEarned"`
	Description string    `json:"description"`
}
