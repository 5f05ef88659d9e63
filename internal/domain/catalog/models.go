package catalog

import "time"

type Course struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Difficulty    string    `json:"difficulty"`
	ETA           string    `json:"eta"`
	BadgeReward   string    `json:"badgeReward"`
	Prerequisites []string  `json:"preRequisites"`
	SkillsGained  []string  `json:"skillsGained"`
	Content       []Module  `json:"content"`
	EnrolledCount int       `json:"enrolledCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Module is one content unit of a course. Position fixes the order the
// content is presented in.
type Module struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	VideoURL      string   `json:"videoUrl"`
	ResourceLinks []string `json:"resourceLinks"`
	Position      int      `json:"position"`
}

type Enrollment struct {
	ID               string     `json:"id"`
	CourseID         string     `json:"courseId"`
	UserID           string     `json:"userId"`
	EnrolledAt       time.Time  `json:"enrolledAt"`
	Progress         int        `json:"progress"`
	CompletedModules []string   `json:"completedModules"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// CourseStatus is the read-only projection served to dashboards.
type CourseStatus struct {
	Progress         int      `json:"progress"`
	CompletedModules []string `json:"completedModules"`
	CourseContent    []Module `json:"courseContent"`
}

type CourseDetails struct {
	Name          string
	Description   string
	Category      string
	Difficulty    string
	ETA           string
	BadgeReward   string
	Prerequisites []string
	SkillsGained  []string
	Content       []ModuleDetails
}

type ModuleDetails struct {
	Title         string
	Description   string
	VideoURL      string
	ResourceLinks []string
}
