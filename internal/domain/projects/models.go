package projects

import "time"

type Project struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Priority       string         `json:"priority"`
	Budget         float64        `json:"budget"`
	Deadline       *time.Time     `json:"deadline,omitempty"`
	Status         string         `json:"status"`
	BadgeReward    string         `json:"badgeReward"`
	SkillsRequired []string       `json:"skillsRequired"`
	SkillsGained   []string       `json:"skillsGained"`
	ManagedBy      string         `json:"managedBy"`
	ManagerName    string         `json:"managerName,omitempty"`
	AssignedUsers  []AssignedUser `json:"assignedUsers"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type AssignedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectDetails is the write payload for addProject and modifyProject.
type ProjectDetails struct {
	Name           string
	Description    string
	Priority       string
	Budget         float64
	Deadline       *time.Time
	Status         string
	BadgeReward    string
	SkillsRequired []string
	SkillsGained   []string
	ManagedBy      string
}
