package users

import "time"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type User struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	RoleID           string            `json:"-"`
	Role             string            `json:"role"`
	Name             string            `json:"name"`
	Phone            string            `json:"phone,omitempty"`
	Department       string            `json:"department,omitempty"`
	Position         string            `json:"position,omitempty"`
	Experience       int               `json:"experience"`
	Skills           []string          `json:"skills"`
	Address          *Address          `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	LastLogin        *time.Time        `json:"lastLogin,omitempty"`
}

// NewUser is the admin-side creation payload.
type NewUser struct {
	Email      string
	Password   string
	Role       string
	Name       string
	Phone      string
	Department string
	Position   string
	Experience int
	Skills     []string
}

// ProfileUpdate carries the self-editable profile fields.
type ProfileUpdate struct {
	Phone            string
	Department       string
	Position         string
	Experience       int
	Skills           []string
	Address          *Address
	EmergencyContact *EmergencyContact
}

// UserCourse is the enrollment row joined with its course for the
// development dashboard.
type UserCourse struct {
	CourseID    string     `json:"courseId"`
	CourseName  string     `json:"courseName"`
	Category    string     `json:"category"`
	BadgeReward string     `json:"badgeReward"`
	Progress    int        `json:"progress"`
	EnrolledAt  time.Time  `json:"enrolledAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
