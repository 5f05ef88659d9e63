package catalog

import (
	"context"
	"time"
)

// StoreAPI is the data surface the enrollment tracker runs on. The pgx
// implementation lives in store.go; tests substitute an in-memory one.
type StoreAPI interface {
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, courseID string) (Course, error)
	CreateCourse(ctx context.Context, details CourseDetails) (string, error)
	UpdateCourse(ctx context.Context, courseID string, details CourseDetails) error
	DeleteCourse(ctx context.Context, courseID string) error
	UserExists(ctx context.Context, userID string) (bool, error)
	GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, bool, error)
	ListUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)

	// InTx runs fn inside a single database transaction. Both sides of the
	// enrollment/goal sync commit or roll back together.
	InTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the transaction-scoped slice of the store used by Enroll and
// CompleteModule.
type TxStore interface {
	InsertEnrollment(ctx context.Context, userID, courseID string) (string, error)
	MarkModuleCompleted(ctx context.Context, enrollmentID, moduleID string) (bool, error)
	CompletedModuleCount(ctx context.Context, enrollmentID string) (int, error)
	UpdateEnrollmentProgress(ctx context.Context, enrollmentID string, progress int, completedAt *time.Time) error

	EnsureActivePeriod(ctx context.Context, userID string) (string, error)
	InsertGoal(ctx context.Context, periodID, title, mode, status, courseID string) error
	GoalForCourse(ctx context.Context, userID, courseID string) (goalID, status string, found bool, err error)
	CompleteGoal(ctx context.Context, goalID string, completedAt time.Time) error
	SetGoalStatus(ctx context.Context, goalID, status string) error
	AwardBadge(ctx context.Context, userID, title, badgeType, description string) error
}
