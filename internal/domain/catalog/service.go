package catalog

import (
	"context"
	"fmt"
	"time"

	"companygrow/internal/domain/performance"
)

// Service is the enrollment / progress tracker. Course-side state (the
// enrollment record and its completed-module set) and user-side state (the
// Training goal on the active performance period) are kept consistent by
// running every mutation in one transaction.
type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListCourses(ctx context.Context) ([]Course, error) {
	return s.store.ListCourses(ctx)
}

func (s *Service) GetCourse(ctx context.Context, courseID string) (Course, error) {
	return s.store.GetCourse(ctx, courseID)
}

func (s *Service) CreateCourse(ctx context.Context, details CourseDetails) (string, error) {
	return s.store.CreateCourse(ctx, details)
}

func (s *Service) UpdateCourse(ctx context.Context, courseID string, details CourseDetails) error {
	return s.store.UpdateCourse(ctx, courseID, details)
}

func (s *Service) DeleteCourse(ctx context.Context, courseID string) error {
	return s.store.DeleteCourse(ctx, courseID)
}

func (s *Service) ListUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	return s.store.ListUserEnrollments(ctx, userID)
}

// Enroll creates the enrollment record and the matching Training goal on the
// user's active performance period, creating the period when none exists.
// The goal starts out pending and moves to in-progress on the first module
// completion.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return Enrollment{}, err
	}
	if !exists {
		return Enrollment{}, ErrUserNotFound
	}
	if _, enrolled, err := s.store.GetEnrollment(ctx, userID, courseID); err != nil {
		return Enrollment{}, err
	} else if enrolled {
		return Enrollment{}, ErrAlreadyEnrolled
	}

	var enrollmentID string
	err = s.store.InTx(ctx, func(tx TxStore) error {
		id, err := tx.InsertEnrollment(ctx, userID, courseID)
		if err != nil {
			return err
		}
		enrollmentID = id

		periodID, err := tx.EnsureActivePeriod(ctx, userID)
		if err != nil {
			return err
		}
		return tx.InsertGoal(ctx, periodID, course.Name, performance.GoalModeTraining, performance.GoalStatusPending, courseID)
	})
	if err != nil {
		return Enrollment{}, err
	}

	enrollment, enrolled, err := s.store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !enrolled {
		return Enrollment{ID: enrollmentID, CourseID: courseID, UserID: userID, CompletedModules: []string{}}, nil
	}
	return enrollment, nil
}

// CompleteModule records a module completion and returns the updated
// progress percentage. Re-completing a module is a no-op. On reaching 100%
// the enrollment is stamped, the goal flips to completed, and the course's
// badge reward is granted, all inside the same transaction.
func (s *Service) CompleteModule(ctx context.Context, userID, courseID, moduleID string) (int, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if !courseHasModule(course, moduleID) {
		return 0, ErrModuleNotFound
	}
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrUserNotFound
	}
	enrollment, enrolled, err := s.store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	if !enrolled {
		return 0, ErrNotEnrolled
	}

	progress := enrollment.Progress
	err = s.store.InTx(ctx, func(tx TxStore) error {
		if _, err := tx.MarkModuleCompleted(ctx, enrollment.ID, moduleID); err != nil {
			return err
		}
		completed, err := tx.CompletedModuleCount(ctx, enrollment.ID)
		if err != nil {
			return err
		}
		progress = ComputeProgress(completed, len(course.Content))

		now := time.Now().UTC()
		var completedAt *time.Time
		completedNow := false
		if progress >= 100 {
			if enrollment.CompletedAt != nil {
				completedAt = enrollment.CompletedAt
			} else {
				completedAt = &now
				completedNow = true
			}
		}
		if err := tx.UpdateEnrollmentProgress(ctx, enrollment.ID, progress, completedAt); err != nil {
			return err
		}

		if err := s.syncGoal(ctx, tx, userID, courseID, course.Name, progress, now); err != nil {
			return err
		}

		if completedNow && course.BadgeReward != "" {
			description := fmt.Sprintf("Completed course %q", course.Name)
			if err := tx.AwardBadge(ctx, userID, course.BadgeReward, performance.BadgeTypeCourse, description); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return progress, nil
}

// syncGoal moves the Training goal joined to the course into the status the
// progress value implies. An enrollment without a goal gets the missing goal
// created here rather than skipped: the pair is meant to stay consistent and
// a silent skip would leave it broken forever.
func (s *Service) syncGoal(ctx context.Context, tx TxStore, userID, courseID, courseName string, progress int, now time.Time) error {
	goalID, status, found, err := tx.GoalForCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !found {
		periodID, err := tx.EnsureActivePeriod(ctx, userID)
		if err != nil {
			return err
		}
		initial := NextGoalStatus(progress, performance.GoalStatusPending)
		if err := tx.InsertGoal(ctx, periodID, courseName, performance.GoalModeTraining, initial, courseID); err != nil {
			return err
		}
		if initial != performance.GoalStatusCompleted {
			return nil
		}
		createdID, _, _, err := tx.GoalForCourse(ctx, userID, courseID)
		if err != nil {
			return err
		}
		return tx.CompleteGoal(ctx, createdID, now)
	}

	next := NextGoalStatus(progress, status)
	if next == status {
		return nil
	}
	if next == performance.GoalStatusCompleted {
		return tx.CompleteGoal(ctx, goalID, now)
	}
	return tx.SetGoalStatus(ctx, goalID, next)
}

// CourseStatus returns the dashboard projection of one enrollment.
func (s *Service) CourseStatus(ctx context.Context, userID, courseID string) (CourseStatus, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return CourseStatus{}, err
	}
	enrollment, enrolled, err := s.store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return CourseStatus{}, err
	}
	if !enrolled {
		return CourseStatus{}, ErrNotEnrolled
	}
	completed := enrollment.CompletedModules
	if completed == nil {
		completed = []string{}
	}
	return CourseStatus{
		Progress:         enrollment.Progress,
		CompletedModules: completed,
		CourseContent:    course.Content,
	}, nil
}
