package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"companygrow/internal/domain/performance"
)

type Store struct {
	DB          *pgxpool.Pool
	Performance *performance.Store
}

func NewStore(db *pgxpool.Pool, perf *performance.Store) *Store {
	return &Store{DB: db, Performance: perf}
}

func (s *Store) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, c.description, c.category, c.difficulty, c.eta,
           c.badge_reward, c.prerequisites, c.skills_gained, c.created_at,
           (SELECT COUNT(1) FROM enrollments e WHERE e.course_id = c.id)
    FROM courses c
    ORDER BY c.created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.Difficulty, &c.ETA,
			&c.BadgeReward, &c.Prerequisites, &c.SkillsGained, &c.CreatedAt, &c.EnrolledCount); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range courses {
		content, err := s.courseContent(ctx, courses[i].ID)
		if err != nil {
			return nil, err
		}
		courses[i].Content = content
	}
	return courses, nil
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (Course, error) {
	var c Course
	err := s.DB.QueryRow(ctx, `
    SELECT c.id, c.name, c.description, c.category, c.difficulty, c.eta,
           c.badge_reward, c.prerequisites, c.skills_gained, c.created_at,
           (SELECT COUNT(1) FROM enrollments e WHERE e.course_id = c.id)
    FROM courses c
    WHERE c.id = $1
  `, courseID).Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.Difficulty, &c.ETA,
		&c.BadgeReward, &c.Prerequisites, &c.SkillsGained, &c.CreatedAt, &c.EnrolledCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, ErrCourseNotFound
	}
	if err != nil {
		return Course{}, err
	}
	content, err := s.courseContent(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	c.Content = content
	return c, nil
}

func (s *Store) courseContent(ctx context.Context, courseID string) ([]Module, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, title, description, video_url, resource_links, position
    FROM course_modules
    WHERE course_id = $1
    ORDER BY position
  `, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	modules := []Module{}
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.VideoURL, &m.ResourceLinks, &m.Position); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (s *Store) CreateCourse(ctx context.Context, details CourseDetails) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO courses (name, description, category, difficulty, eta, badge_reward, prerequisites, skills_gained)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id
  `, details.Name, details.Description, details.Category, details.Difficulty, details.ETA,
		details.BadgeReward, details.Prerequisites, details.SkillsGained).Scan(&id)
	if err != nil {
		return "", err
	}

	for i, m := range details.Content {
		if _, err := tx.Exec(ctx, `
      INSERT INTO course_modules (course_id, position, title, description, video_url, resource_links)
      VALUES ($1, $2, $3, $4, $5, $6)
    `, id, i+1, m.Title, m.Description, m.VideoURL, m.ResourceLinks); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateCourse rewrites the course row and replaces its content modules.
// Completed-module rows referencing replaced modules go away with them
// (FK cascade), so progress recomputation stays truthful.
func (s *Store) UpdateCourse(ctx context.Context, courseID string, details CourseDetails) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE courses
    SET name = $1, description = $2, category = $3, difficulty = $4, eta = $5,
        badge_reward = $6, prerequisites = $7, skills_gained = $8
    WHERE id = $9
  `, details.Name, details.Description, details.Category, details.Difficulty, details.ETA,
		details.BadgeReward, details.Prerequisites, details.SkillsGained, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	if details.Content != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM course_modules WHERE course_id = $1", courseID); err != nil {
			return err
		}
		for i, m := range details.Content {
			if _, err := tx.Exec(ctx, `
        INSERT INTO course_modules (course_id, position, title, description, video_url, resource_links)
        VALUES ($1, $2, $3, $4, $5, $6)
      `, courseID, i+1, m.Title, m.Description, m.VideoURL, m.ResourceLinks); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteCourse(ctx context.Context, courseID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM courses WHERE id = $1", courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE id = $1", userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, bool, error) {
	var e Enrollment
	err := s.DB.QueryRow(ctx, `
    SELECT id, course_id, user_id, enrolled_at, progress, completed_at
    FROM enrollments
    WHERE user_id = $1 AND course_id = $2
  `, userID, courseID).Scan(&e.ID, &e.CourseID, &e.UserID, &e.EnrolledAt, &e.Progress, &e.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Enrollment{}, false, nil
	}
	if err != nil {
		return Enrollment{}, false, err
	}

	modules, err := s.completedModules(ctx, e.ID)
	if err != nil {
		return Enrollment{}, false, err
	}
	e.CompletedModules = modules
	return e, true, nil
}

func (s *Store) completedModules(ctx context.Context, enrollmentID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT em.module_id
    FROM enrollment_modules em
    JOIN course_modules m ON em.module_id = m.id
    WHERE em.enrollment_id = $1
    ORDER BY m.position
  `, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, course_id, user_id, enrolled_at, progress, completed_at
    FROM enrollments
    WHERE user_id = $1
    ORDER BY enrolled_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := []Enrollment{}
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.UserID, &e.EnrolledAt, &e.Progress, &e.CompletedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range enrollments {
		modules, err := s.completedModules(ctx, enrollments[i].ID)
		if err != nil {
			return nil, err
		}
		enrollments[i].CompletedModules = modules
	}
	return enrollments, nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx TxStore) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	wrapped := &pgxTxStore{tx: tx, perf: s.Performance}
	if err := fn(wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type pgxTxStore struct {
	tx   pgx.Tx
	perf *performance.Store
}

func (t *pgxTxStore) InsertEnrollment(ctx context.Context, userID, courseID string) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO enrollments (course_id, user_id, enrolled_at, progress)
    VALUES ($1, $2, now(), 0)
    RETURNING id
  `, courseID, userID).Scan(&id)
	return id, err
}

func (t *pgxTxStore) MarkModuleCompleted(ctx context.Context, enrollmentID, moduleID string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
    INSERT INTO enrollment_modules (enrollment_id, module_id, completed_at)
    VALUES ($1, $2, now())
    ON CONFLICT (enrollment_id, module_id) DO NOTHING
  `, enrollmentID, moduleID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *pgxTxStore) CompletedModuleCount(ctx context.Context, enrollmentID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, "SELECT COUNT(1) FROM enrollment_modules WHERE enrollment_id = $1", enrollmentID).Scan(&count)
	return count, err
}

func (t *pgxTxStore) UpdateEnrollmentProgress(ctx context.Context, enrollmentID string, progress int, completedAt *time.Time) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE enrollments SET progress = $1, completed_at = $2 WHERE id = $3
  `, progress, completedAt, enrollmentID)
	return err
}

func (t *pgxTxStore) EnsureActivePeriod(ctx context.Context, userID string) (string, error) {
	return t.perf.EnsureActivePeriodTx(ctx, t.tx, userID)
}

func (t *pgxTxStore) InsertGoal(ctx context.Context, periodID, title, mode, status, courseID string) error {
	_, err := t.perf.InsertGoalTx(ctx, t.tx, periodID, title, mode, status, &courseID, nil)
	return err
}

func (t *pgxTxStore) GoalForCourse(ctx context.Context, userID, courseID string) (string, string, bool, error) {
	goal, err := t.perf.GoalForCourseTx(ctx, t.tx, userID, courseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return goal.ID, goal.Status, true, nil
}

func (t *pgxTxStore) CompleteGoal(ctx context.Context, goalID string, completedAt time.Time) error {
	return t.perf.UpdateGoalStatusTx(ctx, t.tx, goalID, performance.GoalStatusCompleted, &completedAt)
}

func (t *pgxTxStore) SetGoalStatus(ctx context.Context, goalID, status string) error {
	return t.perf.UpdateGoalStatusTx(ctx, t.tx, goalID, status, nil)
}

func (t *pgxTxStore) AwardBadge(ctx context.Context, userID, title, badgeType, description string) error {
	return t.perf.AwardBadgeTx(ctx, t.tx, userID, title, badgeType, description)
}
