package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Summary is the portal-wide counter block for the admin dashboard.
type Summary struct {
	Users            int `json:"users"`
	Courses          int `json:"courses"`
	Enrollments      int `json:"enrollments"`
	CompletedCourses int `json:"completedCourses"`
	ActiveProjects   int `json:"activeProjects"`
	BadgesEarned     int `json:"badgesEarned"`
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM users),
      (SELECT COUNT(1) FROM courses),
      (SELECT COUNT(1) FROM enrollments),
      (SELECT COUNT(1) FROM enrollments WHERE completed_at IS NOT NULL),
      (SELECT COUNT(1) FROM projects WHERE status IN ('planning', 'in-progress')),
      (SELECT COUNT(1) FROM badges)
  `).Scan(&out.Users, &out.Courses, &out.Enrollments, &out.CompletedCourses, &out.ActiveProjects, &out.BadgesEarned)
	return out, err
}

type trainingRow struct {
	CourseName  string
	Progress    int
	EnrolledAt  time.Time
	CompletedAt *time.Time
}

type badgeRow struct {
	Title      string
	BadgeType  string
	DateEarned time.Time
}

func (s *Store) userHeader(ctx context.Context, userID string) (name, email string, err error) {
	err = s.DB.QueryRow(ctx, "SELECT name, email FROM users WHERE id = $1", userID).Scan(&name, &email)
	return name, email, err
}

func (s *Store) trainingRows(ctx context.Context, userID string) ([]trainingRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.name, e.progress, e.enrolled_at, e.completed_at
    FROM enrollments e
    JOIN courses c ON e.course_id = c.id
    WHERE e.user_id = $1
    ORDER BY e.enrolled_at
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trainingRow
	for rows.Next() {
		var tr trainingRow
		if err := rows.Scan(&tr.CourseName, &tr.Progress, &tr.EnrolledAt, &tr.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) badgeRows(ctx context.Context, userID string) ([]badgeRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT b.title, b.badge_type, b.date_earned
    FROM badges b
    JOIN performance_periods p ON b.period_id = p.id
    WHERE p.user_id = $1
    ORDER BY b.date_earned
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []badgeRow
	for rows.Next() {
		var br badgeRow
		if err := rows.Scan(&br.Title, &br.BadgeType, &br.DateEarned); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}
