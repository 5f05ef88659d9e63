package performance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// UserPerformance returns a user's performance history, newest period first,
// with goals and badges attached.
func (s *Store) UserPerformance(ctx context.Context, userID string) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, period_start, period_end, active
    FROM performance_periods
    WHERE user_id = $1
    ORDER BY period_start DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	index := map[string]int{}
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.UserID, &p.PeriodStart, &p.PeriodEnd, &p.Active); err != nil {
			return nil, err
		}
		p.Goals = []Goal{}
		p.Badges = []Badge{}
		index[p.ID] = len(periods)
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return []Period{}, nil
	}

	goalRows, err := s.DB.Query(ctx, `
    SELECT g.id, g.period_id, g.title, g.mode, g.status, g.course_id, g.project_id, g.completed_at
    FROM goals g
    JOIN performance_periods p ON g.period_id = p.id
    WHERE p.user_id = $1
    ORDER BY g.created_at
  `, userID)
	if err != nil {
		return nil, err
	}
	defer goalRows.Close()

	for goalRows.Next() {
		var g Goal
		if err := goalRows.Scan(&g.ID, &g.PeriodID, &g.Title, &g.Mode, &g.Status, &g.CourseID, &g.ProjectID, &g.CompletedAt); err != nil {
			return nil, err
		}
		if i, ok := index[g.PeriodID]; ok {
			periods[i].Goals = append(periods[i].Goals, g)
		}
	}
	if err := goalRows.Err(); err != nil {
		return nil, err
	}

	badgeRows, err := s.DB.Query(ctx, `
    SELECT b.id, b.period_id, b.title, b.badge_type, b.date_earned, b.description
    FROM badges b
    JOIN performance_periods p ON b.period_id = p.id
    WHERE p.user_id = $1
    ORDER BY b.date_earned
  `, userID)
	if err != nil {
		return nil, err
	}
	defer badgeRows.Close()

	for badgeRows.Next() {
		var b Badge
		if err := badgeRows.Scan(&b.ID, &b.PeriodID, &b.Title, &b.Type, &b.DateEarned, &b.Description); err != nil {
			return nil, err
		}
		if i, ok := index[b.PeriodID]; ok {
			periods[i].Badges = append(periods[i].Badges, b)
		}
	}
	if err := badgeRows.Err(); err != nil {
		return nil, err
	}

	return periods, nil
}

// EnsureActivePeriodTx returns the id of the user's active performance
// period, creating a year-long one starting today when none exists.
func (s *Store) EnsureActivePeriodTx(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var periodID string
	err := tx.QueryRow(ctx, `
    SELECT id FROM performance_periods
    WHERE user_id = $1 AND active
    ORDER BY period_start DESC
    LIMIT 1
  `, userID).Scan(&periodID)
	if err == nil {
		return periodID, nil
	}
	if err != pgx.ErrNoRows {
		return "", err
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(1, 0, 0)
	err = tx.QueryRow(ctx, `
    INSERT INTO performance_periods (user_id, period_start, period_end, active)
    VALUES ($1, $2, $3, true)
    RETURNING id
  `, userID, start, end).Scan(&periodID)
	if err != nil {
		return "", err
	}
	return periodID, nil
}

func (s *Store) InsertGoalTx(ctx context.Context, tx pgx.Tx, periodID, title, mode, status string, courseID, projectID *string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
    INSERT INTO goals (period_id, title, mode, status, course_id, project_id)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, periodID, title, mode, status, courseID, projectID).Scan(&id)
	return id, err
}

// GoalForCourseTx locates the user's goal joined to a course by stable id.
// Returns pgx.ErrNoRows when no goal exists.
func (s *Store) GoalForCourseTx(ctx context.Context, tx pgx.Tx, userID, courseID string) (Goal, error) {
	var g Goal
	err := tx.QueryRow(ctx, `
    SELECT g.id, g.period_id, g.title, g.mode, g.status, g.course_id, g.project_id, g.completed_at
    FROM goals g
    JOIN performance_periods p ON g.period_id = p.id
    WHERE p.user_id = $1 AND g.course_id = $2
    ORDER BY g.created_at DESC
    LIMIT 1
  `, userID, courseID).Scan(&g.ID, &g.PeriodID, &g.Title, &g.Mode, &g.Status, &g.CourseID, &g.ProjectID, &g.CompletedAt)
	return g, err
}

func (s *Store) UpdateGoalStatusTx(ctx context.Context, tx pgx.Tx, goalID, status string, completedAt *time.Time) error {
	_, err := tx.Exec(ctx, `
    UPDATE goals SET status = $1, completed_at = $2 WHERE id = $3
  `, status, completedAt, goalID)
	return err
}

func (s *Store) AwardBadgeTx(ctx context.Context, tx pgx.Tx, userID, title, badgeType, description string) error {
	periodID, err := s.EnsureActivePeriodTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
    INSERT INTO badges (period_id, title, badge_type, date_earned, description)
    VALUES ($1, $2, $3, now(), $4)
  `, periodID, title, badgeType, description)
	return err
}
