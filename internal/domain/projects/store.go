package projects

import (
	"context"
	"errors"
	"fmt"
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

const projectColumns = `
    p.id, p.name, COALESCE(p.description, ''), p.priority, p.budget, p.deadline,
    p.status, COALESCE(p.badge_reward, ''),
    COALESCE(p.skills_required, '{}'), COALESCE(p.skills_gained, '{}'),
    COALESCE(p.managed_by::text, ''), COALESCE(m.name, ''),
    p.completed_at, p.created_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Priority, &p.Budget, &p.Deadline,
		&p.Status, &p.BadgeReward, &p.SkillsRequired, &p.SkillsGained,
		&p.ManagedBy, &p.ManagerName, &p.CompletedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.AssignedUsers = []AssignedUser{}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+projectColumns+`
    FROM projects p
    LEFT JOIN users m ON p.managed_by = m.id
    ORDER BY p.created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	index := map[string]int{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(out)
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	assignments, err := s.DB.Query(ctx, `
    SELECT pa.project_id, u.id, u.name
    FROM project_assignments pa
    JOIN users u ON pa.user_id = u.id
    ORDER BY pa.assigned_at
  `)
	if err != nil {
		return nil, err
	}
	defer assignments.Close()

	for assignments.Next() {
		var projectID string
		var user AssignedUser
		if err := assignments.Scan(&projectID, &user.ID, &user.Name); err != nil {
			return nil, err
		}
		if i, ok := index[projectID]; ok {
			out[i].AssignedUsers = append(out[i].AssignedUsers, user)
		}
	}
	return out, assignments.Err()
}

func (s *Store) GetProject(ctx context.Context, projectID string) (*Project, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+projectColumns+`
    FROM projects p
    LEFT JOIN users m ON p.managed_by = m.id
    WHERE p.id = $1
  `, projectID)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.name
    FROM project_assignments pa
    JOIN users u ON pa.user_id = u.id
    WHERE pa.project_id = $1
    ORDER BY pa.assigned_at
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var user AssignedUser
		if err := rows.Scan(&user.ID, &user.Name); err != nil {
			return nil, err
		}
		p.AssignedUsers = append(p.AssignedUsers, user)
	}
	return p, rows.Err()
}

// ListUserProjects returns the projects the user is assigned to.
func (s *Store) ListUserProjects(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+projectColumns+`
    FROM project_assignments pa
    JOIN projects p ON pa.project_id = p.id
    LEFT JOIN users m ON p.managed_by = m.id
    WHERE pa.user_id = $1
    ORDER BY pa.assigned_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) CreateProject(ctx context.Context, details ProjectDetails) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO projects (name, description, priority, budget, deadline, status,
                          badge_reward, skills_required, skills_gained, managed_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    RETURNING id
  `, details.Name, details.Description, details.Priority, details.Budget,
		details.Deadline, details.Status, details.BadgeReward,
		details.SkillsRequired, details.SkillsGained, nullIfEmpty(details.ManagedBy)).Scan(&id)
	return id, err
}

func (s *Store) UpdateProject(ctx context.Context, projectID string, details ProjectDetails) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE projects
    SET name = $2, description = $3, priority = $4, budget = $5, deadline = $6,
        status = $7, badge_reward = $8, skills_required = $9, skills_gained = $10,
        managed_by = $11
    WHERE id = $1
  `, projectID, details.Name, details.Description, details.Priority, details.Budget,
		details.Deadline, details.Status, details.BadgeReward,
		details.SkillsRequired, details.SkillsGained, nullIfEmpty(details.ManagedBy))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM projects WHERE id = $1", projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAssignedUsers swaps the whole assignment set for the project. The
// incoming list wins; there is no per-user diffing.
func (s *Store) ReplaceAssignedUsers(ctx context.Context, projectID string, userIDs []string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(1) FROM projects WHERE id = $1", projectID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, "DELETE FROM project_assignments WHERE project_id = $1", projectID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO project_assignments (project_id, user_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, projectID, userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// CompleteProject flips the project to completed and awards its badge to each
// assigned user's active performance period, all in one transaction.
// Completing a project twice is rejected.
func (s *Store) CompleteProject(ctx context.Context, projectID string) (*Project, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var name, status, badgeReward string
	err = tx.QueryRow(ctx, `
    SELECT name, status, COALESCE(badge_reward, '')
    FROM projects
    WHERE id = $1
    FOR UPDATE
  `, projectID).Scan(&name, &status, &badgeReward)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
    UPDATE projects
    SET status = $2, completed_at = $3
    WHERE id = $1
  `, projectID, StatusCompleted, now); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, "SELECT user_id FROM project_assignments WHERE project_id = $1", projectID)
	if err != nil {
		return nil, err
	}
	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			rows.Close()
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if badgeReward != "" {
		description := fmt.Sprintf("Completed project %q", name)
		for _, userID := range userIDs {
			if err := s.Performance.AwardBadgeTx(ctx, tx, userID, badgeReward, performance.BadgeTypeProject, description); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetProject(ctx, projectID)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
