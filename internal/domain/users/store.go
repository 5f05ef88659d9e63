package users

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `
    u.id, u.email, u.role_id::text, r.name, u.name,
    COALESCE(u.phone, ''),
    COALESCE(u.department, ''),
    COALESCE(u.position, ''),
    COALESCE(u.experience, 0),
    COALESCE(u.skills, '{}'),
    u.address, u.emergency_contact,
    u.created_at, u.last_login`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var addressRaw, contactRaw []byte
	err := row.Scan(
		&u.ID, &u.Email, &u.RoleID, &u.Role, &u.Name,
		&u.Phone, &u.Department, &u.Position, &u.Experience, &u.Skills,
		&addressRaw, &contactRaw,
		&u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	if len(addressRaw) > 0 {
		var addr Address
		if err := json.Unmarshal(addressRaw, &addr); err != nil {
			return nil, err
		}
		u.Address = &addr
	}
	if len(contactRaw) > 0 {
		var contact EmergencyContact
		if err := json.Unmarshal(contactRaw, &contact); err != nil {
			return nil, err
		}
		u.EmergencyContact = &contact
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    ORDER BY u.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CreateUser inserts the user with an already-hashed password. The role is
// resolved by name so callers never handle role ids.
func (s *Store) CreateUser(ctx context.Context, nu NewUser, passwordHash string) (string, error) {
	var roleID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", nu.Role).Scan(&roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnknownRole
	}
	if err != nil {
		return "", err
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role_id, name, phone, department, position, experience, skills)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING id
  `, nu.Email, passwordHash, roleID, nu.Name, nu.Phone, nu.Department, nu.Position, nu.Experience, nu.Skills).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error {
	var addressRaw, contactRaw []byte
	var err error
	if p.Address != nil {
		if addressRaw, err = json.Marshal(p.Address); err != nil {
			return err
		}
	}
	if p.EmergencyContact != nil {
		if contactRaw, err = json.Marshal(p.EmergencyContact); err != nil {
			return err
		}
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET phone = $2, department = $3, position = $4, experience = $5,
        skills = $6, address = $7, emergency_contact = $8
    WHERE id = $1
  `, userID, p.Phone, p.Department, p.Position, p.Experience, p.Skills, addressRaw, contactRaw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserCourses lists the user's enrollments joined with their courses,
// newest enrollment first.
func (s *Store) UserCourses(ctx context.Context, userID string) ([]UserCourse, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, c.category, c.badge_reward, e.progress, e.enrolled_at, e.completed_at
    FROM enrollments e
    JOIN courses c ON e.course_id = c.id
    WHERE e.user_id = $1
    ORDER BY e.enrolled_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserCourse{}
	for rows.Next() {
		var uc UserCourse
		if err := rows.Scan(&uc.CourseID, &uc.CourseName, &uc.Category, &uc.BadgeReward, &uc.Progress, &uc.EnrolledAt, &uc.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}
