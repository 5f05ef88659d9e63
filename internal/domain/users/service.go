package users

import (
	"context"
	"strings"

	"companygrow/internal/domain/auth"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// CreateUser hashes the password and inserts the user. The role defaults to
// employee when the payload leaves it blank.
func (s *Service) CreateUser(ctx context.Context, nu NewUser) (string, error) {
	nu.Role = strings.ToLower(strings.TrimSpace(nu.Role))
	if nu.Role == "" {
		nu.Role = auth.RoleEmployee
	}
	hash, err := auth.HashPassword(nu.Password)
	if err != nil {
		return "", err
	}
	return s.store.CreateUser(ctx, nu, hash)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error {
	return s.store.UpdateProfile(ctx, userID, p)
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.store.DeleteUser(ctx, userID)
}

func (s *Service) UserCourses(ctx context.Context, userID string) ([]UserCourse, error) {
	return s.store.UserCourses(ctx, userID)
}
