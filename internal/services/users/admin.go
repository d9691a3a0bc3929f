package users

import (
	"context"
	"errors"
	"strings"

	"eshop/internal/models"
)

const defaultAdminName = "Admin"

type EnsureResult string

const (
	AdminCreated       EnsureResult = "created"
	AdminPasswordReset EnsureResult = "password_reset"
	// NotAnAdmin means the email belongs to a customer, which is left alone.
	NotAnAdmin EnsureResult = "not_admin"
)

// EnsureAdmin creates an admin account, or resets the password of an
// existing admin with the same email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*models.User, EnsureResult, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultAdminName
	}

	existing, err := s.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			return existing, NotAnAdmin, nil
		}
		if err := s.SetPassword(ctx, existing.ID, password); err != nil {
			return nil, "", err
		}
		s.logger.Info("Password reset for admin %s", existing.Email)
		return existing, AdminPasswordReset, nil
	}

	user, err := s.Create(ctx, CreateInput{
		Email:       email,
		Password:    password,
		CompanyName: name,
		Role:        models.RoleAdmin,
	})
	if err != nil {
		return nil, "", err
	}
	return user, AdminCreated, nil
}
