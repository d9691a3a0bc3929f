// Package users manages customer and admin accounts, their passwords and
// TOTP second factor.
package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"eshop/internal/logger"
	"eshop/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is the work factor of stored password hashes.
const BcryptCost = 12

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailTaken  = errors.New("user with this email already exists")
	ErrInvalidUser = errors.New("invalid user")
	ErrInvalidCode = errors.New("invalid verification code")
)

type Service struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewService(db *gorm.DB, logger *logger.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type CreateInput struct {
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	CompanyName string          `json:"companyName"`
	ICO         string          `json:"ico"`
	DIC         string          `json:"dic"`
	VatID       string          `json:"vatId"`
	Phone       string          `json:"phone"`
	Role        models.UserRole `json:"role"`
}

// UpdateInput changes only the non-nil fields. An empty optional field
// clears it.
type UpdateInput struct {
	Email       *string          `json:"email"`
	Password    *string          `json:"password"`
	CompanyName *string          `json:"companyName"`
	ICO         *string          `json:"ico"`
	DIC         *string          `json:"dic"`
	VatID       *string          `json:"vatId"`
	Phone       *string          `json:"phone"`
	Role        *models.UserRole `json:"role"`
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with a stored hash. Rows imported from
// the old shop may still hold the plain password.
func CheckPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(role models.UserRole) bool {
	return role == models.RoleUser || role == models.RoleAdmin
}

// List returns users, newest first, optionally limited to one role.
func (s *Service) List(ctx context.Context, role string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("created_at desc")
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// Admins returns every account with the admin role.
func (s *Service) Admins(ctx context.Context) ([]models.User, error) {
	return s.List(ctx, string(models.RoleAdmin))
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.CompanyName) == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", ErrInvalidUser)
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, role)
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		CompanyName:  strings.TrimSpace(in.CompanyName),
		ICO:          optional(in.ICO),
		DIC:          optional(in.DIC),
		VatID:        optional(in.VatID),
		Phone:        optional(in.Phone),
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User %s created with role %s", user.Email, user.Role)
	return &user, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidUser)
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			updates["email"] = email
		}
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if in.CompanyName != nil && strings.TrimSpace(*in.CompanyName) != "" {
		updates["company_name"] = strings.TrimSpace(*in.CompanyName)
	}
	if in.ICO != nil {
		updates["ico"] = optional(*in.ICO)
	}
	if in.DIC != nil {
		updates["dic"] = optional(*in.DIC)
	}
	if in.VatID != nil {
		updates["vat_id"] = optional(*in.VatID)
	}
	if in.Phone != nil {
		updates["phone"] = optional(*in.Phone)
	}
	if in.Role != nil {
		if !validRole(*in.Role) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, *in.Role)
		}
		updates["role"] = *in.Role
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword replaces the password hash of a user.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to set password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
