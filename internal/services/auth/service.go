// Package auth signs in admins and customers and issues their session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eshop/internal/logger"
	"eshop/internal/models"
	"eshop/internal/services/users"
)

const minPasswordLength = 6

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrEmailTaken         = errors.New("email is already registered")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	users     *users.Service
	tokens    *TokenService
	blacklist Blacklist
	logger    *logger.Logger
}

func NewService(users *users.Service, tokens *TokenService, blacklist Blacklist, logger *logger.Logger) *Service {
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
	}
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPCode  string `json:"otpCode"`
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
	ICO         string `json:"ico"`
	DIC         string `json:"dic"`
	VatID       string `json:"vatId"`
	Phone       string `json:"phone"`
}

// Account is the signed in user as returned to clients.
type Account struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	Role             models.UserRole `json:"role"`
	Name             string          `json:"name"`
	CompanyName      string          `json:"companyName,omitempty"`
	ICO              string          `json:"ico,omitempty"`
	DIC              string          `json:"dic,omitempty"`
	VatID            string          `json:"vatId,omitempty"`
	TwoFactorEnabled bool            `json:"twoFactorEnabled"`
}

func NewAccount(user *models.User) Account {
	name := user.CompanyName
	if name == "" && user.Role == models.RoleAdmin {
		name = "Admin"
	}
	return Account{
		ID:               user.ID,
		Email:            user.Email,
		Role:             user.Role,
		Name:             name,
		CompanyName:      user.CompanyName,
		ICO:              deref(user.ICO),
		DIC:              deref(user.DIC),
		VatID:            deref(user.VatID),
		TwoFactorEnabled: user.TwoFactorEnabled,
	}
}

type Result struct {
	Token             string     `json:"token,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	User              *Account   `json:"user,omitempty"`
	RequiresTwoFactor bool       `json:"requiresTwoFactor,omitempty"`
	// ChallengeToken is exchanged for a session through VerifyTwoFactor.
	ChallengeToken string `json:"challengeToken,omitempty"`
}

// AdminLogin signs in an admin by email, company name or the local part
// of the email. Admins with 2FA get RequiresTwoFactor until they send a code.
func (s *Service) AdminLogin(ctx context.Context, creds Credentials) (*Result, error) {
	identifier := strings.ToLower(strings.TrimSpace(creds.Email))
	if identifier == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email or name and password are required", ErrInvalidInput)
	}

	user, err := s.findAdmin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != models.RoleAdmin || !users.CheckPassword(user.PasswordHash, creds.Password) {
		s.logger.Warn("Failed admin login for %s", identifier)
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled && user.TwoFactorSecret != nil && *user.TwoFactorSecret != "" {
		if strings.TrimSpace(creds.OTPCode) == "" {
			challenge, _, err := s.tokens.IssueChallenge(user)
			if err != nil {
				return nil, err
			}
			return &Result{RequiresTwoFactor: true, ChallengeToken: challenge}, nil
		}
		if !users.ValidateCode(*user.TwoFactorSecret, creds.OTPCode) {
			return nil, ErrInvalidCode
		}
	}

	return s.issue(user)
}

func (s *Service) findAdmin(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	admins, err := s.users.Admins(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if strings.ToLower(admins[i].CompanyName) == identifier {
			return &admins[i], nil
		}
	}
	if !strings.Contains(identifier, "@") {
		for i := range admins {
			if strings.HasPrefix(strings.ToLower(admins[i].Email), identifier+"@") {
				return &admins[i], nil
			}
		}
	}
	return nil, nil
}

// VerifyTwoFactor finishes an admin login that stopped at RequiresTwoFactor.
// Each challenge token can be used once.
func (s *Service) VerifyTwoFactor(ctx context.Context, challenge, code string) (*Result, error) {
	if strings.TrimSpace(challenge) == "" || strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: challenge token and code are required", ErrInvalidInput)
	}

	claims, err := s.tokens.ParseChallenge(challenge)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin || !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, ErrInvalidCredentials
	}
	if !users.ValidateCode(*user.TwoFactorSecret, code) {
		return nil, ErrInvalidCode
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CustomerLogin signs in a customer account by email.
func (s *Service) CustomerLogin(ctx context.Context, creds Credentials) (*Result, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, creds.Email)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleUser || !users.CheckPassword(user.PasswordHash, creds.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Register creates a customer account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.CompanyName) == "" ||
		strings.TrimSpace(in.ICO) == "" || strings.TrimSpace(in.DIC) == "" {
		return nil, fmt.Errorf("%w: email, password, company, ICO and DIC are required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	user, err := s.users.Create(ctx, users.CreateInput{
		Email:       email,
		Password:    in.Password,
		CompanyName: in.CompanyName,
		ICO:         in.ICO,
		DIC:         in.DIC,
		VatID:       in.VatID,
		Phone:       in.Phone,
		Role:        models.RoleUser,
	})
	if errors.Is(err, users.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Authenticate checks a bearer token and that it was not revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	return s.blacklist.Revoke(ctx, claims.ID, s.tokens.Remaining(claims))
}

func (s *Service) AdminList(ctx context.Context) ([]Account, error) {
	admins, err := s.users.Admins(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(admins))
	for i := range admins {
		accounts = append(accounts, NewAccount(&admins[i]))
	}
	return accounts, nil
}

func (s *Service) issue(user *models.User) (*Result, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	account := NewAccount(user)
	s.logger.Info("User %s signed in as %s", user.Email, user.Role)
	return &Result{Token: token, ExpiresAt: &expiresAt, User: &account}, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
