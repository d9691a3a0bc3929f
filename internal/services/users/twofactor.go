package users

import (
	"context"
	"fmt"
	"strings"

	"eshop/internal/models"

	"github.com/pquerna/otp/totp"
)

// TOTPIssuer names the service in authenticator apps.
const TOTPIssuer = "Eshop Admin"

type TwoFactorSetup struct {
	Secret           string `json:"secret"`
	OtpauthURL       string `json:"otpauthUrl"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

// GenerateTwoFactor creates a new secret for the user. Nothing is stored
// until the secret is confirmed with EnableTwoFactor.
func (s *Service) GenerateTwoFactor(ctx context.Context, id string) (*TwoFactorSetup, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	account := user.CompanyName
	if account == "" {
		account = user.Email
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	return &TwoFactorSetup{
		Secret:           key.Secret(),
		OtpauthURL:       key.URL(),
		TwoFactorEnabled: user.TwoFactorEnabled,
	}, nil
}

// EnableTwoFactor stores secret once code proves the user's app has it.
func (s *Service) EnableTwoFactor(ctx context.Context, id, secret, code string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	secret = strings.TrimSpace(secret)
	if secret == "" || !ValidateCode(secret, code) {
		return ErrInvalidCode
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"two_factor_enabled": true,
		"two_factor_secret":  secret,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to enable two factor: %w", err)
	}
	s.logger.Info("Two factor enabled for %s", user.Email)
	return nil
}

func (s *Service) DisableTwoFactor(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to disable two factor: %w", err)
	}
	return nil
}

// ValidateCode checks a six digit TOTP code against secret.
func ValidateCode(secret, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	return totp.Validate(code, secret)
}
