package auth

import (
	"errors"
	"fmt"
	"time"

	"eshop/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "eshop"

	purposeTwoFactor = "2fa"
	challengeTTL     = 5 * time.Minute
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrTokenRevoked = errors.New("token has been revoked")
)

type Claims struct {
	jwt.RegisteredClaims
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	// Purpose is empty for session tokens.
	Purpose string `json:"purpose,omitempty"`
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, expiration time.Duration) *TokenService {
	if expiration <= 0 {
		expiration = 12 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// Issue returns a signed session token for user and its expiry.
func (t *TokenService) Issue(user *models.User) (string, time.Time, error) {
	return t.sign(user, "", t.expiration)
}

// IssueChallenge returns a short lived token that only proves the password
// step of a two factor login.
func (t *TokenService) IssueChallenge(user *models.User) (string, time.Time, error) {
	return t.sign(user, purposeTwoFactor, challengeTTL)
}

func (t *TokenService) sign(user *models.User, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		Purpose: purpose,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry of a session token.
func (t *TokenService) Parse(tokenString string) (*Claims, error) {
	return t.parse(tokenString, "")
}

// ParseChallenge verifies a token issued by IssueChallenge.
func (t *TokenService) ParseChallenge(tokenString string) (*Claims, error) {
	return t.parse(tokenString, purposeTwoFactor)
}

func (t *TokenService) parse(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Remaining is the time left until the token expires.
func (t *TokenService) Remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return t.expiration
	}
	return claims.ExpiresAt.Sub(t.now())
}
