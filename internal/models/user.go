package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email            string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash     string    `json:"-" gorm:"not null"`
	CompanyName      string    `json:"company_name"`
	ICO              *string   `json:"ico"`
	DIC              *string   `json:"dic"`
	VatID            *string   `json:"vat_id"`
	Phone            *string   `json:"phone"`
	Role             UserRole  `json:"role" gorm:"not null;default:user;index"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorSecret  *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
