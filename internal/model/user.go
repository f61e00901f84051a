// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusActive    UserStatus = "active"
	StatusLocked    UserStatus = "locked"
	StatusSuspended UserStatus = "suspended"
)

// User lives in the master registry: it is the cross-tenant identity
// record mapping a login to its organization. Everything else about a
// person (roles, preferences) lives inside the tenant database.
type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uint       `gorm:"index;not null" json:"organization_id"`
	Email          string     `gorm:"type:text;uniqueIndex;not null" json:"email"`
	FullName       string     `gorm:"type:text;not null" json:"full_name"`
	PasswordHash   string     `gorm:"type:text;not null" json:"-"`
	RoleCode       string     `gorm:"type:text;not null;default:'admin'" json:"role_code"`
	Status         UserStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (User) TableName() string {
	return "usuarios"
}
