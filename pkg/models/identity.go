package models

import (
	"time"

	"github.com/google/uuid"
)

// Role defines the type of user in the system.
type Role string

const (
	RoleClient      Role = "client"
	RoleCoordinator Role = "coordinator"
	RoleManager     Role = "manager"
	RoleAdmin       Role = "admin"
)

// Roles lists every role the organization knows about.
var Roles = []Role{RoleClient, RoleCoordinator, RoleManager, RoleAdmin}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleCoordinator, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// IsStaff is true for coordinators, managers and admins.
func (r Role) IsStaff() bool {
	return r == RoleCoordinator || r == RoleManager || r == RoleAdmin
}

// User represents a client or a staff member.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the resolved identity every core operation acts on behalf of.
type Principal struct {
	ID       uuid.UUID
	Role     Role
	IsActive bool
}

// Principal returns the acting identity for u.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, IsActive: u.IsActive}
}

// UserSummary is the public shape used when a user is embedded in another response.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Summary maps u to a UserSummary; a nil user yields nil.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
