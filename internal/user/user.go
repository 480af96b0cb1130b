package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleDeveloper Role = "developer"
	RoleQA        Role = "qa"
	RoleAdmin     Role = "admin"
)

// MinAccessLevel and MaxAccessLevel bound the access level scale used to
// gate environment bookings and resource visibility.
const (
	MinAccessLevel = 1
	MaxAccessLevel = 5
)

func (r Role) Valid() bool {
	return r == RoleDeveloper || r == RoleQA || r == RoleAdmin
}

// DefaultAccessLevel maps a role to the access level assigned at signup.
func DefaultAccessLevel(r Role) int {
	switch r {
	case RoleAdmin:
		return 5
	case RoleDeveloper:
		return 3
	case RoleQA:
		return 2
	default:
		return MinAccessLevel
	}
}

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Role         Role      `json:"role" gorm:"column:role;not null"`
	AccessLevel  int       `json:"access_level" gorm:"column:access_level;not null;default:1"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccessLevel reports whether the user may act on a resource gated at
// the given access level. Admins bypass the level check entirely.
func (u *User) CanAccessLevel(required int) bool {
	if u.IsAdmin() {
		return true
	}
	return u.AccessLevel >= required
}

var ErrNotFound = errors.New("user not found")
