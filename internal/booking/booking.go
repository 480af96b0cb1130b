package booking

import (
	"errors"
	"fmt"
	"time"
)

// Environment is a static, bookable environment definition. The set of
// environments is fixed at build time.
type Environment struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	AccessLevelRequired int    `json:"access_level_required"`
}

// Environments is the built-in environment catalog.
var Environments = []Environment{
	{ID: "env_dev", Name: "Development", AccessLevelRequired: 1},
	{ID: "env_test", Name: "Test", AccessLevelRequired: 2},
	{ID: "env_staging", Name: "Staging", AccessLevelRequired: 3},
	{ID: "env_uat", Name: "UAT", AccessLevelRequired: 4},
}

func FindEnvironment(envID string) (*Environment, error) {
	for i := range Environments {
		if Environments[i].ID == envID {
			return &Environments[i], nil
		}
	}
	return nil, ErrEnvNotFound
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusActive   = "active"
	StatusFinished = "finished"
	StatusExpired  = "expired"
	StatusReleased = "released"
	StatusDenied   = "denied"
)

const (
	ClosedReasonFinished = "finished"
	ClosedReasonExpired  = "expired"
	ClosedReasonReleased = "released"
	ClosedReasonDenied   = "denied"
)

// ExtensionLimitMinutes caps the cumulative extension a single booking
// may receive.
const ExtensionLimitMinutes = 60

// Booking is one reservation of one environment by one user.
type Booking struct {
	ID                    string     `json:"id" gorm:"primaryKey"`
	EnvID                 string     `json:"env_id" gorm:"column:env_id;not null;index"`
	UserID                int64      `json:"user_id" gorm:"column:user_id;not null;index"`
	Status                string     `json:"status" gorm:"column:status;not null"`
	Justification         string     `json:"justification" gorm:"not null"`
	CreatedAt             time.Time  `json:"created_at" gorm:"column:created_at"`
	StartedAt             *time.Time `json:"started_at,omitempty" gorm:"column:started_at"`
	EndsAt                *time.Time `json:"ends_at,omitempty" gorm:"column:ends_at"`
	ReleasedAt            *time.Time `json:"released_at,omitempty" gorm:"column:released_at"`
	ClosedReason          *string    `json:"closed_reason,omitempty" gorm:"column:closed_reason"`
	DurationMinutes       int        `json:"duration_minutes" gorm:"column:duration_minutes;not null"`
	ExtensionMinutesTotal int        `json:"extension_minutes_total" gorm:"column:extension_minutes_total;not null;default:0"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsLiveAt reports whether the booking holds its environment at the
// given instant: approved or active, with started_at <= now < ends_at.
func (b *Booking) IsLiveAt(now time.Time) bool {
	if b.Status != StatusApproved && b.Status != StatusActive {
		return false
	}
	if b.StartedAt == nil || b.EndsAt == nil {
		return false
	}
	return !b.StartedAt.After(now) && now.Before(*b.EndsAt)
}

var (
	ErrEnvNotFound            = errors.New("environment not found")
	ErrInvalidDuration        = errors.New("duration must be positive")
	ErrInsufficientAccess     = errors.New("insufficient access level for environment")
	ErrUserHasActiveBooking   = errors.New("user already has an active booking")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrForbidden              = errors.New("forbidden")
	ErrNotActive              = errors.New("booking is not active")
	ErrInvalidExtension       = errors.New("extension must be positive")
	ErrExtensionLimitExceeded = errors.New("extension limit exceeded")
)

// NotFreeError reports that an environment is held by a live booking,
// carrying the instant it becomes free.
type NotFreeError struct {
	FreeAt time.Time
}

func (e *NotFreeError) Error() string {
	return fmt.Sprintf("environment not free until %s", e.FreeAt.Format(time.RFC3339))
}
