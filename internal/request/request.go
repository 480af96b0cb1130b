package request

import (
	"errors"
	"time"
)

// Request represents one access request in the ledger. Environment
// bookings mirror themselves here (with BookingID set) so the dashboard
// shows them alongside ordinary requests.
type Request struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	UserID        int64      `json:"user_id" gorm:"column:user_id;not null;index"`
	ResourceID    string     `json:"resource_id" gorm:"column:resource_id;not null"`
	ResourceType  string     `json:"resource_type" gorm:"column:resource_type;not null"`
	Status        string     `json:"status" gorm:"column:status;not null;index"`
	Justification string     `json:"justification" gorm:"not null"`
	CreatedAt     time.Time  `json:"created_at" gorm:"column:created_at"`
	DurationHours *int       `json:"duration_hours,omitempty" gorm:"column:duration_hours"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	ApproverID    *int64     `json:"approver_id,omitempty" gorm:"column:approver_id"`
	ApproverName  *string    `json:"approver_name,omitempty" gorm:"column:approver_name"`
	DecisionNote  *string    `json:"decision_note,omitempty" gorm:"column:decision_note"`
	BookingID     *string    `json:"booking_id,omitempty" gorm:"column:booking_id;index"`
}

func (Request) TableName() string {
	return "requests"
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusExpired  = "expired"
)

// ExpiringWindow is how far ahead the dashboard looks for grants about
// to lapse.
const ExpiringWindow = 7 * 24 * time.Hour

func (r *Request) CanBeDecided() bool {
	return r.Status == StatusPending
}

// IsActiveAt reports whether the request represents a currently usable
// grant: approved, and either open-ended or not yet expired.
func (r *Request) IsActiveAt(now time.Time) bool {
	if r.Status != StatusApproved {
		return false
	}
	if r.ExpiresAt == nil {
		return true
	}
	return r.ExpiresAt.After(now)
}

// IsExpiringAt reports whether the grant lapses within ExpiringWindow of now.
func (r *Request) IsExpiringAt(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return r.ExpiresAt.After(now) && r.ExpiresAt.Before(now.Add(ExpiringWindow))
}

// AdminView pairs a request with its requester's identity for the
// admin approval queue.
type AdminView struct {
	Request        *Request `json:"request"`
	RequesterName  string   `json:"requester_name"`
	RequesterEmail string   `json:"requester_email"`
}

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrAlreadyDecided  = errors.New("request already decided")
	ErrForbidden       = errors.New("forbidden")
)
