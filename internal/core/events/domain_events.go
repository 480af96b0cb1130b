package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequestCreated  = "request.created"
	RequestDecided  = "request.decided"
	BookingCreated  = "booking.created"
	BookingExtended = "booking.extended"
	BookingReleased = "booking.released"
)

func NewRequestCreatedEvent(requestID string, userID int64, resourceType string) Event {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      RequestCreated,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id":    requestID,
			"user_id":       userID,
			"resource_type": resourceType,
		},
	}
}

func NewRequestDecidedEvent(requestID string, approverID int64, status string) Event {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      RequestDecided,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"request_id":  requestID,
			"approver_id": approverID,
			"status":      status,
		},
	}
}

func NewBookingCreatedEvent(bookingID, envID string, userID int64, durationMinutes int) Event {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      BookingCreated,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"booking_id":       bookingID,
			"env_id":           envID,
			"user_id":          userID,
			"duration_minutes": durationMinutes,
		},
	}
}

func NewBookingExtendedEvent(bookingID, envID string, addMinutes int) Event {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      BookingExtended,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"booking_id":  bookingID,
			"env_id":      envID,
			"add_minutes": addMinutes,
		},
	}
}

func NewBookingReleasedEvent(bookingID, envID string) Event {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      BookingReleased,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"booking_id": bookingID,
			"env_id":     envID,
		},
	}
}
