package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/accendhq/accend/internal/core/events"
	"github.com/google/uuid"
)

// Repository defines the data access methods for bookings. CreateLive
// must perform its conflict checks and the insert atomically so two
// concurrent creates cannot both win the same environment or give one
// user two live bookings.
type Repository interface {
	CreateLive(b *Booking) error
	GetByID(id string) (*Booking, error)
	GetLiveForEnv(envID string, now time.Time) (*Booking, error)
	GetLiveForUser(userID int64, now time.Time) (*Booking, error)
	GetByUserID(userID int64, limit, offset int) ([]*Booking, error)
	GetAll(limit, offset int) ([]*Booking, error)
	Update(b *Booking) error
	CountLive(now time.Time) (int64, error)
}

// Mirror keeps the request ledger's denormalized view of bookings in
// step with the allocator.
type Mirror interface {
	MirrorBookingCreated(bookingID, envID string, userID int64, justification string, createdAt, endsAt time.Time, durationMinutes int, approverID *int64, approverName *string) error
	MirrorBookingExtended(bookingID string, endsAt time.Time, addMinutes int) error
	MirrorBookingReleased(bookingID string, endsAt time.Time) error
}

// Service implements the environment booking allocator. All liveness is
// computed against the reference instant passed by the caller; nothing
// mutates bookings in the background.
type Service struct {
	repo   Repository
	mirror Mirror
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, mirror Mirror, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mirror: mirror,
		bus:    bus,
		logger: logger,
	}
}

// FreeAt reports when the environment becomes free: the live booking's
// end if one holds it, otherwise the reference instant itself.
func (s *Service) FreeAt(envID string, now time.Time) (time.Time, error) {
	if _, err := FindEnvironment(envID); err != nil {
		return time.Time{}, err
	}

	live, err := s.repo.GetLiveForEnv(envID, now)
	if err != nil {
		return time.Time{}, err
	}
	if live == nil || live.EndsAt == nil {
		return now, nil
	}
	return *live.EndsAt, nil
}

// EnvironmentStatuses returns the availability of every environment at
// the reference instant.
func (s *Service) EnvironmentStatuses(now time.Time) ([]EnvironmentStatus, error) {
	out := make([]EnvironmentStatus, 0, len(Environments))
	for _, env := range Environments {
		freeAt, err := s.FreeAt(env.ID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, EnvironmentStatus{
			ID:                  env.ID,
			Name:                env.Name,
			IsFreeNow:           !freeAt.After(now),
			FreeAt:              freeAt,
			AccessLevelRequired: env.AccessLevelRequired,
		})
	}
	return out, nil
}

// Create books an environment for the caller starting at the reference
// instant. Checks run in a fixed order: duration, environment, access
// level, then the atomic user-exclusivity and environment-free checks
// inside the repository.
func (s *Service) Create(userID int64, userName string, isAdmin bool, accessLevel int, dto CreateBookingDTO, now time.Time) (*Booking, error) {
	if dto.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	env, err := FindEnvironment(dto.EnvID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && accessLevel < env.AccessLevelRequired {
		s.logger.Warn("booking denied: insufficient access level",
			"user_id", userID, "env_id", env.ID,
			"access_level", accessLevel, "required", env.AccessLevelRequired)
		return nil, ErrInsufficientAccess
	}

	endsAt := now.Add(time.Duration(dto.DurationMinutes) * time.Minute)
	startedAt := now
	b := &Booking{
		ID:              uuid.NewString(),
		EnvID:           env.ID,
		UserID:          userID,
		Status:          StatusApproved,
		Justification:   dto.Justification,
		CreatedAt:       now,
		StartedAt:       &startedAt,
		EndsAt:          &endsAt,
		DurationMinutes: dto.DurationMinutes,
	}

	if err := s.repo.CreateLive(b); err != nil {
		return nil, err
	}

	var approverID *int64
	var approverName *string
	if isAdmin {
		approverID = &userID
		approverName = &userName
	}
	if s.mirror != nil {
		if err := s.mirror.MirrorBookingCreated(b.ID, b.EnvID, userID, b.Justification, now, endsAt, b.DurationMinutes, approverID, approverName); err != nil {
			s.logger.Error("failed to mirror booking creation", "error", err, "booking_id", b.ID)
		}
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewBookingCreatedEvent(b.ID, b.EnvID, userID, b.DurationMinutes))
	}

	s.logger.Info("booking created",
		"booking_id", b.ID,
		"env_id", b.EnvID,
		"user_id", userID,
		"ends_at", endsAt)

	return b, nil
}

// Extend pushes a live booking's end out by dto.AddMinutes. The
// cumulative extension across the booking's lifetime may not exceed
// ExtensionLimitMinutes.
func (s *Service) Extend(bookingID string, callerID int64, isAdmin bool, dto ExtendBookingDTO, now time.Time) (*Booking, error) {
	if dto.AddMinutes <= 0 {
		return nil, ErrInvalidExtension
	}

	b, err := s.repo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if b.UserID != callerID && !isAdmin {
		return nil, ErrForbidden
	}

	if !b.IsLiveAt(now) {
		return nil, ErrNotActive
	}

	if b.ExtensionMinutesTotal+dto.AddMinutes > ExtensionLimitMinutes {
		s.logger.Warn("extension rejected: limit exceeded",
			"booking_id", bookingID,
			"extended_so_far", b.ExtensionMinutesTotal,
			"requested", dto.AddMinutes)
		return nil, ErrExtensionLimitExceeded
	}

	newEnd := b.EndsAt.Add(time.Duration(dto.AddMinutes) * time.Minute)
	b.EndsAt = &newEnd
	b.ExtensionMinutesTotal += dto.AddMinutes

	if err := s.repo.Update(b); err != nil {
		s.logger.Error("failed to persist extension", "error", err, "booking_id", bookingID)
		return nil, err
	}

	if s.mirror != nil {
		if err := s.mirror.MirrorBookingExtended(b.ID, newEnd, dto.AddMinutes); err != nil {
			s.logger.Error("failed to mirror booking extension", "error", err, "booking_id", b.ID)
		}
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewBookingExtendedEvent(b.ID, b.EnvID, dto.AddMinutes))
	}

	s.logger.Info("booking extended",
		"booking_id", b.ID,
		"add_minutes", dto.AddMinutes,
		"ends_at", newEnd)

	return b, nil
}

// Release ends a live booking immediately, freeing its environment at
// the reference instant. Only live bookings can be released.
func (s *Service) Release(bookingID string, callerID int64, isAdmin bool, now time.Time) (*Booking, error) {
	b, err := s.repo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if b.UserID != callerID && !isAdmin {
		return nil, ErrForbidden
	}

	if !b.IsLiveAt(now) {
		return nil, ErrNotActive
	}

	released := now
	reason := ClosedReasonReleased
	b.Status = StatusReleased
	b.EndsAt = &released
	b.ReleasedAt = &released
	b.ClosedReason = &reason

	if err := s.repo.Update(b); err != nil {
		s.logger.Error("failed to persist release", "error", err, "booking_id", bookingID)
		return nil, err
	}

	if s.mirror != nil {
		if err := s.mirror.MirrorBookingReleased(b.ID, released); err != nil {
			s.logger.Error("failed to mirror booking release", "error", err, "booking_id", b.ID)
		}
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewBookingReleasedEvent(b.ID, b.EnvID))
	}

	s.logger.Info("booking released",
		"booking_id", b.ID,
		"env_id", b.EnvID,
		"released_at", released)

	return b, nil
}

// GetByID returns one booking; callers may only see their own unless
// they are admins.
func (s *Service) GetByID(bookingID string, callerID int64, isAdmin bool) (*Booking, error) {
	b, err := s.repo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != callerID && !isAdmin {
		return nil, ErrForbidden
	}
	return b, nil
}

// ActiveForUser returns the caller's live booking at the reference
// instant, or nil if they hold none.
func (s *Service) ActiveForUser(userID int64, now time.Time) (*Booking, error) {
	return s.repo.GetLiveForUser(userID, now)
}

// ListForUser returns the caller's booking history, newest first.
func (s *Service) ListForUser(userID int64, limit, offset int) ([]*Booking, error) {
	return s.repo.GetByUserID(userID, limit, offset)
}

// ListAll returns every booking. Admin only.
func (s *Service) ListAll(isAdmin bool, limit, offset int) ([]*Booking, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	return s.repo.GetAll(limit, offset)
}
