package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/accendhq/accend/internal/catalog"
	"github.com/accendhq/accend/internal/core/events"
	"github.com/google/uuid"
)

// Repository defines the data access methods for requests
type Repository interface {
	Create(req *Request) error
	GetByID(id string) (*Request, error)
	GetByBookingID(bookingID string) (*Request, error)
	GetByUserID(userID int64, limit, offset int) ([]*Request, error)
	GetAll(limit, offset int) ([]*Request, error)
	GetByStatus(status string, limit, offset int) ([]*Request, error)
	Update(req *Request) error
	CountByStatus(status string) (int64, error)
	CountActiveGrants(now time.Time) (int64, error)
	CountExpiringGrants(now time.Time) (int64, error)
}

// CatalogAPI resolves requestable resource definitions.
type CatalogAPI interface {
	GetByID(resourceID string) (*catalog.Resource, error)
}

// RequesterDirectory resolves requester identity for admin views.
type RequesterDirectory interface {
	LookupRequester(userID int64) (name, email string, err error)
}

// Service handles request ledger business logic
type Service struct {
	repo      Repository
	catalog   CatalogAPI
	directory RequesterDirectory
	bus       *events.EventBus
	logger    *slog.Logger
}

func NewService(repo Repository, catalogAPI CatalogAPI, directory RequesterDirectory, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalogAPI,
		directory: directory,
		bus:       bus,
		logger:    logger,
	}
}

// Create files a new pending access request. The resource must exist and
// the caller's role must be allowed to request it (admins bypass the
// visibility filter).
func (s *Service) Create(userID int64, role string, dto CreateRequestDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("request validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	resource, err := s.catalog.GetByID(dto.ResourceID)
	if err != nil {
		return nil, catalog.ErrResourceNotFound
	}

	if !resource.VisibleTo(role) {
		s.logger.Warn("request denied: role not allowed for resource",
			"user_id", userID, "role", role, "resource_id", resource.ID)
		return nil, ErrForbidden
	}

	req := &Request{
		ID:            uuid.NewString(),
		UserID:        userID,
		ResourceID:    resource.ID,
		ResourceType:  string(resource.Type),
		Status:        StatusPending,
		Justification: dto.Justification,
		CreatedAt:     time.Now(),
		DurationHours: dto.DurationHours,
	}

	if err := s.repo.Create(req); err != nil {
		s.logger.Error("failed to create request", "error", err, "user_id", userID)
		return nil, err
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewRequestCreatedEvent(req.ID, userID, req.ResourceType))
	}

	s.logger.Info("request created",
		"request_id", req.ID,
		"user_id", userID,
		"resource_id", resource.ID)

	return req, nil
}

// Decide records an admin's approve/deny decision on a pending request.
// On approval with a duration, the expiry is anchored at the request's
// creation time.
func (s *Service) Decide(requestID string, approverID int64, approverName string, isAdmin bool, dto DecideRequestDTO) (*Request, error) {
	if !isAdmin {
		s.logger.Warn("decide denied: caller is not admin", "request_id", requestID, "caller_id", approverID)
		return nil, ErrForbidden
	}

	req, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}

	if !req.CanBeDecided() {
		s.logger.Warn("cannot decide request in current status",
			"request_id", requestID, "status", req.Status)
		return nil, ErrAlreadyDecided
	}

	now := time.Now()
	if dto.Approve {
		req.Status = StatusApproved
	} else {
		req.Status = StatusDenied
	}
	req.ApproverID = &approverID
	req.ApproverName = &approverName
	req.ApprovedAt = &now
	req.DecisionNote = dto.DecisionNote

	if dto.Approve && req.DurationHours != nil && *req.DurationHours > 0 {
		expires := req.CreatedAt.Add(time.Duration(*req.DurationHours) * time.Hour)
		req.ExpiresAt = &expires
	}

	if err := s.repo.Update(req); err != nil {
		s.logger.Error("failed to persist decision", "error", err, "request_id", requestID)
		return nil, err
	}

	if s.bus != nil {
		_ = s.bus.Publish(context.Background(), events.NewRequestDecidedEvent(req.ID, approverID, req.Status))
	}

	s.logger.Info("request decided",
		"request_id", requestID,
		"approver_id", approverID,
		"status", req.Status)

	return req, nil
}

// ListForUser returns the caller's own requests, newest first.
func (s *Service) ListForUser(userID int64, limit, offset int) ([]*Request, error) {
	reqs, err := s.repo.GetByUserID(userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list user requests", "error", err, "user_id", userID)
		return nil, err
	}
	return reqs, nil
}

// ListAll returns every request with requester identity joined. Admin only.
func (s *Service) ListAll(isAdmin bool, limit, offset int) ([]*AdminView, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}

	reqs, err := s.repo.GetAll(limit, offset)
	if err != nil {
		s.logger.Error("failed to list all requests", "error", err)
		return nil, err
	}

	return s.withRequesters(reqs), nil
}

// ListPending returns the admin approval queue.
func (s *Service) ListPending(isAdmin bool, limit, offset int) ([]*AdminView, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}

	reqs, err := s.repo.GetByStatus(StatusPending, limit, offset)
	if err != nil {
		s.logger.Error("failed to list pending requests", "error", err)
		return nil, err
	}

	return s.withRequesters(reqs), nil
}

func (s *Service) withRequesters(reqs []*Request) []*AdminView {
	out := make([]*AdminView, 0, len(reqs))
	for _, r := range reqs {
		name, email, err := s.directory.LookupRequester(r.UserID)
		if err != nil {
			name, email = "User", ""
		}
		out = append(out, &AdminView{Request: r, RequesterName: name, RequesterEmail: email})
	}
	return out
}

// ceilHours converts minutes to whole hours, rounding up.
func ceilHours(minutes int) int {
	return (minutes + 59) / 60
}

// MirrorBookingCreated inserts the approved ledger row that makes an
// environment booking visible among the caller's requests. The row
// shares the booking's id.
func (s *Service) MirrorBookingCreated(bookingID, envID string, userID int64, justification string, createdAt, endsAt time.Time, durationMinutes int, approverID *int64, approverName *string) error {
	hours := ceilHours(durationMinutes)
	req := &Request{
		ID:            bookingID,
		UserID:        userID,
		ResourceID:    envID,
		ResourceType:  string(catalog.TypeDeploymentEnvLock),
		Status:        StatusApproved,
		Justification: justification,
		CreatedAt:     createdAt,
		DurationHours: &hours,
		ApprovedAt:    &createdAt,
		ExpiresAt:     &endsAt,
		ApproverID:    approverID,
		ApproverName:  approverName,
		BookingID:     &bookingID,
	}
	if err := s.repo.Create(req); err != nil {
		s.logger.Error("failed to mirror booking into ledger", "error", err, "booking_id", bookingID)
		return err
	}
	return nil
}

// MirrorBookingExtended keeps the mirrored row's expiry and duration in
// step with an extended booking.
func (s *Service) MirrorBookingExtended(bookingID string, endsAt time.Time, addMinutes int) error {
	req, err := s.repo.GetByBookingID(bookingID)
	if err != nil {
		// The mirror is a display denormalization; a missing row is not
		// an allocator failure.
		s.logger.Warn("no mirrored request for extended booking", "booking_id", bookingID)
		return nil
	}

	base := 0
	if req.DurationHours != nil {
		base = *req.DurationHours * 60
	}
	hours := ceilHours(base + addMinutes)
	req.DurationHours = &hours
	req.ExpiresAt = &endsAt

	return s.repo.Update(req)
}

// MirrorBookingReleased marks the mirrored row expired when its booking
// is released early.
func (s *Service) MirrorBookingReleased(bookingID string, endsAt time.Time) error {
	req, err := s.repo.GetByBookingID(bookingID)
	if err != nil {
		s.logger.Warn("no mirrored request for released booking", "booking_id", bookingID)
		return nil
	}

	req.Status = StatusExpired
	req.ExpiresAt = &endsAt

	return s.repo.Update(req)
}
