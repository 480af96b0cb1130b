package booking

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/accendhq/accend/internal"
	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/transport"
	"github.com/accendhq/accend/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	EnvironmentStatuses(now time.Time) ([]EnvironmentStatus, error)
	Create(userID int64, userName string, isAdmin bool, accessLevel int, dto CreateBookingDTO, now time.Time) (*Booking, error)
	Extend(bookingID string, callerID int64, isAdmin bool, dto ExtendBookingDTO, now time.Time) (*Booking, error)
	Release(bookingID string, callerID int64, isAdmin bool, now time.Time) (*Booking, error)
	GetByID(bookingID string, callerID int64, isAdmin bool) (*Booking, error)
	ActiveForUser(userID int64, now time.Time) (*Booking, error)
	ListForUser(userID int64, limit, offset int) ([]*Booking, error)
	ListAll(isAdmin bool, limit, offset int) ([]*Booking, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func paging(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// writeBookingError maps allocator errors onto the symbolic error
// envelope clients switch on.
func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	var notFree *NotFreeError
	if errors.As(err, &notFree) {
		h.WriteAppError(w, internal.NewConflictError("environment is not free", internal.ErrCodeEnvNotFree).
			WithDetails(map[string]interface{}{"free_at": notFree.FreeAt.Format(time.RFC3339)}))
		return
	}

	switch {
	case errors.Is(err, ErrEnvNotFound):
		h.WriteAppError(w, internal.NewNotFoundError("environment not found", internal.ErrCodeEnvNotFound))
	case errors.Is(err, ErrInvalidDuration):
		h.WriteAppError(w, internal.NewValidationError("duration must be a positive number of minutes", internal.ErrCodeInvalidDuration))
	case errors.Is(err, ErrInsufficientAccess):
		h.WriteAppError(w, internal.NewForbiddenError("access level too low for this environment", internal.ErrCodeInsufficientAccess))
	case errors.Is(err, ErrUserHasActiveBooking):
		h.WriteAppError(w, internal.NewConflictError("user already has an active booking", internal.ErrCodeUserHasActiveBooking))
	case errors.Is(err, ErrBookingNotFound):
		h.WriteAppError(w, internal.NewNotFoundError("booking not found", internal.ErrCodeBookingNotFound))
	case errors.Is(err, ErrForbidden):
		h.WriteAppError(w, internal.NewForbiddenError("not allowed to act on this booking", internal.ErrCodeForbidden))
	case errors.Is(err, ErrNotActive):
		h.WriteAppError(w, internal.NewConflictError("booking is not active", internal.ErrCodeBookingNotActive))
	case errors.Is(err, ErrInvalidExtension):
		h.WriteAppError(w, internal.NewValidationError("extension must be a positive number of minutes", internal.ErrCodeInvalidExtension))
	case errors.Is(err, ErrExtensionLimitExceeded):
		h.WriteAppError(w, internal.NewValidationError("cumulative extension limit exceeded", internal.ErrCodeExtensionLimitExceeded))
	default:
		h.WriteError(w, http.StatusInternalServerError, "booking operation failed")
	}
}

// GetEnvironments returns the availability dashboard for every
// environment.
func (h *Handler) GetEnvironments(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	statuses, err := h.Service.EnvironmentStatuses(time.Now())
	if err != nil {
		h.Logger.Error("GetEnvironments: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to load environment statuses")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"environments": statuses})
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.Service.Create(caller.ID, caller.Name, caller.IsAdmin(), caller.AccessLevel, dto, time.Now())
	if err != nil {
		h.Logger.Warn("CreateBooking: rejected", "error", err, "user_id", caller.ID, "env_id", dto.EnvID)
		h.writeBookingError(w, err)
		return
	}

	h.Logger.Info("CreateBooking: booking created", "booking_id", b.ID, "user_id", caller.ID)
	h.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) ExtendBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var dto ExtendBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.Service.Extend(bookingID, caller.ID, caller.IsAdmin(), dto, time.Now())
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) ReleaseBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid booking ID")
		return
	}

	b, err := h.Service.Release(bookingID, caller.ID, caller.IsAdmin(), time.Now())
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid booking ID")
		return
	}

	b, err := h.Service.GetByID(bookingID, caller.ID, caller.IsAdmin())
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

// GetActiveBooking returns the caller's live booking, or a null body
// when none is held.
func (h *Handler) GetActiveBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	b, err := h.Service.ActiveForUser(caller.ID, time.Now())
	if err != nil {
		h.Logger.Error("GetActiveBooking: service error", "error", err, "user_id", caller.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to load active booking")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"booking": b})
}

func (h *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paging(r)
	bookings, err := h.Service.ListForUser(caller.ID, limit, offset)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paging(r)
	bookings, err := h.Service.ListAll(caller.IsAdmin(), limit, offset)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			h.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"limit":    limit,
		"offset":   offset,
	})
}
