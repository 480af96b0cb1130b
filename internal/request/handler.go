package request

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/catalog"
	"github.com/accendhq/accend/internal/transport"
	"github.com/accendhq/accend/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(userID int64, role string, dto CreateRequestDTO) (*Request, error)
	Decide(requestID string, approverID int64, approverName string, isAdmin bool, dto DecideRequestDTO) (*Request, error)
	ListForUser(userID int64, limit, offset int) ([]*Request, error)
	ListAll(isAdmin bool, limit, offset int) ([]*AdminView, error)
	ListPending(isAdmin bool, limit, offset int) ([]*AdminView, error)
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

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Create(caller.ID, caller.Role, dto)
	if err != nil {
		switch err {
		case catalog.ErrResourceNotFound:
			h.WriteError(w, http.StatusNotFound, "resource not found")
		case ErrForbidden:
			h.WriteError(w, http.StatusForbidden, "role may not request this resource")
		default:
			h.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.Logger.Info("CreateRequest: request created", "request_id", req.ID, "user_id", caller.ID)
	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paging(r)
	reqs, err := h.Service.ListForUser(caller.ID, limit, offset)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetAllRequests(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paging(r)
	views, err := h.Service.ListAll(caller.IsAdmin(), limit, offset)
	if err != nil {
		if err == ErrForbidden {
			h.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": views,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetPendingRequests(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := paging(r)
	views, err := h.Service.ListPending(caller.IsAdmin(), limit, offset)
	if err != nil {
		if err == ErrForbidden {
			h.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "failed to list pending requests")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": views,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		h.WriteError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	var dto DecideRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Decide(requestID, caller.ID, caller.Name, caller.IsAdmin(), dto)
	if err != nil {
		h.Logger.Error("DecideRequest: service error", "error", err, "request_id", requestID, "approver_id", caller.ID)

		switch err {
		case ErrRequestNotFound:
			h.WriteError(w, http.StatusNotFound, "request not found")
		case ErrAlreadyDecided:
			h.WriteError(w, http.StatusBadRequest, "request already decided")
		case ErrForbidden:
			h.WriteError(w, http.StatusForbidden, "admin access required")
		default:
			h.WriteError(w, http.StatusInternalServerError, "failed to decide request")
		}
		return
	}

	h.Logger.Info("DecideRequest: decision recorded",
		"request_id", requestID,
		"approver_id", caller.ID,
		"status", req.Status)

	h.WriteJSON(w, http.StatusOK, req)
}
