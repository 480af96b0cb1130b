package user

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/transport"
	"github.com/accendhq/accend/pkg/logger"
)

type ServiceAPI interface {
	GetByID(userID int64) (*User, error)
	UpdateName(userID int64, dto UpdateNameDTO) (*User, error)
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

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(caller.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service error", "error", err, "user_id", caller.ID)
		if err == ErrNotFound {
			h.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateName(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateNameDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.UpdateName(caller.ID, dto)
	if err != nil {
		if err == ErrNotFound {
			h.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Logger.Info("UpdateName: user renamed", "user_id", caller.ID)
	h.WriteJSON(w, http.StatusOK, u)
}
