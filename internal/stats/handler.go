package stats

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/transport"
	"github.com/accendhq/accend/pkg/logger"
)

type ServiceAPI interface {
	Summary(isAdmin bool, now time.Time) (*Summary, error)
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

// GetSummary returns the admin dashboard rollup.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.Service.Summary(caller.IsAdmin(), time.Now())
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			h.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		h.Logger.Error("GetSummary: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}
