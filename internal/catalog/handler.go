package catalog

import (
	"log/slog"
	"net/http"

	"github.com/accendhq/accend/internal/auth"
	"github.com/accendhq/accend/internal/transport"
	"github.com/accendhq/accend/pkg/logger"
)

type ServiceAPI interface {
	ListForRole(role string) []Resource
	GetByID(resourceID string) (*Resource, error)
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

func (h *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resources := h.Service.ListForRole(caller.Role)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"resources": resources,
	})
}
