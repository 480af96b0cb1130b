package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/accendhq/accend/internal/transport"
	"github.com/accendhq/accend/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	cookieSecure bool
	sessionTTL   time.Duration
}

func NewHandler(svc ServiceAPI, cookieSecure bool, sessionTTL time.Duration) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Service:      svc,
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.Service.Signup(dto)
	if err != nil {
		switch err {
		case ErrEmailExists:
			h.WriteError(w, http.StatusConflict, "email already registered")
		default:
			h.Logger.Error("Signup: service error", "error", err)
			h.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.setSessionCookie(w, token)
	h.WriteJSON(w, http.StatusCreated, SessionResponse{User: u})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.Service.Authenticate(dto)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			h.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		case ErrUserInactive:
			h.WriteError(w, http.StatusForbidden, "user account is inactive")
		default:
			h.Logger.Error("Login: service error", "error", err)
			h.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.setSessionCookie(w, token)
	h.WriteJSON(w, http.StatusOK, SessionResponse{User: u})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	h.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me reports the current session user, or null when no valid session is
// attached. It sits outside the protected group so the frontend can probe
// session state without triggering a 401.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(r)
	if token == "" {
		h.WriteJSON(w, http.StatusOK, SessionResponse{User: nil})
		return
	}

	claims, err := h.Service.ValidateSessionToken(token)
	if err != nil {
		h.WriteJSON(w, http.StatusOK, SessionResponse{User: nil})
		return
	}

	u, err := h.Service.GetUserByID(claims.UserID)
	if err != nil {
		h.WriteJSON(w, http.StatusOK, SessionResponse{User: nil})
		return
	}

	h.WriteJSON(w, http.StatusOK, SessionResponse{User: u})
}

// sessionToken extracts the session token from the accend_session cookie,
// falling back to a Bearer authorization header for non-browser clients.
func (h *Handler) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return h.ExtractTokenFromHeader(r)
}

// AuthMiddleware authenticates the request and loads the full user into
// the request context. Requests without a valid session are rejected.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.sessionToken(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing session")
			return
		}

		claims, err := h.Service.ValidateSessionToken(token)
		if err != nil {
			h.Logger.Warn("auth middleware: token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid session")
			return
		}

		// Reload the user so role and access level changes take effect
		// before the session expires.
		u, err := h.Service.GetUserByID(claims.UserID)
		if err != nil {
			h.Logger.Warn("auth middleware: user lookup failed", "user_id", claims.UserID, "error", err)
			h.WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := ContextWithUser(r.Context(), u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards admin-only routes. It assumes AuthMiddleware ran first.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || u == nil {
			h.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !u.IsAdmin() {
			h.Logger.Warn("admin route denied", "user_id", u.ID, "role", u.Role)
			h.WriteError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
