package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

// Sessions is the subset of the auth service the handlers drive.
type Sessions interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Refresh(ctx context.Context, session auth.Session) (auth.LoginResult, error)
	Logout(ctx context.Context, session auth.Session) error
	Profile(ctx context.Context, session auth.Session) (auth.Profile, error)
}

type Handler struct {
	Service Sessions
	Audit   audit.Recorder
}

func NewHandler(service Sessions, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/auth/logout", h.HandleLogout)
		r.Post("/auth/refresh", h.HandleRefresh)
		r.Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Login(r.Context(), strings.ToLower(strings.TrimSpace(payload.Email)), payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		h.Audit.Record(r.Context(), result.Session.OrgID, result.Session.UserID, "auth.login", "user", result.Session.UserID,
			middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	if err := h.Service.Logout(r.Context(), session); err != nil {
		slog.Warn("session revoke failed", "userId", session.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to end session", middleware.GetRequestID(r.Context()))
		return
	}
	if h.Audit != nil {
		h.Audit.Record(r.Context(), session.OrgID, session.UserID, "auth.logout", "user", session.UserID,
			middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	result, err := h.Service.Refresh(r.Context(), session)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrUnauthenticated) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("session refresh failed", "userId", session.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	profile, err := h.Service.Profile(r.Context(), session)
	if err != nil {
		slog.Warn("profile lookup failed", "userId", session.UserID, "err", err)
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}
