package orghandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/org"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *org.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

type createRequest struct {
	Name          string `json:"name" validate:"required,max=160"`
	AdminEmail    string `json:"adminEmail" validate:"required,email"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8,max=72"`
}

type updateRequest struct {
	Name   string `json:"name" validate:"max=160"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	manage := middleware.RequirePermission(auth.PermOrgManage, h.Perms)
	r.Route("/organizations", func(r chi.Router) {
		r.With(manage).Get("/", h.handleList)
		r.With(manage).Post("/", h.handleCreate)
		r.With(manage).Get("/{orgID}", h.handleGet)
		r.With(manage).Put("/{orgID}", h.handleUpdate)
	})
	r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/organization", h.handleCurrent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, orgs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.PathID(r, "orgID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "organization not found", middleware.GetRequestID(r.Context()))
		return
	}
	o, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, o, middleware.GetRequestID(r.Context()))
}

// handleCurrent returns the caller's own organization.
func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	o, err := h.Service.Get(r.Context(), session.OrgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, o, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	var payload createRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	o, adminID, err := h.Service.Create(r.Context(), org.CreateInput(payload))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Audit != nil {
		h.Audit.Record(r.Context(), o.ID, session.UserID, "org.create", "organization", o.ID,
			middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, map[string]string{"name": o.Name, "adminUserId": adminID})
	}
	api.Created(w, map[string]any{"organization": o, "adminUserId": adminID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	id, ok := shared.PathID(r, "orgID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "organization not found", middleware.GetRequestID(r.Context()))
		return
	}
	var payload updateRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	o, err := h.Service.Update(r.Context(), id, payload.Name, payload.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Audit != nil {
		h.Audit.Record(r.Context(), o.ID, session.UserID, "org.update", "organization", o.ID,
			middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, o)
	}
	api.Success(w, o, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, org.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "organization not found", requestID)
	case errors.Is(err, org.ErrDuplicateName), errors.Is(err, org.ErrDuplicateUser):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case errors.Is(err, org.ErrNameRequired):
		shared.FailField(w, requestID, "name", "is required")
	case errors.Is(err, org.ErrInvalidStatus):
		shared.FailField(w, requestID, "status", "must be one of: active inactive")
	default:
		slog.Error("organization request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
