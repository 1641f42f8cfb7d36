package cyclehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/cycle"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

// Summarizer reports evaluation progress for a cycle.
type Summarizer interface {
	Summary(ctx context.Context, orgID, cycleID string) (evaluation.Summary, error)
}

type Handler struct {
	Service   *cycle.Service
	Summaries Summarizer
	Perms     middleware.PermissionStore
	Audit     audit.Recorder
}

func NewHandler(service *cycle.Service, summaries Summarizer, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Summaries: summaries, Perms: perms, Audit: recorder}
}

type cycleRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	StartDate   string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type assignmentRequest struct {
	TeamID        string `json:"teamId" validate:"required,uuid"`
	MatrixID      string `json:"matrixId" validate:"required,uuid"`
	LineManagerID string `json:"lineManagerId" validate:"required,uuid"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCyclesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCyclesWrite, h.Perms)
	r.Route("/cycles", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.Route("/{cycleID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Put("/", h.handleUpdate)
			r.With(write).Delete("/", h.handleDelete)
			r.With(write).Post("/activate", h.handleActivate)
			r.With(read).Get("/roster.pdf", h.handleRoster)
			r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/summary", h.handleSummary)
			r.With(read).Get("/assignments", h.handleListAssignments)
			r.With(write).Post("/assignments", h.handleCreateAssignment)
			r.With(write).Delete("/assignments/{assignmentID}", h.handleDeleteAssignment)
		})
	})
	r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Get("/my/assignments", h.handleMine)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	v := shared.NewValidator()
	v.Enum("status", status, []string{cycle.StatusDraft, cycle.StatusActive}, "must be one of: draft active")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	cycles, err := h.Service.ListCycles(r.Context(), session.OrgID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	c, err := h.Service.GetCycle(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	input, ok := decodeCycle(w, r)
	if !ok {
		return
	}
	c, err := h.Service.CreateCycle(r.Context(), session.OrgID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "cycle.create", "cycle", c.ID, nil, c)
	api.Created(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	input, ok := decodeCycle(w, r)
	if !ok {
		return
	}
	c, err := h.Service.UpdateCycle(r.Context(), session.OrgID, id, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "cycle.update", "cycle", id, nil, c)
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	if err := h.Service.DeleteCycle(r.Context(), session.OrgID, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "cycle.delete", "cycle", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	c, err := h.Service.Activate(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "cycle.activate", "cycle", id, map[string]string{"status": cycle.StatusDraft}, map[string]string{"status": c.Status})
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	if _, err := h.Service.ListAssignments(r.Context(), session.OrgID, id); err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.Summaries.Summary(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	assignments, err := h.Service.ListAssignments(r.Context(), session.OrgID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	var payload assignmentRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	a, err := h.Service.CreateAssignment(r.Context(), session.OrgID, id, cycle.AssignmentInput(payload))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "cycle.assignment.create", "assignment", a.ID, nil, a)
	api.Created(w, a, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "cycleID")
	if !ok {
		return
	}
	assignmentID, ok := pathID(w, r, "assignmentID")
	if !ok {
		return
	}
	if err := h.Service.DeleteAssignment(r.Context(), session.OrgID, id, assignmentID); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, session, "cycle.assignment.delete", "assignment", assignmentID, map[string]string{"cycleId": id}, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	assignments, err := h.Service.Mine(r.Context(), session.OrgID, session.UserID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func decodeCycle(w http.ResponseWriter, r *http.Request) (cycle.CycleInput, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload cycleRequest
	if !shared.Decode(w, r, &payload, requestID) {
		return cycle.CycleInput{}, false
	}
	v := shared.NewValidator()
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestID) {
		return cycle.CycleInput{}, false
	}
	return cycle.CycleInput{Name: payload.Name, Description: payload.Description, StartDate: start, EndDate: end}, true
}

func (h *Handler) record(r *http.Request, session auth.Session, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(r.Context(), session.OrgID, session.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
}

func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return session, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := shared.PathID(r, name)
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", middleware.GetRequestID(r.Context()))
	}
	return id, ok
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, cycle.ErrNotFound), errors.Is(err, evaluation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.Is(err, cycle.ErrNameRequired):
		shared.FailField(w, requestID, "name", "is required")
	case errors.Is(err, cycle.ErrInvalidDates):
		shared.FailField(w, requestID, "endDate", "must be on or after startDate")
	case errors.Is(err, cycle.ErrCycleLocked):
		api.Fail(w, http.StatusConflict, "cycle_locked", err.Error(), requestID)
	case errors.Is(err, cycle.ErrTeamAlreadyAssigned):
		api.Fail(w, http.StatusConflict, "team_already_assigned", err.Error(), requestID)
	case errors.Is(err, cycle.ErrNoAssignments):
		api.Fail(w, http.StatusUnprocessableEntity, "no_assignments", err.Error(), requestID)
	case errors.Is(err, cycle.ErrMatrixNotActive):
		api.Fail(w, http.StatusUnprocessableEntity, "matrix_not_active", err.Error(), requestID)
	case errors.Is(err, cycle.ErrUnknownTeam), errors.Is(err, cycle.ErrUnknownMatrix):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_reference", err.Error(), requestID)
	case errors.Is(err, cycle.ErrNotLineManager):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_line_manager", err.Error(), requestID)
	default:
		slog.Error("cycle request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
