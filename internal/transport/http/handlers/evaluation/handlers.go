package evaluationhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *evaluation.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *evaluation.Service, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

type scoreRequest struct {
	ParameterID string `json:"parameterId" validate:"required"`
	Score       int    `json:"score" validate:"min=1,max=5"`
	Comment     string `json:"comment" validate:"max=2000"`
}

type submitRequest struct {
	EmployeeID string         `json:"employeeId" validate:"required,uuid"`
	Comment    string         `json:"comment" validate:"max=4000"`
	Scores     []scoreRequest `json:"scores" validate:"required,min=1,dive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assignments/{assignmentID}/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)).Post("/", h.handleSubmit)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	assignmentID, ok := shared.PathID(r, "assignmentID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.List(r.Context(), session.OrgID, session.UserID, session.IsAdmin(), assignmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

// handleSubmit stores the scores of one team member. Resubmitting for the
// same employee replaces the earlier scores.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	assignmentID, ok := shared.PathID(r, "assignmentID")
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", middleware.GetRequestID(r.Context()))
		return
	}
	var payload submitRequest
	if !shared.Decode(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	scores := make([]evaluation.Score, len(payload.Scores))
	for i, s := range payload.Scores {
		scores[i] = evaluation.Score(s)
	}
	ev, err := h.Service.Submit(r.Context(), session.OrgID, session.UserID, session.IsAdmin(), evaluation.SubmitInput{
		AssignmentID: assignmentID,
		EmployeeID:   payload.EmployeeID,
		Comment:      payload.Comment,
		Scores:       scores,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Audit != nil {
		h.Audit.Record(r.Context(), session.OrgID, session.UserID, "evaluation.submit", "evaluation", ev.ID,
			middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, ev)
	}
	api.Success(w, ev, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, evaluation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", requestID)
	case errors.Is(err, evaluation.ErrNotEvaluator):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, evaluation.ErrCycleNotActive):
		api.Fail(w, http.StatusConflict, "cycle_not_active", err.Error(), requestID)
	case errors.Is(err, evaluation.ErrNotTeamMember):
		api.Fail(w, http.StatusUnprocessableEntity, "not_team_member", err.Error(), requestID)
	case errors.Is(err, evaluation.ErrScoreOutOfRange),
		errors.Is(err, evaluation.ErrUnknownParameter),
		errors.Is(err, evaluation.ErrDuplicateScore),
		errors.Is(err, evaluation.ErrIncompleteScores):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_scores", err.Error(), requestID)
	default:
		slog.Error("evaluation request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
