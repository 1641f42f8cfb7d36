package jobshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Runner interface {
	RunReminders(ctx context.Context, reminders jobs.Reminders, window time.Duration) (any, error)
	ListRuns(ctx context.Context, jobType string, limit int) ([]jobs.Run, error)
}

type Handler struct {
	Jobs      Runner
	Reminders jobs.Reminders
	Window    time.Duration
	Perms     middleware.PermissionStore
}

func NewHandler(runner Runner, reminders jobs.Reminders, window time.Duration, perms middleware.PermissionStore) *Handler {
	return &Handler{Jobs: runner, Reminders: reminders, Window: window, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermOrgManage, h.Perms))
		r.Get("/runs", h.handleListRuns)
		r.Post("/reminders/run", h.handleRunReminders)
	})
}

func (h *Handler) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.RunReminders(r.Context(), h.Reminders, h.Window)
	if err != nil {
		api.FailWithDetails(w, http.StatusInternalServerError, "job_failed", "reminder job failed", details, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Jobs.ListRuns(r.Context(), r.URL.Query().Get("jobType"), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_list_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
