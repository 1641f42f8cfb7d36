package jobshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/transport/http/middleware"
)

type fakeReminders struct {
	err error
}

func (f fakeReminders) SendReminders(context.Context, time.Time, time.Duration) (int, error) {
	return 2, f.err
}

type permsByRole map[string]bool

func (p permsByRole) HasPermission(_ context.Context, roleID, _ string) (bool, error) {
	return p[roleID], nil
}

func newRouter(reminders jobs.Reminders, role string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.Session{UserID: "u1", RoleID: role, RoleName: role}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	NewHandler(jobs.New(nil, nil), reminders, 48*time.Hour, permsByRole{auth.RoleSuperAdmin: true}).RegisterRoutes(r)
	return r
}

func TestRunReminders(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(fakeReminders{}, auth.RoleSuperAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/reminders/run", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data struct {
			Sent   int    `json:"sent"`
			Window string `json:"window"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Sent != 2 || env.Data.Window != "48h0m0s" {
		t.Fatalf("unexpected details %+v", env.Data)
	}

	rec = httptest.NewRecorder()
	newRouter(fakeReminders{err: errors.New("db down")}, auth.RoleSuperAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/reminders/run", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on job failure, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newRouter(fakeReminders{}, auth.RoleOrgAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/reminders/run", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for org admin, got %d", rec.Code)
	}
}
