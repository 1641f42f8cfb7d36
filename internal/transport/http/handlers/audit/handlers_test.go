package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/transport/http/middleware"
)

type fakeLister struct {
	events []audit.Event
	filter audit.Filter
	limit  int
}

func (f *fakeLister) Count(_ context.Context, _ string, filter audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeLister) List(_ context.Context, _ string, filter audit.Filter, _ bool, limit, _ int) ([]audit.Event, error) {
	f.filter = filter
	f.limit = limit
	return f.events, nil
}

type rolePerms map[string]bool

func (p rolePerms) HasPermission(_ context.Context, roleID, _ string) (bool, error) {
	return p[roleID], nil
}

func newRouter(lister *fakeLister, roleID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.Session{UserID: "u1", OrgID: "o1", RoleID: roleID}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	NewHandler(lister, rolePerms{"admin": true}).RegisterRoutes(r)
	return r
}

func TestListEventsAppliesFilters(t *testing.T) {
	lister := &fakeLister{events: []audit.Event{{ID: "e1", Action: "matrix.activate"}}}
	rec := httptest.NewRecorder()
	newRouter(lister, "admin").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events?action=matrix.activate&entityType=matrix&limit=10", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("X-Total-Count"))
	}
	if lister.filter.Action != "matrix.activate" || lister.filter.EntityType != "matrix" || lister.limit != 10 {
		t.Fatalf("unexpected filter %+v limit %d", lister.filter, lister.limit)
	}

	rec = httptest.NewRecorder()
	newRouter(lister, "employee").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without audit.read, got %d", rec.Code)
	}
}

func TestExportEventsCSV(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lister := &fakeLister{events: []audit.Event{
		{ID: "e1", ActorID: "u1", Action: "cycle.activate", EntityType: "cycle", EntityID: "c1", RequestID: "r1", IP: "10.0.0.1", CreatedAt: at},
	}}
	rec := httptest.NewRecorder()
	newRouter(lister, "admin").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events/export", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "cycle.activate" || rows[1][7] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if lister.limit != exportLimit {
		t.Fatalf("expected export limit, got %d", lister.limit)
	}
}
