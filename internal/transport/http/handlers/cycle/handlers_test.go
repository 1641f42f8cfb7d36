package cyclehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/cycle"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/transport/http/middleware"
)

var (
	teamID    = uuid.NewString()
	matrixID  = uuid.NewString()
	draftID   = uuid.NewString()
	managerID = uuid.NewString()
)

type memoryStore struct {
	cycles      map[string]cycle.Cycle
	assignments map[string]cycle.Assignment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{cycles: map[string]cycle.Cycle{}, assignments: map[string]cycle.Assignment{}}
}

func (m *memoryStore) ListCycles(_ context.Context, _, status string) ([]cycle.Cycle, error) {
	out := []cycle.Cycle{}
	for _, c := range m.cycles {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) GetCycle(_ context.Context, _, id string) (cycle.Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return cycle.Cycle{}, cycle.ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) CreateCycle(_ context.Context, _ string, input cycle.CycleInput) (string, error) {
	id := uuid.NewString()
	m.cycles[id] = cycle.Cycle{ID: id, Name: input.Name, StartDate: input.StartDate, EndDate: input.EndDate, Status: cycle.StatusDraft}
	return id, nil
}

func (m *memoryStore) UpdateCycle(_ context.Context, _, id string, input cycle.CycleInput) error {
	c := m.cycles[id]
	c.Name, c.StartDate, c.EndDate = input.Name, input.StartDate, input.EndDate
	m.cycles[id] = c
	return nil
}

func (m *memoryStore) DeleteCycle(_ context.Context, _, id string) error {
	delete(m.cycles, id)
	return nil
}

func (m *memoryStore) MarkCycleActive(_ context.Context, _, id string) error {
	c := m.cycles[id]
	c.Status = cycle.StatusActive
	m.cycles[id] = c
	return nil
}

func (m *memoryStore) InactiveMatrixCount(context.Context, string, string) (int, error) {
	return 0, nil
}

func (m *memoryStore) ListAssignments(_ context.Context, _, cycleID string) ([]cycle.Assignment, error) {
	out := []cycle.Assignment{}
	for _, a := range m.assignments {
		if a.CycleID == cycleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) GetAssignment(_ context.Context, _, id string) (cycle.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return cycle.Assignment{}, cycle.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) CreateAssignment(_ context.Context, _, cycleID string, input cycle.AssignmentInput) (string, error) {
	id := uuid.NewString()
	m.assignments[id] = cycle.Assignment{
		ID: id, CycleID: cycleID,
		TeamID: input.TeamID, TeamName: "Platform",
		MatrixID: input.MatrixID, MatrixName: "Engineering",
		LineManagerID: input.LineManagerID, LineManagerName: "Lin Manager", LineManagerUserID: "user-lm",
	}
	return id, nil
}

func (m *memoryStore) DeleteAssignment(_ context.Context, _, _, id string) error {
	if _, ok := m.assignments[id]; !ok {
		return cycle.ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *memoryStore) TeamAssigned(_ context.Context, _, cycleID, team string) (bool, error) {
	for _, a := range m.assignments {
		if a.CycleID == cycleID && a.TeamID == team {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) TeamExists(_ context.Context, _, team string) (bool, error) {
	return team == teamID, nil
}

func (m *memoryStore) MatrixStatus(_ context.Context, _, id string) (string, error) {
	switch id {
	case matrixID:
		return cycle.StatusActive, nil
	case draftID:
		return cycle.StatusDraft, nil
	}
	return "", cycle.ErrUnknownMatrix
}

func (m *memoryStore) ManagerAccount(_ context.Context, _, employeeID string) (cycle.ManagerAccount, error) {
	if employeeID != managerID {
		return cycle.ManagerAccount{}, cycle.ErrNotFound
	}
	return cycle.ManagerAccount{UserID: "user-lm", RoleName: auth.RoleLineManager}, nil
}

func (m *memoryStore) AssignmentsForManager(_ context.Context, _, userID, _ string) ([]cycle.Assignment, error) {
	out := []cycle.Assignment{}
	for _, a := range m.assignments {
		if a.LineManagerUserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) ReminderTargets(context.Context, time.Time, time.Time) ([]cycle.ReminderTarget, error) {
	return nil, nil
}

type fakeNotifier struct{ sent []string }

func (f *fakeNotifier) Create(_ context.Context, _, userID, ntype, _, _ string) error {
	f.sent = append(f.sent, userID+":"+ntype)
	return nil
}

type fakeSummaries struct{}

func (fakeSummaries) Summary(_ context.Context, _, cycleID string) (evaluation.Summary, error) {
	return evaluation.Summary{CycleID: cycleID, Assignments: 1, Employees: 4, Evaluated: 2, CompletionRate: 50}, nil
}

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeRecorder struct{ actions []string }

func (f *fakeRecorder) Record(_ context.Context, _, _, action, _, _, _, _ string, _, _ any) {
	f.actions = append(f.actions, action)
}

func newRouter(store *memoryStore, notify *fakeNotifier, rec *fakeRecorder, userID string) http.Handler {
	h := NewHandler(cycle.NewService(store, notify, nil), fakeSummaries{}, allowAll{}, rec)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.Session{UserID: userID, OrgID: "org-1", RoleID: "role-1", RoleName: auth.RoleOrgAdmin}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Details struct {
			Fields []struct {
				Field string `json:"field"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func code(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func createCycle(t *testing.T, h http.Handler) cycle.Cycle {
	t.Helper()
	res, env := do(t, h, http.MethodPost, "/cycles", map[string]string{"name": "H1 2026", "startDate": "2026-01-01", "endDate": "2026-06-30"})
	if res.Code != http.StatusCreated {
		t.Fatalf("create cycle: %d %s", res.Code, code(env))
	}
	var c cycle.Cycle
	if err := json.Unmarshal(env.Data, &c); err != nil {
		t.Fatalf("decode cycle: %v", err)
	}
	return c
}

func TestCreateCycleValidatesDates(t *testing.T) {
	h := newRouter(newMemoryStore(), &fakeNotifier{}, &fakeRecorder{}, "user-admin")
	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{name: "end before start", body: map[string]string{"name": "x", "startDate": "2026-06-01", "endDate": "2026-01-01"}, field: "endDate"},
		{name: "bad date", body: map[string]string{"name": "x", "startDate": "01/02/2026", "endDate": "2026-01-01"}, field: "startDate"},
		{name: "missing name", body: map[string]string{"startDate": "2026-01-01", "endDate": "2026-01-01"}, field: "name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, env := do(t, h, http.MethodPost, "/cycles", tc.body)
			if res.Code != http.StatusBadRequest || code(env) != "validation_error" {
				t.Fatalf("expected validation error, got %d %s", res.Code, code(env))
			}
			found := false
			for _, f := range env.Error.Details.Fields {
				found = found || f.Field == tc.field
			}
			if !found {
				t.Fatalf("expected issue on %s, got %+v", tc.field, env.Error.Details.Fields)
			}
		})
	}
}

func TestCycleActivationFlow(t *testing.T) {
	store := newMemoryStore()
	notify := &fakeNotifier{}
	rec := &fakeRecorder{}
	h := newRouter(store, notify, rec, "user-admin")
	c := createCycle(t, h)

	res, env := do(t, h, http.MethodPost, "/cycles/"+c.ID+"/activate", nil)
	if res.Code != http.StatusUnprocessableEntity || code(env) != "no_assignments" {
		t.Fatalf("expected no_assignments, got %d %s", res.Code, code(env))
	}

	res, env = do(t, h, http.MethodPost, "/cycles/"+c.ID+"/assignments", map[string]string{"teamId": teamID, "matrixId": draftID, "lineManagerId": managerID})
	if res.Code != http.StatusUnprocessableEntity || code(env) != "matrix_not_active" {
		t.Fatalf("expected matrix_not_active, got %d %s", res.Code, code(env))
	}

	res, env = do(t, h, http.MethodPost, "/cycles/"+c.ID+"/assignments", map[string]string{"teamId": teamID, "matrixId": matrixID, "lineManagerId": managerID})
	if res.Code != http.StatusCreated {
		t.Fatalf("create assignment: %d %s", res.Code, code(env))
	}

	res, env = do(t, h, http.MethodPost, "/cycles/"+c.ID+"/assignments", map[string]string{"teamId": teamID, "matrixId": matrixID, "lineManagerId": managerID})
	if res.Code != http.StatusConflict || code(env) != "team_already_assigned" {
		t.Fatalf("expected team_already_assigned, got %d %s", res.Code, code(env))
	}

	res, env = do(t, h, http.MethodPost, "/cycles/"+c.ID+"/activate", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("activate: %d %s", res.Code, code(env))
	}

	res, env = do(t, h, http.MethodPut, "/cycles/"+c.ID, map[string]string{"name": "renamed", "startDate": "2026-01-01", "endDate": "2026-06-30"})
	if res.Code != http.StatusConflict || code(env) != "cycle_locked" {
		t.Fatalf("expected cycle_locked, got %d %s", res.Code, code(env))
	}

	if len(notify.sent) != 2 {
		t.Fatalf("expected assignment and activation notifications, got %v", notify.sent)
	}
	want := []string{"cycle.create", "cycle.assignment.create", "cycle.activate"}
	if strings.Join(rec.actions, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected audit actions %v", rec.actions)
	}

	lm := newRouter(store, notify, rec, "user-lm")
	res, env = do(t, lm, http.MethodGet, "/my/assignments", nil)
	var mine []cycle.Assignment
	if err := json.Unmarshal(env.Data, &mine); err != nil || res.Code != http.StatusOK {
		t.Fatalf("mine: %d %v", res.Code, err)
	}
	if len(mine) != 1 || mine[0].TeamName != "Platform" {
		t.Fatalf("unexpected assignments %+v", mine)
	}
}

func TestSummaryAndRoster(t *testing.T) {
	h := newRouter(newMemoryStore(), &fakeNotifier{}, &fakeRecorder{}, "user-admin")
	c := createCycle(t, h)

	res, env := do(t, h, http.MethodGet, "/cycles/"+c.ID+"/summary", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", res.Code, code(env))
	}
	var summary evaluation.Summary
	if err := json.Unmarshal(env.Data, &summary); err != nil || summary.CycleID != c.ID {
		t.Fatalf("unexpected summary %+v (%v)", summary, err)
	}

	res, _ = do(t, h, http.MethodGet, "/cycles/"+uuid.NewString()+"/summary", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown cycle, got %d", res.Code)
	}

	res, _ = do(t, h, http.MethodGet, "/cycles/"+c.ID+"/roster.pdf", nil)
	if res.Code != http.StatusOK || !bytes.HasPrefix(res.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected roster pdf, got %d", res.Code)
	}
}
