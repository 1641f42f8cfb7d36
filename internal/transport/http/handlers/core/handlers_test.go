package corehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/core"
	"appraisal/internal/transport/http/middleware"
)

type memoryStore struct {
	departments map[string]core.Department
	employees   []core.Employee
	teams       map[string]core.Team
	assigned    map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{departments: map[string]core.Department{}, teams: map[string]core.Team{}, assigned: map[string]bool{}}
}

func (m *memoryStore) ListDepartments(context.Context, string) ([]core.Department, error) {
	out := []core.Department{}
	for _, d := range m.departments {
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryStore) GetDepartment(_ context.Context, _, id string) (core.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return core.Department{}, core.ErrNotFound
	}
	for _, e := range m.employees {
		if e.DepartmentID == id {
			d.EmployeeCount++
		}
	}
	return d, nil
}

func (m *memoryStore) CreateDepartment(_ context.Context, _ string, dep core.Department) (string, error) {
	dep.ID = uuid.NewString()
	m.departments[dep.ID] = dep
	return dep.ID, nil
}

func (m *memoryStore) UpdateDepartment(_ context.Context, _, id string, dep core.Department) error {
	dep.ID = id
	m.departments[id] = dep
	return nil
}

func (m *memoryStore) DeleteDepartment(_ context.Context, _, id string) error {
	delete(m.departments, id)
	return nil
}

func (m *memoryStore) ListEmployees(_ context.Context, _ string, _ core.EmployeeFilter, limit, offset int) ([]core.Employee, error) {
	if offset >= len(m.employees) {
		return []core.Employee{}, nil
	}
	end := min(offset+limit, len(m.employees))
	return append([]core.Employee(nil), m.employees[offset:end]...), nil
}

func (m *memoryStore) CountEmployees(context.Context, string, core.EmployeeFilter) (int, error) {
	return len(m.employees), nil
}

func (m *memoryStore) GetEmployee(_ context.Context, _, id string) (core.Employee, error) {
	for _, e := range m.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Employee{}, core.ErrNotFound
}

func (m *memoryStore) CreateEmployee(_ context.Context, _ string, emp core.Employee, login *core.Login) (string, error) {
	emp.ID = uuid.NewString()
	emp.Status = core.EmployeeStatusActive
	if login != nil {
		emp.UserID = "user-" + emp.ID
		emp.RoleName = login.Role
	}
	m.employees = append(m.employees, emp)
	return emp.ID, nil
}

func (m *memoryStore) UpdateEmployee(_ context.Context, _, id string, emp core.Employee) error {
	for i, e := range m.employees {
		if e.ID == id {
			emp.ID, emp.UserID, emp.Status = id, e.UserID, e.Status
			m.employees[i] = emp
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memoryStore) SetEmployeeStatus(_ context.Context, _, id, status string) error {
	for i, e := range m.employees {
		if e.ID == id {
			m.employees[i].Status = status
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memoryStore) CountOrgEmployees(_ context.Context, _ string, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		for _, e := range m.employees {
			if e.ID == id && e.Status == core.EmployeeStatusActive {
				count++
			}
		}
	}
	return count, nil
}

func (m *memoryStore) ListTeams(context.Context, string) ([]core.Team, error) {
	out := []core.Team{}
	for _, t := range m.teams {
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryStore) GetTeam(_ context.Context, _, id string) (core.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return core.Team{}, core.ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) CreateTeam(_ context.Context, _ string, team core.Team) (string, error) {
	team.ID = uuid.NewString()
	m.teams[team.ID] = team
	return team.ID, nil
}

func (m *memoryStore) UpdateTeam(_ context.Context, _, id string, team core.Team) error {
	team.ID = id
	m.teams[id] = team
	return nil
}

func (m *memoryStore) DeleteTeam(_ context.Context, _, id string) error {
	delete(m.teams, id)
	return nil
}

func (m *memoryStore) TeamAssigned(_ context.Context, _, id string) (bool, error) {
	return m.assigned[id], nil
}

func (m *memoryStore) ReplaceTeamMembers(_ context.Context, _, id string, ids []string) error {
	t, ok := m.teams[id]
	if !ok {
		return core.ErrNotFound
	}
	t.Members = nil
	for _, empID := range ids {
		t.Members = append(t.Members, core.TeamMember{EmployeeID: empID})
	}
	t.MemberCount = len(ids)
	m.teams[id] = t
	return nil
}

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

func newRouter(store *memoryStore, session auth.Session) http.Handler {
	h := NewHandler(core.NewService(store), allowAll{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

var admin = auth.Session{UserID: "user-admin", OrgID: "org-1", RoleName: auth.RoleOrgAdmin}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(raw)))
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return rec, env
}

func code(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestCreateEmployee(t *testing.T) {
	h := newRouter(newMemoryStore(), admin)
	tests := []struct {
		name string
		body map[string]any
		want int
		code string
	}{
		{name: "plain employee", body: map[string]any{"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}, want: http.StatusCreated},
		{name: "with login", body: map[string]any{"firstName": "Lin", "lastName": "Man", "email": "lin@example.com", "login": map[string]string{"password": "longenough", "role": "line_manager"}}, want: http.StatusCreated},
		{name: "bad email", body: map[string]any{"firstName": "A", "lastName": "B", "email": "nope"}, want: http.StatusBadRequest, code: "validation_error"},
		{name: "super admin role", body: map[string]any{"firstName": "A", "lastName": "B", "email": "a@b.co", "login": map[string]string{"password": "longenough", "role": "super_admin"}}, want: http.StatusBadRequest, code: "validation_error"},
		{name: "unknown department", body: map[string]any{"firstName": "A", "lastName": "B", "email": "a@b.co", "departmentId": uuid.NewString()}, want: http.StatusUnprocessableEntity, code: "invalid_reference"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, env := do(t, h, http.MethodPost, "/employees", tc.body)
			if res.Code != tc.want || code(env) != tc.code {
				t.Fatalf("got %d %q, want %d %q", res.Code, code(env), tc.want, tc.code)
			}
		})
	}
}

func TestListEmployeesPagesAndRedacts(t *testing.T) {
	store := newMemoryStore()
	h := newRouter(store, admin)
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		res, _ := do(t, h, http.MethodPost, "/employees", map[string]any{"firstName": name, "lastName": "X", "email": strings.ToLower(name) + "@example.com", "phone": "555"})
		if res.Code != http.StatusCreated {
			t.Fatalf("seed %s: %d", name, res.Code)
		}
	}

	viewer := newRouter(store, auth.Session{UserID: "user-emp", OrgID: "org-1", RoleName: auth.RoleEmployee})
	res, env := do(t, viewer, http.MethodGet, "/employees?limit=2&offset=1", nil)
	if res.Code != http.StatusOK || res.Header().Get("X-Total-Count") != "3" {
		t.Fatalf("list: %d total=%q", res.Code, res.Header().Get("X-Total-Count"))
	}
	var page struct {
		Items  []core.Employee `json:"items"`
		Total  int             `json:"total"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 2 || page.Total != 3 || page.Limit != 2 || page.Offset != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, e := range page.Items {
		if e.Email != "" || e.Phone != "" {
			t.Fatalf("expected contact details to be redacted, got %+v", e)
		}
	}
}

func TestTeamMembersAndDelete(t *testing.T) {
	store := newMemoryStore()
	h := newRouter(store, admin)
	res, env := do(t, h, http.MethodPost, "/employees", map[string]any{"firstName": "Ada", "lastName": "L", "email": "ada@example.com"})
	if res.Code != http.StatusCreated {
		t.Fatalf("create employee: %d", res.Code)
	}
	var emp core.Employee
	_ = json.Unmarshal(env.Data, &emp)

	res, env = do(t, h, http.MethodPost, "/teams", map[string]any{"name": "Platform"})
	if res.Code != http.StatusCreated {
		t.Fatalf("create team: %d %s", res.Code, code(env))
	}
	var team core.Team
	_ = json.Unmarshal(env.Data, &team)

	res, env = do(t, h, http.MethodPut, "/teams/"+team.ID+"/members", map[string]any{"employeeIds": []string{emp.ID, uuid.NewString()}})
	if res.Code != http.StatusUnprocessableEntity || code(env) != "invalid_reference" {
		t.Fatalf("expected invalid_reference, got %d %s", res.Code, code(env))
	}

	res, env = do(t, h, http.MethodPut, "/teams/"+team.ID+"/members", map[string]any{"employeeIds": []string{emp.ID, emp.ID}})
	if res.Code != http.StatusOK {
		t.Fatalf("set members: %d %s", res.Code, code(env))
	}
	_ = json.Unmarshal(env.Data, &team)
	if team.MemberCount != 1 {
		t.Fatalf("expected deduplicated members, got %+v", team)
	}

	store.assigned[team.ID] = true
	res, env = do(t, h, http.MethodDelete, "/teams/"+team.ID, nil)
	if res.Code != http.StatusConflict || code(env) != "in_use" {
		t.Fatalf("expected in_use, got %d %s", res.Code, code(env))
	}
}

func TestDeleteDepartmentInUse(t *testing.T) {
	store := newMemoryStore()
	h := newRouter(store, admin)
	res, env := do(t, h, http.MethodPost, "/departments", map[string]any{"name": "Engineering"})
	if res.Code != http.StatusCreated {
		t.Fatalf("create department: %d", res.Code)
	}
	var dep core.Department
	_ = json.Unmarshal(env.Data, &dep)

	res, _ = do(t, h, http.MethodPost, "/employees", map[string]any{"firstName": "Ada", "lastName": "L", "email": "ada@example.com", "departmentId": dep.ID})
	if res.Code != http.StatusCreated {
		t.Fatalf("create employee: %d", res.Code)
	}
	res, env = do(t, h, http.MethodDelete, "/departments/"+dep.ID, nil)
	if res.Code != http.StatusConflict || code(env) != "in_use" {
		t.Fatalf("expected in_use, got %d %s", res.Code, code(env))
	}
}
