package orghandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/org"
	"appraisal/internal/transport/http/middleware"
)

type memoryStore struct {
	orgs map[string]org.Organization
}

func (m *memoryStore) List(context.Context) ([]org.Organization, error) {
	out := []org.Organization{}
	for _, o := range m.orgs {
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (org.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return org.Organization{}, org.ErrNotFound
	}
	return o, nil
}

func (m *memoryStore) Create(_ context.Context, input org.CreateInput) (string, string, error) {
	for _, o := range m.orgs {
		if o.Name == input.Name {
			return "", "", org.ErrDuplicateName
		}
	}
	id := uuid.NewString()
	m.orgs[id] = org.Organization{ID: id, Name: input.Name, Status: org.StatusActive}
	return id, uuid.NewString(), nil
}

func (m *memoryStore) Update(_ context.Context, id, name, status string) error {
	o := m.orgs[id]
	o.Name, o.Status = name, status
	m.orgs[id] = o
	return nil
}

type rolePerms struct{}

func (rolePerms) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	for _, p := range auth.RolePermissions[roleID] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func newRouter(store *memoryStore, role, orgID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.Session{UserID: "u1", OrgID: orgID, RoleID: role, RoleName: role}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	NewHandler(org.NewService(store), rolePerms{}, nil).RegisterRoutes(r)
	return r
}

func send(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(raw)))
	return rec
}

func TestSuperAdminManagesOrganizations(t *testing.T) {
	store := &memoryStore{orgs: map[string]org.Organization{}}
	h := newRouter(store, auth.RoleSuperAdmin, "")

	body := map[string]string{"name": "Acme", "adminEmail": "admin@acme.test", "adminPassword": "longenough"}
	res := send(h, http.MethodPost, "/organizations", body)
	if res.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", res.Code, res.Body.String())
	}
	var env struct {
		Data struct {
			Organization org.Organization `json:"organization"`
			AdminUserID  string           `json:"adminUserId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &env); err != nil || env.Data.AdminUserID == "" {
		t.Fatalf("unexpected create response %s (%v)", res.Body.String(), err)
	}
	if res := send(h, http.MethodPost, "/organizations", body); res.Code != http.StatusConflict {
		t.Fatalf("expected duplicate conflict, got %d", res.Code)
	}

	id := env.Data.Organization.ID
	if res := send(h, http.MethodPut, "/organizations/"+id, map[string]string{"status": "paused"}); res.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid status, got %d", res.Code)
	}
	if res := send(h, http.MethodPut, "/organizations/"+id, map[string]string{"status": "inactive"}); res.Code != http.StatusOK {
		t.Fatalf("update: %d", res.Code)
	}
	if store.orgs[id].Status != org.StatusInactive || store.orgs[id].Name != "Acme" {
		t.Fatalf("unexpected stored org %+v", store.orgs[id])
	}
}

func TestOrgAdminSeesOnlyOwnOrganization(t *testing.T) {
	id := uuid.NewString()
	store := &memoryStore{orgs: map[string]org.Organization{id: {ID: id, Name: "Acme", Status: org.StatusActive}}}
	h := newRouter(store, auth.RoleOrgAdmin, id)
	if res := send(h, http.MethodGet, "/organizations", nil); res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on organization list, got %d", res.Code)
	}
	if res := send(h, http.MethodGet, "/organization", nil); res.Code != http.StatusOK {
		t.Fatalf("expected own organization, got %d", res.Code)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	store := &memoryStore{orgs: map[string]org.Organization{}}
	h := newRouter(store, auth.RoleSuperAdmin, "")
	res := send(h, http.MethodPost, "/organizations", map[string]string{"name": "  ", "adminEmail": "admin@acme.test", "adminPassword": "longenough"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []struct {
					Field string `json:"field"`
				} `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "validation_error" || len(env.Error.Details.Fields) != 1 || env.Error.Details.Fields[0].Field != "name" {
		t.Fatalf("unexpected error %s", res.Body.String())
	}
	if len(store.orgs) != 0 {
		t.Fatal("blank name must not create an organization")
	}
}
