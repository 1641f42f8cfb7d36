package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   false,
		"error":     map[string]any{"code": code, "message": message},
		"requestId": "req-1",
	})
}

func TestLoginStoresTokenAndSendsIt(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			writeData(w, http.StatusOK, map[string]any{
				"token": "tok-1",
				"user":  map[string]any{"userId": "u1", "orgId": "o1", "role": "org_admin"},
			})
		case "/api/v1/matrices":
			gotAuth = r.Header.Get("Authorization")
			if r.URL.Query().Get("status") != "active" {
				t.Errorf("expected status filter, got %q", r.URL.RawQuery)
			}
			writeData(w, http.StatusOK, []map[string]any{{"id": "m1", "name": "Sales", "status": "active", "totalWeightage": 100}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(&Session{BaseURL: srv.URL})
	user, err := c.Auth.Login(context.Background(), "admin@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != "org_admin" || c.Session().AccessToken() != "tok-1" {
		t.Fatalf("unexpected session %+v", c.Session())
	}

	matrices, err := c.Matrices.List(context.Background(), "active")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if len(matrices) != 1 || matrices[0].TotalWeightage != 100 {
		t.Fatalf("unexpected matrices %+v", matrices)
	}
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnprocessableEntity, "weightage_incomplete", "total must be 100")
	}))
	defer srv.Close()

	c := New(&Session{BaseURL: srv.URL, Token: "tok"})
	_, err := c.Matrices.Activate(context.Background(), "m1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != "weightage_incomplete" || apiErr.RequestID != "req-1" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("422 must not read as unauthorized")
	}
	if !c.Session().LoggedIn() {
		t.Fatal("session must survive a validation failure")
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "unauthorized", "session expired")
	}))
	defer srv.Close()

	c := New(&Session{BaseURL: srv.URL, Token: "stale", User: User{UserID: "u1"}})
	_, err := c.Cycles.List(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if c.Session().LoggedIn() || c.Session().User.UserID != "" {
		t.Fatalf("expected cleared session, got %+v", c.Session())
	}
	if c.Session().BaseURL != srv.URL {
		t.Fatal("base url must be kept")
	}
}

func TestRescaleSendsWeights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Parameters []Weight `json:"parameters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Parameters) != 2 {
			t.Errorf("unexpected body %+v err=%v", body, err)
		}
		writeData(w, http.StatusOK, map[string]any{
			"parameters":     []Weight{{ParameterID: "a", Weightage: 71}, {ParameterID: "b", Weightage: 29}},
			"totalWeightage": 100,
		})
	}))
	defer srv.Close()

	c := New(&Session{BaseURL: srv.URL, Token: "tok"})
	out, err := c.Matrices.Rescale(context.Background(), []Weight{{ParameterID: "a", Weightage: 50}, {ParameterID: "b", Weightage: 20}})
	if err != nil {
		t.Fatalf("rescale: %v", err)
	}
	if out.TotalWeightage != 100 || out.Parameters[0].Weightage != 71 {
		t.Fatalf("unexpected rescale %+v", out)
	}
}

func TestLogoutClearsEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusInternalServerError, "internal_error", "boom")
	}))
	defer srv.Close()

	c := New(&Session{BaseURL: srv.URL, Token: "tok"})
	if err := c.Auth.Logout(context.Background()); err == nil {
		t.Fatal("expected error from failed logout")
	}
	if c.Session().LoggedIn() {
		t.Fatal("expected session cleared")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if s.LoggedIn() {
		t.Fatal("missing file must give an empty session")
	}
	s.BaseURL = "http://localhost:8080"
	s.set("tok", User{UserID: "u1", Role: "line_manager"})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AccessToken() != "tok" || loaded.User.Role != "line_manager" || loaded.BaseURL != s.BaseURL {
		t.Fatalf("unexpected session %+v", loaded)
	}

	loaded.Clear()
	if err := loaded.Save(); err != nil {
		t.Fatalf("save cleared: %v", err)
	}
	again, _ := LoadSession(path)
	if again.LoggedIn() {
		t.Fatal("cleared session must stay cleared on disk")
	}
}

func TestCustomHTTPClientKeepsDefaults(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		writeData(w, http.StatusOK, []map[string]any{})
	}))
	defer srv.Close()

	hc := &http.Client{}
	c := New(&Session{BaseURL: srv.URL, Token: "tok"}, WithTimeout(5*time.Second), WithHTTPClient(hc))
	if _, err := c.Cycles.List(context.Background(), ""); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected JSON Accept header, got %q", gotAccept)
	}
	if hc.Timeout != 5*time.Second {
		t.Fatalf("expected timeout applied to the supplied client, got %v", hc.Timeout)
	}

	New(&Session{BaseURL: srv.URL}, WithHTTPClient(hc))
	if hc.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", hc.Timeout)
	}
}
