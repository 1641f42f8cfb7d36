package org

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	orgs map[string]Organization
}

func (f *fakeStore) List(context.Context) ([]Organization, error) {
	var out []Organization
	for _, o := range f.orgs {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) Create(_ context.Context, input CreateInput) (string, string, error) {
	for _, o := range f.orgs {
		if o.Name == input.Name {
			return "", "", ErrDuplicateName
		}
	}
	f.orgs["o2"] = Organization{ID: "o2", Name: input.Name, Status: StatusActive}
	return "o2", "admin-2", nil
}

func (f *fakeStore) Update(_ context.Context, id, name, status string) error {
	o := f.orgs[id]
	o.Name, o.Status = name, status
	f.orgs[id] = o
	return nil
}

func TestCreateAndUpdateOrganization(t *testing.T) {
	store := &fakeStore{orgs: map[string]Organization{"o1": {ID: "o1", Name: "Acme", Status: StatusActive}}}
	svc := NewService(store)
	ctx := context.Background()

	if _, _, err := svc.Create(ctx, CreateInput{Name: "Acme"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}
	created, adminID, err := svc.Create(ctx, CreateInput{Name: "Globex", AdminEmail: "a@globex.test", AdminPassword: "Secret123"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != "o2" || adminID != "admin-2" {
		t.Fatalf("unexpected create result: %+v %s", created, adminID)
	}

	updated, err := svc.Update(ctx, "o2", "", StatusInactive)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Globex" || updated.Status != StatusInactive {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if _, err := svc.Update(ctx, "o2", "", "archived"); err == nil {
		t.Fatal("expected invalid status to fail")
	}
	if _, err := svc.Update(ctx, "missing", "x", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
