package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeStore struct {
	departments map[string]Department
	employees   map[string]Employee
	teams       map[string]Team
	members     map[string][]string
	assigned    map[string]bool
	logins      map[string]Login
	next        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		departments: map[string]Department{},
		employees:   map[string]Employee{},
		teams:       map[string]Team{},
		members:     map[string][]string{},
		assigned:    map[string]bool{},
		logins:      map[string]Login{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.next++
	return fmt.Sprintf("%s-%d", prefix, f.next)
}

func (f *fakeStore) ListDepartments(context.Context, string) ([]Department, error) {
	out := []Department{}
	for _, d := range f.departments {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) GetDepartment(_ context.Context, _, id string) (Department, error) {
	d, ok := f.departments[id]
	if !ok {
		return Department{}, ErrNotFound
	}
	for _, e := range f.employees {
		if e.DepartmentID == id {
			d.EmployeeCount++
		}
	}
	for _, t := range f.teams {
		if t.DepartmentID == id {
			d.TeamCount++
		}
	}
	return d, nil
}

func (f *fakeStore) CreateDepartment(_ context.Context, _ string, dep Department) (string, error) {
	dep.ID = f.id("dep")
	f.departments[dep.ID] = dep
	return dep.ID, nil
}

func (f *fakeStore) UpdateDepartment(_ context.Context, _, id string, dep Department) error {
	if _, ok := f.departments[id]; !ok {
		return ErrNotFound
	}
	dep.ID = id
	f.departments[id] = dep
	return nil
}

func (f *fakeStore) DeleteDepartment(_ context.Context, _, id string) error {
	delete(f.departments, id)
	return nil
}

func (f *fakeStore) ListEmployees(context.Context, string, EmployeeFilter, int, int) ([]Employee, error) {
	out := []Employee{}
	for _, e := range f.employees {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) CountEmployees(context.Context, string, EmployeeFilter) (int, error) {
	return len(f.employees), nil
}

func (f *fakeStore) GetEmployee(_ context.Context, _, id string) (Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, _ string, emp Employee, login *Login) (string, error) {
	emp.ID = f.id("emp")
	emp.Status = EmployeeStatusActive
	if login != nil {
		emp.UserID = f.id("user")
		emp.RoleName = login.Role
		f.logins[emp.ID] = *login
	}
	f.employees[emp.ID] = emp
	return emp.ID, nil
}

func (f *fakeStore) UpdateEmployee(_ context.Context, _, id string, emp Employee) error {
	old, ok := f.employees[id]
	if !ok {
		return ErrNotFound
	}
	emp.ID, emp.Status = id, old.Status
	f.employees[id] = emp
	return nil
}

func (f *fakeStore) SetEmployeeStatus(_ context.Context, _, id, status string) error {
	e, ok := f.employees[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	f.employees[id] = e
	return nil
}

func (f *fakeStore) CountOrgEmployees(_ context.Context, _ string, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if e, ok := f.employees[id]; ok && e.Status == EmployeeStatusActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListTeams(context.Context, string) ([]Team, error) {
	out := []Team{}
	for _, t := range f.teams {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetTeam(_ context.Context, _, id string) (Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return Team{}, ErrNotFound
	}
	t.Members = nil
	for _, m := range f.members[id] {
		t.Members = append(t.Members, TeamMember{EmployeeID: m, Name: f.employees[m].FullName()})
	}
	t.MemberCount = len(t.Members)
	return t, nil
}

func (f *fakeStore) CreateTeam(_ context.Context, _ string, team Team) (string, error) {
	team.ID = f.id("team")
	f.teams[team.ID] = team
	return team.ID, nil
}

func (f *fakeStore) UpdateTeam(_ context.Context, _, id string, team Team) error {
	if _, ok := f.teams[id]; !ok {
		return ErrNotFound
	}
	team.ID = id
	f.teams[id] = team
	return nil
}

func (f *fakeStore) DeleteTeam(_ context.Context, _, id string) error {
	if _, ok := f.teams[id]; !ok {
		return ErrNotFound
	}
	delete(f.teams, id)
	return nil
}

func (f *fakeStore) TeamAssigned(_ context.Context, _, id string) (bool, error) {
	return f.assigned[id], nil
}

func (f *fakeStore) ReplaceTeamMembers(_ context.Context, _, id string, ids []string) error {
	if _, ok := f.teams[id]; !ok {
		return ErrNotFound
	}
	f.members[id] = ids
	return nil
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc := NewService(newFakeStore())
	ctx := context.Background()

	cases := []struct {
		name  string
		emp   Employee
		login *Login
		want  error
	}{
		{"missing name", Employee{LastName: "Doe", Email: "a@example.com"}, nil, ErrInvalidInput},
		{"bad email", Employee{FirstName: "Ann", LastName: "Doe", Email: "nope"}, nil, ErrInvalidInput},
		{"super admin role", Employee{FirstName: "Ann", LastName: "Doe", Email: "a@example.com"}, &Login{Password: "Secret123", Role: "super_admin"}, ErrInvalidRole},
		{"short password", Employee{FirstName: "Ann", LastName: "Doe", Email: "a@example.com"}, &Login{Password: "short"}, ErrInvalidInput},
		{"unknown department", Employee{FirstName: "Ann", LastName: "Doe", Email: "a@example.com", DepartmentID: "dep-x"}, nil, ErrUnknownDepartment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateEmployee(ctx, "o1", tc.emp, tc.login); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateEmployeeWithLogin(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	emp, err := svc.CreateEmployee(context.Background(), "o1", Employee{FirstName: "Ann", LastName: "Doe", Email: "ann@example.com"}, &Login{Password: "Secret123"})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if emp.UserID == "" || emp.RoleName != "employee" {
		t.Fatalf("expected default employee login, got %+v", emp)
	}
}

func TestDeleteDepartmentInUse(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	dep, err := svc.CreateDepartment(ctx, "o1", Department{Name: "Engineering"})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	if _, err := svc.CreateTeam(ctx, "o1", Team{Name: "Platform", DepartmentID: dep.ID}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	if err := svc.DeleteDepartment(ctx, "o1", dep.ID); !errors.Is(err, ErrDepartmentInUse) {
		t.Fatalf("expected department in use, got %v", err)
	}
}

func TestTeamMembersAndDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "o1", Team{Name: "Platform"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	emp, err := svc.CreateEmployee(ctx, "o1", Employee{FirstName: "Ann", LastName: "Doe", Email: "ann@example.com"}, nil)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	if _, err := svc.SetMembers(ctx, "o1", team.ID, []string{emp.ID, "emp-other"}); !errors.Is(err, ErrUnknownEmployee) {
		t.Fatalf("expected unknown employee, got %v", err)
	}
	got, err := svc.SetMembers(ctx, "o1", team.ID, []string{emp.ID, emp.ID, " "})
	if err != nil {
		t.Fatalf("set members: %v", err)
	}
	if got.MemberCount != 1 || got.Members[0].Name != "Ann Doe" {
		t.Fatalf("unexpected members: %+v", got.Members)
	}

	if _, err := svc.SetEmployeeStatus(ctx, "o1", emp.ID, EmployeeStatusInactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.SetMembers(ctx, "o1", team.ID, []string{emp.ID}); !errors.Is(err, ErrUnknownEmployee) {
		t.Fatalf("inactive employee must not join a team, got %v", err)
	}

	store.assigned[team.ID] = true
	if err := svc.DeleteTeam(ctx, "o1", team.ID); !errors.Is(err, ErrTeamInUse) {
		t.Fatalf("expected team in use, got %v", err)
	}
	store.assigned[team.ID] = false
	if err := svc.DeleteTeam(ctx, "o1", team.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}
}

func TestSetEmployeeStatusRejectsUnknown(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.SetEmployeeStatus(context.Background(), "o1", "emp-1", "retired"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
