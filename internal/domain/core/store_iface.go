package core

import "context"

type StoreAPI interface {
	ListDepartments(ctx context.Context, orgID string) ([]Department, error)
	GetDepartment(ctx context.Context, orgID, departmentID string) (Department, error)
	CreateDepartment(ctx context.Context, orgID string, dep Department) (string, error)
	UpdateDepartment(ctx context.Context, orgID, departmentID string, dep Department) error
	DeleteDepartment(ctx context.Context, orgID, departmentID string) error

	ListEmployees(ctx context.Context, orgID string, filter EmployeeFilter, limit, offset int) ([]Employee, error)
	CountEmployees(ctx context.Context, orgID string, filter EmployeeFilter) (int, error)
	GetEmployee(ctx context.Context, orgID, employeeID string) (Employee, error)
	CreateEmployee(ctx context.Context, orgID string, emp Employee, login *Login) (string, error)
	UpdateEmployee(ctx context.Context, orgID, employeeID string, emp Employee) error
	SetEmployeeStatus(ctx context.Context, orgID, employeeID, status string) error
	CountOrgEmployees(ctx context.Context, orgID string, employeeIDs []string) (int, error)

	ListTeams(ctx context.Context, orgID string) ([]Team, error)
	GetTeam(ctx context.Context, orgID, teamID string) (Team, error)
	CreateTeam(ctx context.Context, orgID string, team Team) (string, error)
	UpdateTeam(ctx context.Context, orgID, teamID string, team Team) error
	DeleteTeam(ctx context.Context, orgID, teamID string) error
	TeamAssigned(ctx context.Context, orgID, teamID string) (bool, error)
	ReplaceTeamMembers(ctx context.Context, orgID, teamID string, employeeIDs []string) error
}
