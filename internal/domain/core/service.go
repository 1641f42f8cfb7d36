package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"appraisal/internal/domain/auth"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListDepartments(ctx context.Context, orgID string) ([]Department, error) {
	return s.store.ListDepartments(ctx, orgID)
}

func (s *Service) GetDepartment(ctx context.Context, orgID, departmentID string) (Department, error) {
	return s.store.GetDepartment(ctx, orgID, departmentID)
}

func (s *Service) CreateDepartment(ctx context.Context, orgID string, dep Department) (Department, error) {
	if strings.TrimSpace(dep.Name) == "" {
		return Department{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	id, err := s.store.CreateDepartment(ctx, orgID, dep)
	if err != nil {
		return Department{}, err
	}
	return s.store.GetDepartment(ctx, orgID, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, orgID, departmentID string, dep Department) (Department, error) {
	if strings.TrimSpace(dep.Name) == "" {
		return Department{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.store.UpdateDepartment(ctx, orgID, departmentID, dep); err != nil {
		return Department{}, err
	}
	return s.store.GetDepartment(ctx, orgID, departmentID)
}

// DeleteDepartment refuses while employees or teams still point at it.
func (s *Service) DeleteDepartment(ctx context.Context, orgID, departmentID string) error {
	dep, err := s.store.GetDepartment(ctx, orgID, departmentID)
	if err != nil {
		return err
	}
	if dep.EmployeeCount > 0 || dep.TeamCount > 0 {
		return ErrDepartmentInUse
	}
	return s.store.DeleteDepartment(ctx, orgID, departmentID)
}

func (s *Service) ListEmployees(ctx context.Context, orgID string, filter EmployeeFilter, limit, offset int) ([]Employee, int, error) {
	total, err := s.store.CountEmployees(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.store.ListEmployees(ctx, orgID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *Service) GetEmployee(ctx context.Context, orgID, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, orgID, employeeID)
}

// CreateEmployee optionally provisions a login; the role must be one an org
// admin may hand out.
func (s *Service) CreateEmployee(ctx context.Context, orgID string, emp Employee, login *Login) (Employee, error) {
	if err := checkEmployee(emp); err != nil {
		return Employee{}, err
	}
	if login != nil {
		if login.Role == "" {
			login.Role = auth.RoleEmployee
		}
		if !auth.AssignableRole(login.Role) {
			return Employee{}, ErrInvalidRole
		}
		if len(login.Password) < 8 {
			return Employee{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
		}
	}
	if err := s.checkDepartment(ctx, orgID, emp.DepartmentID); err != nil {
		return Employee{}, err
	}
	id, err := s.store.CreateEmployee(ctx, orgID, emp, login)
	if err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, orgID, id)
}

func (s *Service) UpdateEmployee(ctx context.Context, orgID, employeeID string, emp Employee) (Employee, error) {
	if err := checkEmployee(emp); err != nil {
		return Employee{}, err
	}
	if err := s.checkDepartment(ctx, orgID, emp.DepartmentID); err != nil {
		return Employee{}, err
	}
	if err := s.store.UpdateEmployee(ctx, orgID, employeeID, emp); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, orgID, employeeID)
}

func (s *Service) SetEmployeeStatus(ctx context.Context, orgID, employeeID, status string) (Employee, error) {
	if status != EmployeeStatusActive && status != EmployeeStatusInactive {
		return Employee{}, fmt.Errorf("%w: status must be active or inactive", ErrInvalidInput)
	}
	if err := s.store.SetEmployeeStatus(ctx, orgID, employeeID, status); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, orgID, employeeID)
}

func (s *Service) ListTeams(ctx context.Context, orgID string) ([]Team, error) {
	return s.store.ListTeams(ctx, orgID)
}

func (s *Service) GetTeam(ctx context.Context, orgID, teamID string) (Team, error) {
	return s.store.GetTeam(ctx, orgID, teamID)
}

func (s *Service) CreateTeam(ctx context.Context, orgID string, team Team) (Team, error) {
	if strings.TrimSpace(team.Name) == "" {
		return Team{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.checkDepartment(ctx, orgID, team.DepartmentID); err != nil {
		return Team{}, err
	}
	id, err := s.store.CreateTeam(ctx, orgID, team)
	if err != nil {
		return Team{}, err
	}
	return s.store.GetTeam(ctx, orgID, id)
}

func (s *Service) UpdateTeam(ctx context.Context, orgID, teamID string, team Team) (Team, error) {
	if strings.TrimSpace(team.Name) == "" {
		return Team{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.checkDepartment(ctx, orgID, team.DepartmentID); err != nil {
		return Team{}, err
	}
	if err := s.store.UpdateTeam(ctx, orgID, teamID, team); err != nil {
		return Team{}, err
	}
	return s.store.GetTeam(ctx, orgID, teamID)
}

// DeleteTeam refuses once the team has been assigned in any cycle.
func (s *Service) DeleteTeam(ctx context.Context, orgID, teamID string) error {
	assigned, err := s.store.TeamAssigned(ctx, orgID, teamID)
	if err != nil {
		return err
	}
	if assigned {
		return ErrTeamInUse
	}
	return s.store.DeleteTeam(ctx, orgID, teamID)
}

// SetMembers replaces the member list. Every id must be an active employee
// of the same organization.
func (s *Service) SetMembers(ctx context.Context, orgID, teamID string, employeeIDs []string) (Team, error) {
	ids := dedupe(employeeIDs)
	if len(ids) > 0 {
		count, err := s.store.CountOrgEmployees(ctx, orgID, ids)
		if err != nil {
			return Team{}, err
		}
		if count != len(ids) {
			return Team{}, ErrUnknownEmployee
		}
	}
	if err := s.store.ReplaceTeamMembers(ctx, orgID, teamID, ids); err != nil {
		return Team{}, err
	}
	return s.store.GetTeam(ctx, orgID, teamID)
}

func (s *Service) checkDepartment(ctx context.Context, orgID, departmentID string) error {
	if departmentID == "" {
		return nil
	}
	if _, err := s.store.GetDepartment(ctx, orgID, departmentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownDepartment
		}
		return err
	}
	return nil
}

func checkEmployee(emp Employee) error {
	if strings.TrimSpace(emp.FirstName) == "" || strings.TrimSpace(emp.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(emp.Email)); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
