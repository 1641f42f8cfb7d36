package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/querier"
)

const employeeColumns = `
    e.id, COALESCE(e.user_id::text, ''), COALESCE(r.name, ''), COALESCE(e.employee_number, ''),
    e.first_name, e.last_name, e.email, COALESCE(e.phone, ''), COALESCE(e.designation, ''),
    COALESCE(e.department_id::text, ''), COALESCE(d.name, ''), e.joined_on, e.status, e.created_at, e.updated_at
  `

const employeeJoins = `
    FROM employees e
    LEFT JOIN departments d ON d.id = e.department_id
    LEFT JOIN users u ON u.id = e.user_id
    LEFT JOIN roles r ON r.id = u.role_id
  `

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.UserID, &emp.RoleName, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.Phone, &emp.Designation, &emp.DepartmentID, &emp.DepartmentName, &emp.JoinedOn, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt)
	return emp, err
}

func employeeWhere(orgID string, filter EmployeeFilter) (string, []any) {
	where := " WHERE e.org_id = $1"
	args := []any{orgID}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		where += fmt.Sprintf(" AND e.department_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where += fmt.Sprintf(" AND (lower(e.first_name || ' ' || e.last_name) LIKE $%d OR lower(e.email) LIKE $%d)", len(args), len(args))
	}
	return where, args
}

func (s *Store) ListEmployees(ctx context.Context, orgID string, filter EmployeeFilter, limit, offset int) ([]Employee, error) {
	where, args := employeeWhere(orgID, filter)
	args = append(args, limit, offset)
	query := "SELECT " + employeeColumns + employeeJoins + where +
		fmt.Sprintf(" ORDER BY e.last_name, e.first_name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) CountEmployees(ctx context.Context, orgID string, filter EmployeeFilter) (int, error) {
	where, args := employeeWhere(orgID, filter)
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees e"+where, args...).Scan(&total)
	return total, err
}

func (s *Store) GetEmployee(ctx context.Context, orgID, employeeID string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+employeeJoins+" WHERE e.org_id = $1 AND e.id = $2", orgID, employeeID))
	return emp, mapErr(err)
}

// CreateEmployee inserts the employee and, when login is set, a user with
// the requested role, in one transaction.
func (s *Store) CreateEmployee(ctx context.Context, orgID string, emp Employee, login *Login) (string, error) {
	var id string
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var userID string
		if login != nil {
			roleID, err := auth.RoleID(ctx, tx, orgID, login.Role)
			if err != nil {
				return ErrInvalidRole
			}
			userID, err = auth.CreateUser(ctx, tx, orgID, roleID, emp.Email, login.Password)
			if err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `
      INSERT INTO employees (org_id, user_id, employee_number, first_name, last_name, email, phone, designation,
        department_id, joined_on, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      RETURNING id
    `, orgID, nullIfEmpty(userID), nullIfEmpty(emp.EmployeeNumber), strings.TrimSpace(emp.FirstName), strings.TrimSpace(emp.LastName),
			strings.TrimSpace(emp.Email), emp.Phone, emp.Designation, nullIfEmpty(emp.DepartmentID), emp.JoinedOn, EmployeeStatusActive).Scan(&id)
	})
	return id, mapErr(err)
}

func (s *Store) UpdateEmployee(ctx context.Context, orgID, employeeID string, emp Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET employee_number = $1,
        first_name = $2,
        last_name = $3,
        email = $4,
        phone = $5,
        designation = $6,
        department_id = $7,
        joined_on = $8,
        updated_at = now()
    WHERE org_id = $9 AND id = $10
  `, nullIfEmpty(emp.EmployeeNumber), strings.TrimSpace(emp.FirstName), strings.TrimSpace(emp.LastName), strings.TrimSpace(emp.Email),
		emp.Phone, emp.Designation, nullIfEmpty(emp.DepartmentID), emp.JoinedOn, orgID, employeeID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEmployeeStatus also disables or re-enables the employee's login.
func (s *Store) SetEmployeeStatus(ctx context.Context, orgID, employeeID, status string) error {
	return querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var userID *string
		err := tx.QueryRow(ctx, `
      UPDATE employees SET status = $1, updated_at = now()
      WHERE org_id = $2 AND id = $3
      RETURNING user_id::text
    `, status, orgID, employeeID).Scan(&userID)
		if err != nil {
			return mapErr(err)
		}
		if userID == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, "UPDATE users SET status = $1 WHERE id = $2", status, *userID); err != nil {
			return err
		}
		if status != EmployeeStatusActive {
			_, err = tx.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL", *userID)
		}
		return err
	})
}

func (s *Store) CountOrgEmployees(ctx context.Context, orgID string, employeeIDs []string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM employees WHERE org_id = $1 AND id::text = ANY($2) AND status = 'active'
  `, orgID, employeeIDs).Scan(&count)
	return count, err
}
