package core

import (
	"context"
	"strings"
)

func (s *Store) ListDepartments(ctx context.Context, orgID string) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, COALESCE(d.description, ''), d.created_at,
           (SELECT COUNT(1) FROM employees e WHERE e.department_id = d.id),
           (SELECT COUNT(1) FROM teams t WHERE t.department_id = d.id)
    FROM departments d
    WHERE d.org_id = $1
    ORDER BY d.name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.EmployeeCount, &d.TeamCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, orgID, departmentID string) (Department, error) {
	var d Department
	err := s.DB.QueryRow(ctx, `
    SELECT d.id, d.name, COALESCE(d.description, ''), d.created_at,
           (SELECT COUNT(1) FROM employees e WHERE e.department_id = d.id),
           (SELECT COUNT(1) FROM teams t WHERE t.department_id = d.id)
    FROM departments d
    WHERE d.org_id = $1 AND d.id = $2
  `, orgID, departmentID).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.EmployeeCount, &d.TeamCount)
	return d, mapErr(err)
}

func (s *Store) CreateDepartment(ctx context.Context, orgID string, dep Department) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (org_id, name, description)
    VALUES ($1,$2,$3)
    RETURNING id
  `, orgID, strings.TrimSpace(dep.Name), dep.Description).Scan(&id)
	return id, mapErr(err)
}

func (s *Store) UpdateDepartment(ctx context.Context, orgID, departmentID string, dep Department) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments SET name = $1, description = $2, updated_at = now()
    WHERE org_id = $3 AND id = $4
  `, strings.TrimSpace(dep.Name), dep.Description, orgID, departmentID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, orgID, departmentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE org_id = $1 AND id = $2", orgID, departmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
