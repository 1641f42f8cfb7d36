package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/platform/querier"
)

func (s *Store) ListTeams(ctx context.Context, orgID string) ([]Team, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT t.id, t.name, COALESCE(t.description, ''), COALESCE(t.department_id::text, ''), COALESCE(d.name, ''), t.created_at,
           (SELECT COUNT(1) FROM team_members tm WHERE tm.team_id = t.id)
    FROM teams t
    LEFT JOIN departments d ON d.id = t.department_id
    WHERE t.org_id = $1
    ORDER BY t.name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.DepartmentID, &t.DepartmentName, &t.CreatedAt, &t.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTeam(ctx context.Context, orgID, teamID string) (Team, error) {
	var t Team
	err := s.DB.QueryRow(ctx, `
    SELECT t.id, t.name, COALESCE(t.description, ''), COALESCE(t.department_id::text, ''), COALESCE(d.name, ''), t.created_at
    FROM teams t
    LEFT JOIN departments d ON d.id = t.department_id
    WHERE t.org_id = $1 AND t.id = $2
  `, orgID, teamID).Scan(&t.ID, &t.Name, &t.Description, &t.DepartmentID, &t.DepartmentName, &t.CreatedAt)
	if err != nil {
		return Team{}, mapErr(err)
	}

	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.first_name || ' ' || e.last_name, COALESCE(e.designation, '')
    FROM team_members tm
    JOIN employees e ON e.id = tm.employee_id
    WHERE tm.team_id = $1
    ORDER BY e.last_name, e.first_name
  `, teamID)
	if err != nil {
		return Team{}, err
	}
	defer rows.Close()

	t.Members = []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.EmployeeID, &m.Name, &m.Designation); err != nil {
			return Team{}, err
		}
		t.Members = append(t.Members, m)
	}
	t.MemberCount = len(t.Members)
	return t, rows.Err()
}

func (s *Store) CreateTeam(ctx context.Context, orgID string, team Team) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO teams (org_id, name, description, department_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, orgID, strings.TrimSpace(team.Name), team.Description, nullIfEmpty(team.DepartmentID)).Scan(&id)
	return id, mapErr(err)
}

func (s *Store) UpdateTeam(ctx context.Context, orgID, teamID string, team Team) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE teams SET name = $1, description = $2, department_id = $3, updated_at = now()
    WHERE org_id = $4 AND id = $5
  `, strings.TrimSpace(team.Name), team.Description, nullIfEmpty(team.DepartmentID), orgID, teamID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTeam(ctx context.Context, orgID, teamID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM teams WHERE org_id = $1 AND id = $2", orgID, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TeamAssigned(ctx context.Context, orgID, teamID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM assignments WHERE org_id = $1 AND team_id = $2)", orgID, teamID).Scan(&exists)
	return exists, err
}

func (s *Store) ReplaceTeamMembers(ctx context.Context, orgID, teamID string, employeeIDs []string) error {
	return querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM teams WHERE org_id = $1 AND id = $2)", orgID, teamID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM team_members WHERE team_id = $1", teamID); err != nil {
			return err
		}
		for _, employeeID := range employeeIDs {
			if _, err := tx.Exec(ctx, "INSERT INTO team_members (team_id, employee_id) VALUES ($1,$2)", teamID, employeeID); err != nil {
				return err
			}
		}
		return nil
	})
}
