package cycle

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const assignmentColumns = `
    a.id, a.cycle_id, c.name, c.status, a.team_id, t.name, a.matrix_id, m.name,
    a.line_manager_id, e.first_name || ' ' || e.last_name, COALESCE(e.user_id::text, ''), a.created_at
  `

const assignmentJoins = `
    FROM assignments a
    JOIN cycles c ON c.id = a.cycle_id
    JOIN teams t ON t.id = a.team_id
    JOIN matrices m ON m.id = a.matrix_id
    JOIN employees e ON e.id = a.line_manager_id
  `

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.CycleID, &a.CycleName, &a.CycleStatus, &a.TeamID, &a.TeamName, &a.MatrixID, &a.MatrixName,
		&a.LineManagerID, &a.LineManagerName, &a.LineManagerUserID, &a.CreatedAt)
	return a, err
}

func (s *Store) queryAssignments(ctx context.Context, where string, args ...any) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+assignmentColumns+assignmentJoins+where+" ORDER BY c.start_date DESC, t.name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListAssignments(ctx context.Context, orgID, cycleID string) ([]Assignment, error) {
	return s.queryAssignments(ctx, " WHERE a.org_id = $1 AND a.cycle_id = $2", orgID, cycleID)
}

func (s *Store) AssignmentsForManager(ctx context.Context, orgID, userID, cycleStatus string) ([]Assignment, error) {
	if cycleStatus == "" {
		return s.queryAssignments(ctx, " WHERE a.org_id = $1 AND e.user_id = $2", orgID, userID)
	}
	return s.queryAssignments(ctx, " WHERE a.org_id = $1 AND e.user_id = $2 AND c.status = $3", orgID, userID, cycleStatus)
}

func (s *Store) GetAssignment(ctx context.Context, orgID, assignmentID string) (Assignment, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+assignmentColumns+assignmentJoins+" WHERE a.org_id = $1 AND a.id = $2", orgID, assignmentID)
	a, err := scanAssignment(row)
	if err != nil {
		return Assignment{}, notFound(err)
	}
	return a, nil
}

func (s *Store) CreateAssignment(ctx context.Context, orgID, cycleID string, input AssignmentInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO assignments (org_id, cycle_id, team_id, matrix_id, line_manager_id)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, orgID, cycleID, input.TeamID, input.MatrixID, input.LineManagerID).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrTeamAlreadyAssigned
	}
	return id, err
}

func (s *Store) DeleteAssignment(ctx context.Context, orgID, cycleID, assignmentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM assignments WHERE org_id = $1 AND cycle_id = $2 AND id = $3", orgID, cycleID, assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TeamAssigned(ctx context.Context, orgID, cycleID, teamID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM assignments WHERE org_id = $1 AND cycle_id = $2 AND team_id = $3)
  `, orgID, cycleID, teamID).Scan(&exists)
	return exists, err
}

func (s *Store) TeamExists(ctx context.Context, orgID, teamID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM teams WHERE org_id = $1 AND id = $2)", orgID, teamID).Scan(&exists)
	return exists, err
}

func (s *Store) MatrixStatus(ctx context.Context, orgID, matrixID string) (string, error) {
	var status string
	if err := s.DB.QueryRow(ctx, "SELECT status FROM matrices WHERE org_id = $1 AND id = $2", orgID, matrixID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUnknownMatrix
		}
		return "", err
	}
	return status, nil
}

// ManagerAccount resolves the active login behind an employee. Employees
// without a login yield an empty account.
func (s *Store) ManagerAccount(ctx context.Context, orgID, employeeID string) (ManagerAccount, error) {
	var account ManagerAccount
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(u.id::text, ''), COALESCE(r.name, '')
    FROM employees e
    LEFT JOIN users u ON u.id = e.user_id AND u.status = 'active'
    LEFT JOIN roles r ON r.id = u.role_id
    WHERE e.org_id = $1 AND e.id = $2
  `, orgID, employeeID).Scan(&account.UserID, &account.RoleName)
	if err != nil {
		return ManagerAccount{}, notFound(err)
	}
	return account, nil
}

func (s *Store) ReminderTargets(ctx context.Context, from, until time.Time) ([]ReminderTarget, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.org_id, c.id, c.name, c.end_date, e.user_id::text,
           COUNT(tm.employee_id) - COUNT(ev.id) AS pending
    FROM assignments a
    JOIN cycles c ON c.id = a.cycle_id
    JOIN employees e ON e.id = a.line_manager_id
    JOIN team_members tm ON tm.team_id = a.team_id
    LEFT JOIN evaluations ev ON ev.assignment_id = a.id AND ev.employee_id = tm.employee_id
    WHERE c.status = 'active' AND e.user_id IS NOT NULL AND c.end_date BETWEEN $1::date AND $2::date
    GROUP BY a.org_id, c.id, c.name, c.end_date, e.user_id
    HAVING COUNT(tm.employee_id) - COUNT(ev.id) > 0
    ORDER BY c.end_date
  `, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReminderTarget
	for rows.Next() {
		var t ReminderTarget
		if err := rows.Scan(&t.OrgID, &t.CycleID, &t.CycleName, &t.EndDate, &t.UserID, &t.Pending); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
