package cycle

import (
	"context"
	"strings"
)

func (s *Store) ListCycles(ctx context.Context, orgID, status string) ([]Cycle, error) {
	query := `
    SELECT c.id, c.name, COALESCE(c.description, ''), c.start_date, c.end_date, c.status, c.activated_at, c.created_at,
           COUNT(a.id)
    FROM cycles c
    LEFT JOIN assignments a ON a.cycle_id = c.id
    WHERE c.org_id = $1
  `
	args := []any{orgID}
	if status != "" {
		query += " AND c.status = $2"
		args = append(args, status)
	}
	query += " GROUP BY c.id ORDER BY c.start_date DESC, c.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cycle
	for rows.Next() {
		var c Cycle
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.StartDate, &c.EndDate, &c.Status, &c.ActivatedAt, &c.CreatedAt, &c.AssignmentCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCycle(ctx context.Context, orgID, cycleID string) (Cycle, error) {
	var c Cycle
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), start_date, end_date, status, activated_at, created_at,
           (SELECT COUNT(1) FROM assignments WHERE cycle_id = cycles.id)
    FROM cycles
    WHERE org_id = $1 AND id = $2
  `, orgID, cycleID).Scan(&c.ID, &c.Name, &c.Description, &c.StartDate, &c.EndDate, &c.Status, &c.ActivatedAt, &c.CreatedAt, &c.AssignmentCount)
	if err != nil {
		return Cycle{}, notFound(err)
	}
	return c, nil
}

func (s *Store) CreateCycle(ctx context.Context, orgID string, input CycleInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO cycles (org_id, name, description, start_date, end_date, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, orgID, strings.TrimSpace(input.Name), input.Description, input.StartDate, input.EndDate, StatusDraft).Scan(&id)
	return id, err
}

func (s *Store) UpdateCycle(ctx context.Context, orgID, cycleID string, input CycleInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE cycles
    SET name = $1, description = $2, start_date = $3, end_date = $4, updated_at = now()
    WHERE org_id = $5 AND id = $6 AND status = $7
  `, strings.TrimSpace(input.Name), input.Description, input.StartDate, input.EndDate, orgID, cycleID, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleLocked
	}
	return nil
}

func (s *Store) DeleteCycle(ctx context.Context, orgID, cycleID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM cycles WHERE org_id = $1 AND id = $2 AND status = $3", orgID, cycleID, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleLocked
	}
	return nil
}

func (s *Store) MarkCycleActive(ctx context.Context, orgID, cycleID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE cycles SET status = $1, activated_at = now(), updated_at = now()
    WHERE org_id = $2 AND id = $3 AND status = $4
  `, StatusActive, orgID, cycleID, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleLocked
	}
	return nil
}

func (s *Store) InactiveMatrixCount(ctx context.Context, orgID, cycleID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM assignments a
    JOIN matrices m ON m.id = a.matrix_id
    WHERE a.org_id = $1 AND a.cycle_id = $2 AND m.status <> 'active'
  `, orgID, cycleID).Scan(&count)
	return count, err
}
