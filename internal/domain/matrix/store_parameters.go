package matrix

import (
	"context"
	"strings"
)

func (s *Store) ListParameters(ctx context.Context, orgID string) ([]Parameter, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, ''), COALESCE(category, ''), status, created_at, updated_at
    FROM parameters
    WHERE org_id = $1
    ORDER BY category, name
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Parameter
	for rows.Next() {
		var p Parameter
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetParameter(ctx context.Context, orgID, parameterID string) (Parameter, error) {
	var p Parameter
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), COALESCE(category, ''), status, created_at, updated_at
    FROM parameters
    WHERE org_id = $1 AND id = $2
  `, orgID, parameterID).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Parameter{}, notFound(err)
	}
	return p, nil
}

func (s *Store) CreateParameter(ctx context.Context, orgID string, input ParameterInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO parameters (org_id, name, description, category, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, orgID, strings.TrimSpace(input.Name), input.Description, strings.TrimSpace(input.Category), ParameterStatusActive).Scan(&id)
	return id, duplicate(err)
}

func (s *Store) UpdateParameter(ctx context.Context, orgID, parameterID string, input ParameterInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE parameters
    SET name = $1, description = $2, category = $3, updated_at = now()
    WHERE org_id = $4 AND id = $5
  `, strings.TrimSpace(input.Name), input.Description, strings.TrimSpace(input.Category), orgID, parameterID)
	if err != nil {
		return duplicate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetParameterStatus(ctx context.Context, orgID, parameterID, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE parameters SET status = $1, updated_at = now()
    WHERE org_id = $2 AND id = $3
  `, status, orgID, parameterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteParameter(ctx context.Context, orgID, parameterID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM parameters WHERE org_id = $1 AND id = $2", orgID, parameterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ParameterReferenced(ctx context.Context, orgID, parameterID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1
      FROM matrix_parameters mp
      JOIN matrices m ON m.id = mp.matrix_id
      WHERE m.org_id = $1 AND mp.parameter_id = $2
    )
  `, orgID, parameterID).Scan(&exists)
	return exists, err
}
