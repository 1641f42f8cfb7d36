package matrix

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/platform/querier"
)

func (s *Store) ListMatrices(ctx context.Context, orgID, status string) ([]Matrix, error) {
	query := `
    SELECT m.id, m.name, COALESCE(m.description, ''), m.status, m.activated_at, m.created_at, m.updated_at,
           COALESCE(SUM(mp.weightage), 0)
    FROM matrices m
    LEFT JOIN matrix_parameters mp ON mp.matrix_id = m.id
    WHERE m.org_id = $1
  `
	args := []any{orgID}
	if status != "" {
		query += " AND m.status = $2"
		args = append(args, status)
	}
	query += " GROUP BY m.id ORDER BY m.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Matrix
	for rows.Next() {
		var m Matrix
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Status, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt, &m.TotalWeightage); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMatrix(ctx context.Context, orgID, matrixID string) (Matrix, error) {
	var m Matrix
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), status, activated_at, created_at, updated_at
    FROM matrices
    WHERE org_id = $1 AND id = $2
  `, orgID, matrixID).Scan(&m.ID, &m.Name, &m.Description, &m.Status, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Matrix{}, notFound(err)
	}

	rows, err := s.DB.Query(ctx, `
    SELECT mp.parameter_id, p.name, COALESCE(p.category, ''), mp.weightage, mp.position
    FROM matrix_parameters mp
    JOIN parameters p ON p.id = mp.parameter_id
    WHERE mp.matrix_id = $1
    ORDER BY mp.position
  `, matrixID)
	if err != nil {
		return Matrix{}, err
	}
	defer rows.Close()

	m.Parameters = []MatrixParameter{}
	for rows.Next() {
		var p MatrixParameter
		if err := rows.Scan(&p.ParameterID, &p.Name, &p.Category, &p.Weightage, &p.Position); err != nil {
			return Matrix{}, err
		}
		m.Parameters = append(m.Parameters, p)
		m.TotalWeightage += p.Weightage
	}
	return m, rows.Err()
}

func (s *Store) CreateMatrix(ctx context.Context, orgID string, input MatrixInput) (string, error) {
	var id string
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO matrices (org_id, name, description, status)
      VALUES ($1,$2,$3,$4)
      RETURNING id
    `, orgID, strings.TrimSpace(input.Name), input.Description, StatusDraft).Scan(&id); err != nil {
			return err
		}
		return replaceWeights(ctx, tx, id, input.Weights)
	})
	return id, err
}

// SaveMatrix rewrites the header and full parameter list of a draft in one
// transaction. Moving to active stamps activated_at. Only rows still in
// draft are written, so a save racing an activation fails with
// ErrMatrixLocked instead of reopening the matrix.
func (s *Store) SaveMatrix(ctx context.Context, orgID, matrixID, status string, input MatrixInput) error {
	return querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE matrices
      SET name = $1, description = $2, status = $3, updated_at = now(),
          activated_at = CASE WHEN $3 = 'active' THEN now() ELSE activated_at END
      WHERE org_id = $4 AND id = $5 AND status = $6
    `, strings.TrimSpace(input.Name), input.Description, status, orgID, matrixID, StatusDraft)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM matrices WHERE org_id = $1 AND id = $2)", orgID, matrixID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return fmt.Errorf("%w: matrix is no longer a draft", ErrMatrixLocked)
		}
		return replaceWeights(ctx, tx, matrixID, input.Weights)
	})
}

func replaceWeights(ctx context.Context, tx pgx.Tx, matrixID string, weights []Weight) error {
	if _, err := tx.Exec(ctx, "DELETE FROM matrix_parameters WHERE matrix_id = $1", matrixID); err != nil {
		return err
	}
	for i, w := range weights {
		if _, err := tx.Exec(ctx, `
      INSERT INTO matrix_parameters (matrix_id, parameter_id, weightage, position)
      VALUES ($1,$2,$3,$4)
    `, matrixID, w.ParameterID, w.Weightage, i+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteMatrix(ctx context.Context, orgID, matrixID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM matrices WHERE org_id = $1 AND id = $2", orgID, matrixID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MatrixInActiveCycle(ctx context.Context, orgID, matrixID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1
      FROM assignments a
      JOIN cycles c ON c.id = a.cycle_id
      WHERE a.org_id = $1 AND a.matrix_id = $2 AND c.status = 'active'
    )
  `, orgID, matrixID).Scan(&exists)
	return exists, err
}

func (s *Store) MatrixAssigned(ctx context.Context, orgID, matrixID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM assignments WHERE org_id = $1 AND matrix_id = $2)
  `, orgID, matrixID).Scan(&exists)
	return exists, err
}
