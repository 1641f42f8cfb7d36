package evaluation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) AssignmentContext(ctx context.Context, orgID, assignmentID string) (AssignmentContext, error) {
	var ac AssignmentContext
	err := s.DB.QueryRow(ctx, `
    SELECT a.id, a.cycle_id, c.status, a.team_id, a.matrix_id, COALESCE(e.user_id::text, '')
    FROM assignments a
    JOIN cycles c ON c.id = a.cycle_id
    JOIN employees e ON e.id = a.line_manager_id
    WHERE a.org_id = $1 AND a.id = $2
  `, orgID, assignmentID).Scan(&ac.AssignmentID, &ac.CycleID, &ac.CycleStatus, &ac.TeamID, &ac.MatrixID, &ac.LineManagerUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return AssignmentContext{}, ErrNotFound
	}
	return ac, err
}

func (s *Store) MatrixWeights(ctx context.Context, matrixID string) ([]ParameterWeight, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT mp.parameter_id, p.name, mp.weightage
    FROM matrix_parameters mp
    JOIN parameters p ON p.id = mp.parameter_id
    WHERE mp.matrix_id = $1
    ORDER BY mp.position
  `, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParameterWeight
	for rows.Next() {
		var p ParameterWeight
		if err := rows.Scan(&p.ParameterID, &p.Name, &p.Weightage); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) IsTeamMember(ctx context.Context, teamID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND employee_id = $2)
  `, teamID, employeeID).Scan(&exists)
	return exists, err
}

func (s *Store) EmployeeUserID(ctx context.Context, orgID, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(user_id::text, '') FROM employees WHERE org_id = $1 AND id = $2", orgID, employeeID).Scan(&userID)
	return userID, err
}

func (s *Store) ListEvaluations(ctx context.Context, orgID, assignmentID string) ([]Evaluation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT ev.id, ev.assignment_id, ev.employee_id, e.first_name || ' ' || e.last_name,
           ev.evaluator_user_id, ev.weighted_score, COALESCE(ev.comment, ''), ev.submitted_at
    FROM evaluations ev
    JOIN employees e ON e.id = ev.employee_id
    WHERE ev.org_id = $1 AND ev.assignment_id = $2
    ORDER BY e.last_name, e.first_name
  `, orgID, assignmentID)
	if err != nil {
		return nil, err
	}
	out := []Evaluation{}
	for rows.Next() {
		var ev Evaluation
		if err := rows.Scan(&ev.ID, &ev.AssignmentID, &ev.EmployeeID, &ev.EmployeeName, &ev.EvaluatorUserID, &ev.WeightedScore, &ev.Comment, &ev.SubmittedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		lines, err := s.scoreLines(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Scores = lines
	}
	return out, nil
}

func (s *Store) GetEvaluation(ctx context.Context, orgID, assignmentID, employeeID string) (Evaluation, error) {
	var ev Evaluation
	err := s.DB.QueryRow(ctx, `
    SELECT ev.id, ev.assignment_id, ev.employee_id, e.first_name || ' ' || e.last_name,
           ev.evaluator_user_id, ev.weighted_score, COALESCE(ev.comment, ''), ev.submitted_at
    FROM evaluations ev
    JOIN employees e ON e.id = ev.employee_id
    WHERE ev.org_id = $1 AND ev.assignment_id = $2 AND ev.employee_id = $3
  `, orgID, assignmentID, employeeID).Scan(&ev.ID, &ev.AssignmentID, &ev.EmployeeID, &ev.EmployeeName, &ev.EvaluatorUserID, &ev.WeightedScore, &ev.Comment, &ev.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	ev.Scores, err = s.scoreLines(ctx, ev.ID)
	return ev, err
}

func (s *Store) scoreLines(ctx context.Context, evaluationID string) ([]ScoreLine, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT es.parameter_id, p.name, es.weightage, es.score, COALESCE(es.comment, '')
    FROM evaluation_scores es
    JOIN parameters p ON p.id = es.parameter_id
    WHERE es.evaluation_id = $1
    ORDER BY es.weightage DESC, p.name
  `, evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []ScoreLine{}
	for rows.Next() {
		var l ScoreLine
		if err := rows.Scan(&l.ParameterID, &l.ParameterName, &l.Weightage, &l.Score, &l.Comment); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SaveEvaluation upserts one employee's evaluation and replaces its scores.
// Each score row keeps the weightage it was computed with.
func (s *Store) SaveEvaluation(ctx context.Context, orgID, evaluatorUserID string, input SubmitInput, weighted float64) (string, error) {
	var id string
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO evaluations (org_id, assignment_id, employee_id, evaluator_user_id, weighted_score, comment)
      VALUES ($1,$2,$3,$4,$5,$6)
      ON CONFLICT (assignment_id, employee_id) DO UPDATE
        SET evaluator_user_id = EXCLUDED.evaluator_user_id,
            weighted_score = EXCLUDED.weighted_score,
            comment = EXCLUDED.comment,
            submitted_at = now()
      RETURNING id
    `, orgID, input.AssignmentID, input.EmployeeID, evaluatorUserID, weighted, input.Comment).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM evaluation_scores WHERE evaluation_id = $1", id); err != nil {
			return err
		}
		for _, score := range input.Scores {
			if _, err := tx.Exec(ctx, `
        INSERT INTO evaluation_scores (evaluation_id, parameter_id, weightage, score, comment)
        SELECT $1, mp.parameter_id, mp.weightage, $3, $4
        FROM matrix_parameters mp
        JOIN assignments a ON a.matrix_id = mp.matrix_id
        WHERE a.id = $5 AND mp.parameter_id = $2
      `, id, score.ParameterID, score.Score, score.Comment, input.AssignmentID); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// SummaryData returns the assignment count, the number of team members to
// evaluate and the weighted scores submitted so far for a cycle.
func (s *Store) SummaryData(ctx context.Context, orgID, cycleID string) (int, int, []float64, error) {
	var assignments, employees int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT a.id), COUNT(tm.employee_id)
    FROM assignments a
    LEFT JOIN team_members tm ON tm.team_id = a.team_id
    WHERE a.org_id = $1 AND a.cycle_id = $2
  `, orgID, cycleID).Scan(&assignments, &employees); err != nil {
		return 0, 0, nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT ev.weighted_score
    FROM evaluations ev
    JOIN assignments a ON a.id = ev.assignment_id
    WHERE a.org_id = $1 AND a.cycle_id = $2
  `, orgID, cycleID)
	if err != nil {
		return 0, 0, nil, err
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return 0, 0, nil, err
		}
		scores = append(scores, score)
	}
	return assignments, employees, scores, rows.Err()
}
