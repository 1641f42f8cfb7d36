package evaluation

import (
	"context"
	"fmt"
	"log/slog"

	"appraisal/internal/domain/notifications"
	"appraisal/internal/platform/metrics"
)

type Notifier interface {
	Create(ctx context.Context, orgID, userID, ntype, title, body string) error
}

type Service struct {
	store   StoreAPI
	notify  Notifier
	metrics *metrics.Collector
}

func NewService(store StoreAPI, notify Notifier, m *metrics.Collector) *Service {
	return &Service{store: store, notify: notify, metrics: m}
}

// List returns the evaluations of one assignment. Only its line manager or
// an org admin may read them.
func (s *Service) List(ctx context.Context, orgID, actorUserID string, asAdmin bool, assignmentID string) ([]Evaluation, error) {
	ac, err := s.store.AssignmentContext(ctx, orgID, assignmentID)
	if err != nil {
		return nil, err
	}
	if !asAdmin && ac.LineManagerUserID != actorUserID {
		return nil, ErrNotEvaluator
	}
	return s.store.ListEvaluations(ctx, orgID, assignmentID)
}

// Submit stores or replaces the scores of one team member. The cycle must
// be active and every matrix parameter scored exactly once.
func (s *Service) Submit(ctx context.Context, orgID, actorUserID string, asAdmin bool, input SubmitInput) (Evaluation, error) {
	ac, err := s.store.AssignmentContext(ctx, orgID, input.AssignmentID)
	if err != nil {
		return Evaluation{}, err
	}
	if ac.CycleStatus != "active" {
		return Evaluation{}, ErrCycleNotActive
	}
	if !asAdmin && ac.LineManagerUserID != actorUserID {
		return Evaluation{}, ErrNotEvaluator
	}
	member, err := s.store.IsTeamMember(ctx, ac.TeamID, input.EmployeeID)
	if err != nil {
		return Evaluation{}, err
	}
	if !member {
		return Evaluation{}, ErrNotTeamMember
	}
	params, err := s.store.MatrixWeights(ctx, ac.MatrixID)
	if err != nil {
		return Evaluation{}, err
	}
	if err := CheckScores(params, input.Scores); err != nil {
		return Evaluation{}, err
	}

	weighted := WeightedScore(params, input.Scores)
	if _, err := s.store.SaveEvaluation(ctx, orgID, actorUserID, input, weighted); err != nil {
		return Evaluation{}, err
	}
	s.metrics.EvaluationSubmitted()

	if s.notify != nil {
		userID, err := s.store.EmployeeUserID(ctx, orgID, input.EmployeeID)
		if err != nil {
			slog.Warn("evaluation employee user lookup failed", "err", err)
		}
		if userID != "" {
			if err := s.notify.Create(ctx, orgID, userID, notifications.TypeEvaluationSubmitted, "Evaluation recorded",
				fmt.Sprintf("Your evaluation has been recorded with a weighted score of %.2f.", weighted)); err != nil {
				slog.Warn("evaluation notification failed", "err", err)
			}
		}
	}
	return s.store.GetEvaluation(ctx, orgID, input.AssignmentID, input.EmployeeID)
}

func (s *Service) Summary(ctx context.Context, orgID, cycleID string) (Summary, error) {
	assignments, employees, scores, err := s.store.SummaryData(ctx, orgID, cycleID)
	if err != nil {
		return Summary{}, err
	}
	return buildSummary(cycleID, assignments, employees, scores), nil
}
