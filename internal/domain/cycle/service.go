package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/platform/metrics"
)

// Notifier delivers in-app notifications.
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

func (s *Service) ListCycles(ctx context.Context, orgID, status string) ([]Cycle, error) {
	return s.store.ListCycles(ctx, orgID, status)
}

// GetCycle returns the cycle together with its assignments.
func (s *Service) GetCycle(ctx context.Context, orgID, cycleID string) (Cycle, error) {
	c, err := s.store.GetCycle(ctx, orgID, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	assignments, err := s.store.ListAssignments(ctx, orgID, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	c.Assignments = assignments
	return c, nil
}

func (s *Service) CreateCycle(ctx context.Context, orgID string, input CycleInput) (Cycle, error) {
	if err := checkDates(input); err != nil {
		return Cycle{}, err
	}
	id, err := s.store.CreateCycle(ctx, orgID, input)
	if err != nil {
		return Cycle{}, err
	}
	return s.store.GetCycle(ctx, orgID, id)
}

func (s *Service) UpdateCycle(ctx context.Context, orgID, cycleID string, input CycleInput) (Cycle, error) {
	if _, err := s.draft(ctx, orgID, cycleID); err != nil {
		return Cycle{}, err
	}
	if err := checkDates(input); err != nil {
		return Cycle{}, err
	}
	if err := s.store.UpdateCycle(ctx, orgID, cycleID, input); err != nil {
		return Cycle{}, err
	}
	return s.store.GetCycle(ctx, orgID, cycleID)
}

func (s *Service) DeleteCycle(ctx context.Context, orgID, cycleID string) error {
	if _, err := s.draft(ctx, orgID, cycleID); err != nil {
		return err
	}
	return s.store.DeleteCycle(ctx, orgID, cycleID)
}

// Activate moves a draft cycle to active. It needs at least one assignment
// and every assigned matrix must be active. Each line manager is notified
// once.
func (s *Service) Activate(ctx context.Context, orgID, cycleID string) (Cycle, error) {
	c, err := s.draft(ctx, orgID, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	assignments, err := s.store.ListAssignments(ctx, orgID, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if len(assignments) == 0 {
		return Cycle{}, ErrNoAssignments
	}
	inactive, err := s.store.InactiveMatrixCount(ctx, orgID, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if inactive > 0 {
		return Cycle{}, fmt.Errorf("%w: %d assignment(s) use a draft matrix", ErrMatrixNotActive, inactive)
	}
	if err := s.store.MarkCycleActive(ctx, orgID, cycleID); err != nil {
		return Cycle{}, err
	}
	s.metrics.CycleActivated()

	notified := map[string]struct{}{}
	for _, a := range assignments {
		if a.LineManagerUserID == "" {
			continue
		}
		if _, done := notified[a.LineManagerUserID]; done {
			continue
		}
		notified[a.LineManagerUserID] = struct{}{}
		s.send(ctx, orgID, a.LineManagerUserID, notifications.TypeCycleActivated,
			"Evaluation cycle started",
			fmt.Sprintf("%s is now open. Evaluations are due by %s.", c.Name, c.EndDate.Format("2006-01-02")))
	}
	return s.GetCycle(ctx, orgID, cycleID)
}

func (s *Service) ListAssignments(ctx context.Context, orgID, cycleID string) ([]Assignment, error) {
	if _, err := s.store.GetCycle(ctx, orgID, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListAssignments(ctx, orgID, cycleID)
}

func (s *Service) GetAssignment(ctx context.Context, orgID, assignmentID string) (Assignment, error) {
	return s.store.GetAssignment(ctx, orgID, assignmentID)
}

// CreateAssignment binds a team to a matrix and line manager in a draft
// cycle. A team may appear at most once per cycle.
func (s *Service) CreateAssignment(ctx context.Context, orgID, cycleID string, input AssignmentInput) (Assignment, error) {
	c, err := s.draft(ctx, orgID, cycleID)
	if err != nil {
		return Assignment{}, err
	}
	exists, err := s.store.TeamExists(ctx, orgID, input.TeamID)
	if err != nil {
		return Assignment{}, err
	}
	if !exists {
		return Assignment{}, ErrUnknownTeam
	}
	status, err := s.store.MatrixStatus(ctx, orgID, input.MatrixID)
	if err != nil {
		return Assignment{}, err
	}
	if status != StatusActive {
		return Assignment{}, ErrMatrixNotActive
	}
	account, err := s.store.ManagerAccount(ctx, orgID, input.LineManagerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Assignment{}, ErrNotLineManager
		}
		return Assignment{}, err
	}
	if account.UserID == "" || (account.RoleName != auth.RoleLineManager && account.RoleName != auth.RoleOrgAdmin) {
		return Assignment{}, ErrNotLineManager
	}
	assigned, err := s.store.TeamAssigned(ctx, orgID, cycleID, input.TeamID)
	if err != nil {
		return Assignment{}, err
	}
	if assigned {
		return Assignment{}, ErrTeamAlreadyAssigned
	}

	id, err := s.store.CreateAssignment(ctx, orgID, cycleID, input)
	if err != nil {
		return Assignment{}, err
	}
	s.metrics.AssignmentCreated()

	a, err := s.store.GetAssignment(ctx, orgID, id)
	if err != nil {
		return Assignment{}, err
	}
	s.send(ctx, orgID, account.UserID, notifications.TypeAssignmentCreated,
		"New team assignment",
		fmt.Sprintf("You will evaluate %s with %s in %s.", a.TeamName, a.MatrixName, c.Name))
	return a, nil
}

func (s *Service) DeleteAssignment(ctx context.Context, orgID, cycleID, assignmentID string) error {
	if _, err := s.draft(ctx, orgID, cycleID); err != nil {
		return err
	}
	return s.store.DeleteAssignment(ctx, orgID, cycleID, assignmentID)
}

// Mine lists the assignments evaluated by the given user.
func (s *Service) Mine(ctx context.Context, orgID, userID, cycleStatus string) ([]Assignment, error) {
	return s.store.AssignmentsForManager(ctx, orgID, userID, cycleStatus)
}

// SendReminders notifies line managers whose active cycles end within
// window of now and who still have unscored team members.
func (s *Service) SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	targets, err := s.store.ReminderTargets(ctx, now, now.Add(window))
	if err != nil {
		return 0, err
	}
	for _, t := range targets {
		s.send(ctx, t.OrgID, t.UserID, notifications.TypeEvaluationReminder,
			"Evaluations pending",
			fmt.Sprintf("%d evaluation(s) in %s are still open. The cycle ends on %s.", t.Pending, t.CycleName, t.EndDate.Format("2006-01-02")))
	}
	return len(targets), nil
}

func (s *Service) draft(ctx context.Context, orgID, cycleID string) (Cycle, error) {
	c, err := s.store.GetCycle(ctx, orgID, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	if !c.IsDraft() {
		return Cycle{}, ErrCycleLocked
	}
	return c, nil
}

func (s *Service) send(ctx context.Context, orgID, userID, ntype, title, body string) {
	if s.notify == nil || userID == "" {
		return
	}
	if err := s.notify.Create(ctx, orgID, userID, ntype, title, body); err != nil {
		slog.Warn("cycle notification failed", "type", ntype, "userId", userID, "err", err)
	}
}

func checkDates(input CycleInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrNameRequired
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() || input.EndDate.Before(input.StartDate) {
		return ErrInvalidDates
	}
	return nil
}
