package cycle

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListCycles(ctx context.Context, orgID, status string) ([]Cycle, error)
	GetCycle(ctx context.Context, orgID, cycleID string) (Cycle, error)
	CreateCycle(ctx context.Context, orgID string, input CycleInput) (string, error)
	UpdateCycle(ctx context.Context, orgID, cycleID string, input CycleInput) error
	DeleteCycle(ctx context.Context, orgID, cycleID string) error
	MarkCycleActive(ctx context.Context, orgID, cycleID string) error
	InactiveMatrixCount(ctx context.Context, orgID, cycleID string) (int, error)

	ListAssignments(ctx context.Context, orgID, cycleID string) ([]Assignment, error)
	GetAssignment(ctx context.Context, orgID, assignmentID string) (Assignment, error)
	CreateAssignment(ctx context.Context, orgID, cycleID string, input AssignmentInput) (string, error)
	DeleteAssignment(ctx context.Context, orgID, cycleID, assignmentID string) error
	TeamAssigned(ctx context.Context, orgID, cycleID, teamID string) (bool, error)
	TeamExists(ctx context.Context, orgID, teamID string) (bool, error)
	MatrixStatus(ctx context.Context, orgID, matrixID string) (string, error)
	ManagerAccount(ctx context.Context, orgID, employeeID string) (ManagerAccount, error)
	AssignmentsForManager(ctx context.Context, orgID, userID, cycleStatus string) ([]Assignment, error)

	ReminderTargets(ctx context.Context, from, until time.Time) ([]ReminderTarget, error)
}
