package cycle

import "time"

type Cycle struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	StartDate       time.Time    `json:"startDate"`
	EndDate         time.Time    `json:"endDate"`
	Status          string       `json:"status"`
	AssignmentCount int          `json:"assignmentCount"`
	Assignments     []Assignment `json:"assignments,omitempty"`
	ActivatedAt     *time.Time   `json:"activatedAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

func (c Cycle) IsDraft() bool {
	return c.Status == StatusDraft
}

type CycleInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// Assignment binds one team, one matrix and one evaluating line manager
// for a cycle.
type Assignment struct {
	ID                string    `json:"id"`
	CycleID           string    `json:"cycleId"`
	CycleName         string    `json:"cycleName,omitempty"`
	CycleStatus       string    `json:"cycleStatus,omitempty"`
	TeamID            string    `json:"teamId"`
	TeamName          string    `json:"teamName"`
	MatrixID          string    `json:"matrixId"`
	MatrixName        string    `json:"matrixName"`
	LineManagerID     string    `json:"lineManagerId"`
	LineManagerName   string    `json:"lineManagerName"`
	LineManagerUserID string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

type AssignmentInput struct {
	TeamID        string
	MatrixID      string
	LineManagerID string
}

// ManagerAccount is the login behind an employee who may evaluate a team.
type ManagerAccount struct {
	UserID   string
	RoleName string
}

// ReminderTarget is one line manager with unscored team members in an
// active cycle.
type ReminderTarget struct {
	OrgID     string
	CycleID   string
	CycleName string
	EndDate   time.Time
	UserID    string
	Pending   int
}
