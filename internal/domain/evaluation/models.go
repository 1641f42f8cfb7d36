package evaluation

import "time"

type Score struct {
	ParameterID string `json:"parameterId"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
}

type ScoreLine struct {
	ParameterID   string `json:"parameterId"`
	ParameterName string `json:"parameterName"`
	Weightage     int    `json:"weightage"`
	Score         int    `json:"score"`
	Comment       string `json:"comment,omitempty"`
}

type Evaluation struct {
	ID              string      `json:"id"`
	AssignmentID    string      `json:"assignmentId"`
	EmployeeID      string      `json:"employeeId"`
	EmployeeName    string      `json:"employeeName"`
	EvaluatorUserID string      `json:"evaluatorUserId"`
	WeightedScore   float64     `json:"weightedScore"`
	Comment         string      `json:"comment"`
	Scores          []ScoreLine `json:"scores"`
	SubmittedAt     time.Time   `json:"submittedAt"`
}

type SubmitInput struct {
	AssignmentID string
	EmployeeID   string
	Comment      string
	Scores       []Score
}

// AssignmentContext is what scoring needs to know about an assignment.
type AssignmentContext struct {
	AssignmentID      string
	CycleID           string
	CycleStatus       string
	TeamID            string
	MatrixID          string
	LineManagerUserID string
}

type ParameterWeight struct {
	ParameterID string
	Name        string
	Weightage   int
}

type Summary struct {
	CycleID        string         `json:"cycleId"`
	Assignments    int            `json:"assignments"`
	Employees      int            `json:"employees"`
	Evaluated      int            `json:"evaluated"`
	CompletionRate float64        `json:"completionRate"`
	AverageScore   float64        `json:"averageScore"`
	Distribution   map[string]int `json:"distribution"`
}
