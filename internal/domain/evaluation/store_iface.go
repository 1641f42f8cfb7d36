package evaluation

import "context"

type StoreAPI interface {
	AssignmentContext(ctx context.Context, orgID, assignmentID string) (AssignmentContext, error)
	MatrixWeights(ctx context.Context, matrixID string) ([]ParameterWeight, error)
	IsTeamMember(ctx context.Context, teamID, employeeID string) (bool, error)
	EmployeeUserID(ctx context.Context, orgID, employeeID string) (string, error)
	ListEvaluations(ctx context.Context, orgID, assignmentID string) ([]Evaluation, error)
	GetEvaluation(ctx context.Context, orgID, assignmentID, employeeID string) (Evaluation, error)
	SaveEvaluation(ctx context.Context, orgID, evaluatorUserID string, input SubmitInput, weighted float64) (string, error)
	SummaryData(ctx context.Context, orgID, cycleID string) (int, int, []float64, error)
}
