package matrix

import "context"

type StoreAPI interface {
	ListParameters(ctx context.Context, orgID string) ([]Parameter, error)
	GetParameter(ctx context.Context, orgID, parameterID string) (Parameter, error)
	CreateParameter(ctx context.Context, orgID string, input ParameterInput) (string, error)
	UpdateParameter(ctx context.Context, orgID, parameterID string, input ParameterInput) error
	SetParameterStatus(ctx context.Context, orgID, parameterID, status string) error
	DeleteParameter(ctx context.Context, orgID, parameterID string) error
	ParameterReferenced(ctx context.Context, orgID, parameterID string) (bool, error)

	ListMatrices(ctx context.Context, orgID, status string) ([]Matrix, error)
	GetMatrix(ctx context.Context, orgID, matrixID string) (Matrix, error)
	CreateMatrix(ctx context.Context, orgID string, input MatrixInput) (string, error)
	// SaveMatrix writes only a matrix still in draft and returns
	// ErrMatrixLocked otherwise.
	SaveMatrix(ctx context.Context, orgID, matrixID, status string, input MatrixInput) error
	DeleteMatrix(ctx context.Context, orgID, matrixID string) error
	MatrixInActiveCycle(ctx context.Context, orgID, matrixID string) (bool, error)
	MatrixAssigned(ctx context.Context, orgID, matrixID string) (bool, error)
}
