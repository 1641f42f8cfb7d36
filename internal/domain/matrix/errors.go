package matrix

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrMatrixLocked         = errors.New("matrix is locked")
	ErrMatrixInUse          = errors.New("matrix is assigned to a cycle")
	ErrParameterInUse       = errors.New("parameter is used by a matrix")
	ErrUnknownParameter     = errors.New("parameter does not exist")
	ErrInactiveParameter    = errors.New("parameter is archived")
	ErrParameterNotInMatrix = errors.New("parameter is not part of the matrix")
	ErrDuplicateName        = errors.New("a parameter with this name already exists")
	ErrInvalidStatus        = errors.New("unknown parameter status")
	ErrNameRequired         = errors.New("name is required")
)
