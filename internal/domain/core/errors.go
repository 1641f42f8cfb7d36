package core

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("already exists")
	ErrDepartmentInUse   = errors.New("department still has employees or teams")
	ErrTeamInUse         = errors.New("team is assigned in a cycle")
	ErrUnknownEmployee   = errors.New("employee does not belong to the organization")
	ErrUnknownDepartment = errors.New("department does not exist")
	ErrInvalidRole       = errors.New("role cannot be assigned")
)
