package cycle

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNameRequired        = errors.New("cycle name is required")
	ErrCycleLocked         = errors.New("cycle is not a draft")
	ErrInvalidDates        = errors.New("end date must be on or after start date")
	ErrNoAssignments       = errors.New("cycle has no assignments")
	ErrTeamAlreadyAssigned = errors.New("team is already assigned in this cycle")
	ErrUnknownTeam         = errors.New("team does not exist")
	ErrUnknownMatrix       = errors.New("matrix does not exist")
	ErrMatrixNotActive     = errors.New("matrix is not active")
	ErrNotLineManager      = errors.New("employee cannot act as line manager")
)
