package evaluation

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrCycleNotActive   = errors.New("cycle is not active")
	ErrNotEvaluator     = errors.New("only the assigned line manager may evaluate this team")
	ErrNotTeamMember    = errors.New("employee is not a member of the assigned team")
	ErrScoreOutOfRange  = errors.New("score must be between 1 and 5")
	ErrUnknownParameter = errors.New("parameter is not part of the matrix")
	ErrDuplicateScore   = errors.New("parameter is scored more than once")
	ErrIncompleteScores = errors.New("every matrix parameter must be scored")
)
