package notifications

const (
	TypeAssignmentCreated   = "assignment_created"
	TypeCycleActivated      = "cycle_activated"
	TypeEvaluationReminder  = "evaluation_reminder"
	TypeEvaluationSubmitted = "evaluation_submitted"
)
