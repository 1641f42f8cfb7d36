package cycle

const (
	StatusDraft  = "draft"
	StatusActive = "active"
)
