package matrix

const (
	StatusDraft  = "draft"
	StatusActive = "active"

	ParameterStatusActive   = "active"
	ParameterStatusInactive = "inactive"

	// DefaultCategory is reported for parameters saved without a category.
	DefaultCategory = "General"
)
