package matrix

import "time"

type Parameter struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ParameterInput struct {
	Name        string
	Description string
	Category    string
}

type ParameterFilter struct {
	Query    string
	Category string
	Status   string
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type MatrixParameter struct {
	ParameterID string `json:"parameterId"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Weightage   int    `json:"weightage"`
	Position    int    `json:"position"`
}

type Matrix struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Status         string            `json:"status"`
	TotalWeightage int               `json:"totalWeightage"`
	Parameters     []MatrixParameter `json:"parameters"`
	ActivatedAt    *time.Time        `json:"activatedAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// MatrixInput is the full editable state of a matrix. Weights keep the
// caller's order, which becomes the parameter position.
type MatrixInput struct {
	Name        string
	Description string
	Weights     []Weight
}

func (m Matrix) Weights() []Weight {
	out := make([]Weight, len(m.Parameters))
	for i, p := range m.Parameters {
		out[i] = Weight{ParameterID: p.ParameterID, Weightage: p.Weightage}
	}
	return out
}

func (m Matrix) IsActive() bool {
	return m.Status == StatusActive
}
