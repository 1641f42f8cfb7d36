package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type Parameter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
}

type Weight struct {
	ParameterID string `json:"parameterId"`
	Weightage   int    `json:"weightage"`
}

type MatrixParameter struct {
	ParameterID string `json:"parameterId"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Weightage   int    `json:"weightage"`
}

type Matrix struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Status         string            `json:"status"`
	TotalWeightage int               `json:"totalWeightage"`
	Parameters     []MatrixParameter `json:"parameters"`
}

type MatrixInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Parameters  []Weight `json:"parameters"`
}

type Rescaled struct {
	Parameters     []Weight `json:"parameters"`
	TotalWeightage int      `json:"totalWeightage"`
}

type Cycle struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Status          string    `json:"status"`
	AssignmentCount int       `json:"assignmentCount"`
}

type Assignment struct {
	ID              string `json:"id"`
	CycleID         string `json:"cycleId"`
	CycleName       string `json:"cycleName,omitempty"`
	TeamID          string `json:"teamId"`
	TeamName        string `json:"teamName"`
	MatrixID        string `json:"matrixId"`
	MatrixName      string `json:"matrixName"`
	LineManagerID   string `json:"lineManagerId"`
	LineManagerName string `json:"lineManagerName"`
}

type Score struct {
	ParameterID string `json:"parameterId"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
}

type EvaluationInput struct {
	EmployeeID string  `json:"employeeId"`
	Comment    string  `json:"comment,omitempty"`
	Scores     []Score `json:"scores"`
}

type Evaluation struct {
	ID            string    `json:"id"`
	AssignmentID  string    `json:"assignmentId"`
	EmployeeID    string    `json:"employeeId"`
	EmployeeName  string    `json:"employeeName"`
	WeightedScore float64   `json:"weightedScore"`
	Comment       string    `json:"comment"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

type AuthAPI struct{ c *Client }

// Login exchanges credentials for a token and stores it on the session.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (User, error) {
	var out struct {
		Token string `json:"token"`
		User  struct {
			UserID string `json:"userId"`
			OrgID  string `json:"orgId"`
			Role   string `json:"role"`
		} `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := a.c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return User{}, err
	}
	user := User{UserID: out.User.UserID, OrgID: out.User.OrgID, Role: out.User.Role, Email: email}
	a.c.session.set(out.Token, user)
	return user, nil
}

// Logout revokes the token server side and clears the session either way.
func (a *AuthAPI) Logout(ctx context.Context) error {
	defer a.c.session.Clear()
	if !a.c.session.LoggedIn() {
		return nil
	}
	return a.c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

type ParametersAPI struct{ c *Client }

type ParameterQuery struct {
	Query    string
	Category string
	Status   string
}

func (p *ParametersAPI) List(ctx context.Context, q ParameterQuery) ([]Parameter, error) {
	var out []Parameter
	query := map[string]string{"q": q.Query, "category": q.Category, "status": q.Status}
	err := p.c.do(ctx, http.MethodGet, "/parameters", query, nil, &out)
	return out, err
}

func (p *ParametersAPI) Create(ctx context.Context, name, description, category string) (Parameter, error) {
	var out Parameter
	body := map[string]string{"name": name, "description": description, "category": category}
	err := p.c.do(ctx, http.MethodPost, "/parameters", nil, body, &out)
	return out, err
}

type MatricesAPI struct{ c *Client }

func (m *MatricesAPI) List(ctx context.Context, status string) ([]Matrix, error) {
	var out []Matrix
	err := m.c.do(ctx, http.MethodGet, "/matrices", map[string]string{"status": status}, nil, &out)
	return out, err
}

func (m *MatricesAPI) Get(ctx context.Context, id string) (Matrix, error) {
	var out Matrix
	err := m.c.do(ctx, http.MethodGet, "/matrices/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (m *MatricesAPI) Create(ctx context.Context, input MatrixInput) (Matrix, error) {
	var out Matrix
	err := m.c.do(ctx, http.MethodPost, "/matrices", nil, input, &out)
	return out, err
}

// Activate publishes the stored draft. The server refuses totals other
// than 100.
func (m *MatricesAPI) Activate(ctx context.Context, id string) (Matrix, error) {
	var out Matrix
	err := m.c.do(ctx, http.MethodPost, "/matrices/"+url.PathEscape(id)+"/activate", nil, nil, &out)
	return out, err
}

func (m *MatricesAPI) ChangeWeightage(ctx context.Context, id, parameterID string, weightage int) (Matrix, error) {
	var out Matrix
	path := "/matrices/" + url.PathEscape(id) + "/parameters/" + url.PathEscape(parameterID)
	err := m.c.do(ctx, http.MethodPut, path, nil, map[string]int{"weightage": weightage}, &out)
	return out, err
}

func (m *MatricesAPI) Rescale(ctx context.Context, weights []Weight) (Rescaled, error) {
	var out Rescaled
	err := m.c.do(ctx, http.MethodPost, "/matrices/rescale", nil, map[string]any{"parameters": weights}, &out)
	return out, err
}

type CyclesAPI struct{ c *Client }

func (cy *CyclesAPI) List(ctx context.Context, status string) ([]Cycle, error) {
	var out []Cycle
	err := cy.c.do(ctx, http.MethodGet, "/cycles", map[string]string{"status": status}, nil, &out)
	return out, err
}

func (cy *CyclesAPI) Activate(ctx context.Context, id string) (Cycle, error) {
	var out Cycle
	err := cy.c.do(ctx, http.MethodPost, "/cycles/"+url.PathEscape(id)+"/activate", nil, nil, &out)
	return out, err
}

func (cy *CyclesAPI) Assignments(ctx context.Context, id string) ([]Assignment, error) {
	var out []Assignment
	err := cy.c.do(ctx, http.MethodGet, "/cycles/"+url.PathEscape(id)+"/assignments", nil, nil, &out)
	return out, err
}

type AssignmentsAPI struct{ c *Client }

// Mine lists the assignments the caller evaluates.
func (a *AssignmentsAPI) Mine(ctx context.Context) ([]Assignment, error) {
	var out []Assignment
	err := a.c.do(ctx, http.MethodGet, "/my/assignments", nil, nil, &out)
	return out, err
}

func (a *AssignmentsAPI) Evaluations(ctx context.Context, assignmentID string) ([]Evaluation, error) {
	var out []Evaluation
	err := a.c.do(ctx, http.MethodGet, "/assignments/"+url.PathEscape(assignmentID)+"/evaluations", nil, nil, &out)
	return out, err
}

func (a *AssignmentsAPI) Submit(ctx context.Context, assignmentID string, input EvaluationInput) (Evaluation, error) {
	var out Evaluation
	err := a.c.do(ctx, http.MethodPost, "/assignments/"+url.PathEscape(assignmentID)+"/evaluations", nil, input, &out)
	return out, err
}
