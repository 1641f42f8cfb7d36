package core

import "time"

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

type Department struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	EmployeeCount int       `json:"employeeCount"`
	TeamCount     int       `json:"teamCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Employee struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	RoleName       string     `json:"role,omitempty"`
	EmployeeNumber string     `json:"employeeNumber"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Designation    string     `json:"designation"`
	DepartmentID   string     `json:"departmentId"`
	DepartmentName string     `json:"departmentName"`
	JoinedOn       *time.Time `json:"joinedOn,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type EmployeeFilter struct {
	DepartmentID string
	Status       string
	Query        string
}

// Login asks for a user account to be created alongside an employee.
type Login struct {
	Password string
	Role     string
}

type Team struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	DepartmentID   string       `json:"departmentId"`
	DepartmentName string       `json:"departmentName"`
	MemberCount    int          `json:"memberCount"`
	Members        []TeamMember `json:"members,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

type TeamMember struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}
