package core

import (
	"testing"

	"appraisal/internal/domain/auth"
)

func sampleEmployee() *Employee {
	return &Employee{
		UserID:   "u-emp",
		RoleName: auth.RoleEmployee,
		Email:    "dana@example.com",
		Phone:    "+1 555 0100",
	}
}

func TestRedactEmployeeForAdmin(t *testing.T) {
	emp := sampleEmployee()
	RedactEmployee(emp, auth.Session{UserID: "u-admin", RoleName: auth.RoleOrgAdmin})
	if emp.Phone == "" || emp.Email == "" || emp.UserID == "" {
		t.Fatal("admin should see every field")
	}
}

func TestRedactEmployeeForSelf(t *testing.T) {
	emp := sampleEmployee()
	RedactEmployee(emp, auth.Session{UserID: "u-emp", RoleName: auth.RoleEmployee})
	if emp.Phone == "" || emp.Email == "" {
		t.Fatal("employee should see their own fields")
	}
}

func TestRedactEmployeeForLineManager(t *testing.T) {
	emp := sampleEmployee()
	RedactEmployee(emp, auth.Session{UserID: "u-lm", RoleName: auth.RoleLineManager})
	if emp.Phone != "" || emp.UserID != "" || emp.RoleName != "" {
		t.Fatal("line manager should not see account details")
	}
	if emp.Email == "" {
		t.Fatal("line manager keeps the work email")
	}
}

func TestRedactEmployeeForColleague(t *testing.T) {
	emp := sampleEmployee()
	RedactEmployee(emp, auth.Session{UserID: "u-other", RoleName: auth.RoleEmployee})
	if emp.Phone != "" || emp.Email != "" {
		t.Fatal("colleague should not see contact details")
	}
}
