package auth

import "slices"

const (
	RoleSuperAdmin  = "super_admin"
	RoleOrgAdmin    = "org_admin"
	RoleLineManager = "line_manager"
	RoleEmployee    = "employee"
)

const (
	PermOrgManage        = "org.manage"
	PermOrgRead          = "org.read"
	PermOrgWrite         = "org.write"
	PermEmployeesRead    = "employees.read"
	PermEmployeesWrite   = "employees.write"
	PermParametersRead   = "parameters.read"
	PermParametersWrite  = "parameters.write"
	PermMatricesRead     = "matrices.read"
	PermMatricesWrite    = "matrices.write"
	PermCyclesRead       = "cycles.read"
	PermCyclesWrite      = "cycles.write"
	PermEvaluationsRead  = "evaluations.read"
	PermEvaluationsWrite = "evaluations.write"
	PermAuditRead        = "audit.read"
)

var DefaultPermissions = []string{
	PermOrgManage,
	PermOrgRead,
	PermOrgWrite,
	PermEmployeesRead,
	PermEmployeesWrite,
	PermParametersRead,
	PermParametersWrite,
	PermMatricesRead,
	PermMatricesWrite,
	PermCyclesRead,
	PermCyclesWrite,
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermAuditRead,
}

// RolePermissions is provisioned for every organization on creation.
var RolePermissions = map[string][]string{
	RoleSuperAdmin: {
		PermOrgManage,
		PermOrgRead,
	},
	RoleOrgAdmin: {
		PermOrgRead,
		PermOrgWrite,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermParametersRead,
		PermParametersWrite,
		PermMatricesRead,
		PermMatricesWrite,
		PermCyclesRead,
		PermCyclesWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermAuditRead,
	},
	RoleLineManager: {
		PermOrgRead,
		PermEmployeesRead,
		PermParametersRead,
		PermMatricesRead,
		PermCyclesRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
	},
	RoleEmployee: {
		PermOrgRead,
		PermParametersRead,
		PermMatricesRead,
		PermCyclesRead,
	},
}

// AssignableRoles are the roles an org admin may give to employee logins.
var AssignableRoles = []string{RoleOrgAdmin, RoleLineManager, RoleEmployee}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func AssignableRole(role string) bool {
	return slices.Contains(AssignableRoles, role)
}
