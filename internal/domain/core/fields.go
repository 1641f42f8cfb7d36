package core

import "appraisal/internal/domain/auth"

// RedactEmployee hides contact and account details from viewers who are
// neither admins nor the employee.
func RedactEmployee(emp *Employee, viewer auth.Session) {
	if viewer.IsAdmin() {
		return
	}
	if emp.UserID != "" && emp.UserID == viewer.UserID {
		return
	}
	emp.Phone = ""
	emp.UserID = ""
	emp.RoleName = ""
	if !viewer.HasRole(auth.RoleLineManager) {
		emp.Email = ""
	}
}
