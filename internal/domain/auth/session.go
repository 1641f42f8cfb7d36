package auth

// Session is the authenticated caller of a request. It is resolved once by
// the auth middleware and passed explicitly to the services that need it.
type Session struct {
	UserID    string `json:"userId"`
	OrgID     string `json:"orgId"`
	RoleID    string `json:"roleId"`
	RoleName  string `json:"role"`
	SessionID string `json:"-"`
}

func (s Session) HasRole(roles ...string) bool {
	for _, role := range roles {
		if s.RoleName == role {
			return true
		}
	}
	return false
}

func (s Session) IsAdmin() bool {
	return s.HasRole(RoleOrgAdmin, RoleSuperAdmin)
}
