package auth

import (
	"context"
	"time"

	"appraisal/internal/platform/querier"
)

const UserStatusActive = "active"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type User struct {
	ID           string
	OrgID        string
	RoleID       string
	RoleName     string
	Email        string
	PasswordHash string
}

type Profile struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	OrgID        string `json:"orgId"`
	OrgName      string `json:"orgName"`
	EmployeeID   string `json:"employeeId,omitempty"`
	EmployeeName string `json:"employeeName,omitempty"`
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.org_id, u.role_id, r.name, u.email, u.password_hash
    FROM users u
    JOIN roles r ON u.role_id = r.id
    JOIN organizations o ON u.org_id = o.id
    WHERE lower(u.email) = lower($1) AND u.status = $2 AND o.status = 'active'
  `, email, UserStatusActive).Scan(&out.ID, &out.OrgID, &out.RoleID, &out.RoleName, &out.Email, &out.PasswordHash)
	return out, err
}

func (s *Store) CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, sessionHash, expires)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, sessionHash string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND token_hash = $2 AND expires_at > now() AND revoked_at IS NULL
  `, userID, sessionHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET token_hash = $1, expires_at = $2, rotated_at = now()
    WHERE user_id = $3 AND token_hash = $4 AND revoked_at IS NULL
  `, newHash, expires, userID, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionExpired
	}
	return nil
}

func (s *Store) RevokeSession(ctx context.Context, userID, sessionHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND token_hash = $2", userID, sessionHash)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Profile(ctx context.Context, orgID, userID string) (Profile, error) {
	var out Profile
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, r.name, o.id, o.name,
           COALESCE(e.id::text, ''),
           COALESCE(e.first_name || ' ' || e.last_name, '')
    FROM users u
    JOIN roles r ON u.role_id = r.id
    JOIN organizations o ON u.org_id = o.id
    LEFT JOIN employees e ON e.user_id = u.id
    WHERE u.org_id = $1 AND u.id = $2
  `, orgID, userID).Scan(&out.UserID, &out.Email, &out.Role, &out.OrgID, &out.OrgName, &out.EmployeeID, &out.EmployeeName)
	return out, err
}
