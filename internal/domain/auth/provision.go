package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"appraisal/internal/platform/querier"
)

// EnsurePermissions inserts the permission catalog; it is idempotent.
func EnsurePermissions(ctx context.Context, q querier.Querier) error {
	for _, perm := range DefaultPermissions {
		if _, err := q.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm); err != nil {
			return err
		}
	}
	return nil
}

// EnsureRoles creates every role for orgID and grants its permissions,
// returning role ids by name.
func EnsureRoles(ctx context.Context, q querier.Querier, orgID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range RolePermissions {
		var id string
		err := q.QueryRow(ctx, `
    INSERT INTO roles (org_id, name) VALUES ($1, $2)
    ON CONFLICT (org_id, name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, orgID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}

	permIDs := map[string]string{}
	rows, err := q.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return nil, err
		}
		permIDs[key] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for roleName, perms := range RolePermissions {
		for _, permKey := range perms {
			permID, ok := permIDs[permKey]
			if !ok {
				return nil, errors.New("permission not found: " + permKey)
			}
			if _, err := q.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleIDs[roleName], permID); err != nil {
				return nil, err
			}
		}
	}
	return roleIDs, nil
}

func RoleID(ctx context.Context, q querier.Querier, orgID, roleName string) (string, error) {
	var id string
	err := q.QueryRow(ctx, "SELECT id FROM roles WHERE org_id = $1 AND name = $2", orgID, roleName).Scan(&id)
	return id, err
}

// CreateUser inserts an active login for orgID.
func CreateUser(ctx context.Context, q querier.Querier, orgID, roleID, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	var id string
	err = q.QueryRow(ctx, `
    INSERT INTO users (org_id, email, password_hash, role_id, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, orgID, email, hash, roleID, UserStatusActive).Scan(&id)
	return id, err
}
