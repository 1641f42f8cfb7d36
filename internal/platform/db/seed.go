package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/config"
	"appraisal/internal/platform/querier"
)

// Seed makes sure the permission catalog, the seed organization with its
// roles, the org admin and the optional super admin exist. It is safe to
// run on every start.
func Seed(ctx context.Context, q querier.Querier, cfg config.Config) error {
	return querier.InTx(ctx, q, func(tx pgx.Tx) error {
		orgID, err := ensureOrg(ctx, tx, cfg.SeedOrgName)
		if err != nil {
			return err
		}
		if err := auth.EnsurePermissions(ctx, tx); err != nil {
			return err
		}
		roleIDs, err := auth.EnsureRoles(ctx, tx, orgID)
		if err != nil {
			return err
		}
		if err := ensureUser(ctx, tx, orgID, roleIDs[auth.RoleOrgAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
		return ensureUser(ctx, tx, orgID, roleIDs[auth.RoleSuperAdmin], cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword)
	})
}

func ensureOrg(ctx context.Context, q querier.Querier, name string) (string, error) {
	var id string
	err := q.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = q.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func ensureUser(ctx context.Context, q querier.Querier, orgID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))", strings.TrimSpace(email)).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := auth.CreateUser(ctx, q, orgID, roleID, email, password); err != nil {
		return err
	}
	slog.Info("seeded user", "email", email)
	return nil
}
