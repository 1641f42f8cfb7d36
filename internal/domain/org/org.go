package org

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/querier"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	ErrNotFound      = errors.New("organization not found")
	ErrDuplicateName = errors.New("organization name already exists")
	ErrDuplicateUser = errors.New("admin email already in use")
	ErrInvalidStatus = errors.New("unknown organization status")
	ErrNameRequired  = errors.New("organization name is required")
)

type Organization struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	EmployeeCount int       `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type CreateInput struct {
	Name          string
	AdminEmail    string
	AdminPassword string
}

type StoreAPI interface {
	List(ctx context.Context) ([]Organization, error)
	Get(ctx context.Context, orgID string) (Organization, error)
	Create(ctx context.Context, input CreateInput) (string, string, error)
	Update(ctx context.Context, orgID, name, status string) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const orgColumns = `
    o.id, o.name, o.status, o.created_at,
    (SELECT COUNT(1) FROM employees e WHERE e.org_id = o.id AND e.status = 'active')
  `

func (s *Store) List(ctx context.Context) ([]Organization, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+orgColumns+" FROM organizations o ORDER BY o.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt, &o.EmployeeCount); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, orgID string) (Organization, error) {
	var o Organization
	err := s.DB.QueryRow(ctx, "SELECT "+orgColumns+" FROM organizations o WHERE o.id = $1", orgID).
		Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt, &o.EmployeeCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, ErrNotFound
	}
	return o, err
}

// Create inserts the organization, its roles and its first org admin in one
// transaction and returns the organization and admin user ids.
func (s *Store) Create(ctx context.Context, input CreateInput) (string, string, error) {
	var orgID, adminID string
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO organizations (name, status) VALUES ($1, $2) RETURNING id
    `, strings.TrimSpace(input.Name), StatusActive).Scan(&orgID); err != nil {
			if isUnique(err) {
				return ErrDuplicateName
			}
			return err
		}
		roles, err := auth.EnsureRoles(ctx, tx, orgID)
		if err != nil {
			return err
		}
		adminID, err = auth.CreateUser(ctx, tx, orgID, roles[auth.RoleOrgAdmin], input.AdminEmail, input.AdminPassword)
		if isUnique(err) {
			return ErrDuplicateUser
		}
		return err
	})
	return orgID, adminID, err
}

func (s *Store) Update(ctx context.Context, orgID, name, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE organizations SET name = $1, status = $2, updated_at = now() WHERE id = $3
  `, strings.TrimSpace(name), status, orgID)
	if isUnique(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]Organization, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, orgID string) (Organization, error) {
	return s.store.Get(ctx, orgID)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Organization, string, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Organization{}, "", ErrNameRequired
	}
	orgID, adminID, err := s.store.Create(ctx, input)
	if err != nil {
		return Organization{}, "", err
	}
	o, err := s.store.Get(ctx, orgID)
	return o, adminID, err
}

// Update renames an organization or changes its status. Empty fields keep
// their current value.
func (s *Service) Update(ctx context.Context, orgID, name, status string) (Organization, error) {
	current, err := s.store.Get(ctx, orgID)
	if err != nil {
		return Organization{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = current.Name
	}
	if status == "" {
		status = current.Status
	}
	if status != StatusActive && status != StatusInactive {
		return Organization{}, ErrInvalidStatus
	}
	if err := s.store.Update(ctx, orgID, name, status); err != nil {
		return Organization{}, err
	}
	return s.store.Get(ctx, orgID)
}
