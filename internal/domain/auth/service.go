package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnauthenticated    = errors.New("authentication required")
)

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	CreateSession(ctx context.Context, userID, sessionHash string, expires time.Time) error
	SessionValid(ctx context.Context, userID, sessionHash string) (bool, error)
	RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error
	RevokeSession(ctx context.Context, userID, sessionHash string) error
	UpdateLastLogin(ctx context.Context, userID string) error
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
	Profile(ctx context.Context, orgID, userID string) (Profile, error)
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Session   Session   `json:"user"`
}

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
}

func NewService(store StoreAPI, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{store: store, secret: secret, ttl: ttl}
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	session := Session{UserID: user.ID, OrgID: user.OrgID, RoleID: user.RoleID, RoleName: user.RoleName}
	result, err := s.issue(ctx, session, "")
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return result, nil
}

// Authenticate resolves a bearer token into a live Session. Tokens whose
// session row was revoked or expired are rejected even if the JWT is valid.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	ok, err := s.store.SessionValid(ctx, claims.UserID, HashToken(claims.SessionID))
	if err != nil {
		return Session{}, fmt.Errorf("session lookup: %w", err)
	}
	if !ok {
		return Session{}, ErrSessionExpired
	}
	return Session{
		UserID:    claims.UserID,
		OrgID:     claims.OrgID,
		RoleID:    claims.RoleID,
		RoleName:  claims.RoleName,
		SessionID: claims.SessionID,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, session Session) (LoginResult, error) {
	if session.SessionID == "" {
		return LoginResult{}, ErrUnauthenticated
	}
	return s.issue(ctx, session, session.SessionID)
}

// Logout is the single invalidation point for a session.
func (s *Service) Logout(ctx context.Context, session Session) error {
	if session.SessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, session.UserID, HashToken(session.SessionID))
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}

func (s *Service) Profile(ctx context.Context, session Session) (Profile, error) {
	return s.store.Profile(ctx, session.OrgID, session.UserID)
}

func (s *Service) issue(ctx context.Context, session Session, previousSessionID string) (LoginResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return LoginResult{}, err
	}
	expires := time.Now().Add(s.ttl)
	if previousSessionID == "" {
		err = s.store.CreateSession(ctx, session.UserID, HashToken(sessionID), expires)
	} else {
		err = s.store.RotateSession(ctx, session.UserID, HashToken(previousSessionID), HashToken(sessionID), expires)
	}
	if err != nil {
		return LoginResult{}, err
	}

	session.SessionID = sessionID
	token, err := GenerateToken(s.secret, Claims{
		UserID:    session.UserID,
		OrgID:     session.OrgID,
		RoleID:    session.RoleID,
		RoleName:  session.RoleName,
		SessionID: sessionID,
	}, s.ttl)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expires, Session: session}, nil
}
