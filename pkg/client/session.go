package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type User struct {
	UserID string `yaml:"userId" json:"userId"`
	OrgID  string `yaml:"orgId" json:"orgId"`
	Role   string `yaml:"role" json:"role"`
	Email  string `yaml:"email,omitempty" json:"email,omitempty"`
}

// Session holds the server address and the bearer token of one login.
type Session struct {
	mu sync.RWMutex

	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token,omitempty"`
	User    User   `yaml:"user,omitempty"`

	path string
}

func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Token
}

func (s *Session) LoggedIn() bool {
	return s.AccessToken() != ""
}

func (s *Session) set(token string, user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = token
	s.User = user
}

// Clear drops the token and user. The base URL is kept.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = ""
	s.User = User{}
}

func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "evalctl", "session.yaml"), nil
}

// LoadSession reads a session file. A missing file yields an empty session
// bound to path.
func LoadSession(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

func (s *Session) Save() error {
	if s.path == "" {
		return errors.New("session has no file")
	}
	s.mu.RLock()
	data, err := yaml.Marshal(s)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
