// Package session exposes the persisted auth token and current user. The
// file is written by the login flow elsewhere; this package only reads it.
package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"

	appLog "interviewcal/internal/log"
)

// User is the signed-in account.
type User struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email" json:"email"`
}

type file struct {
	Token string `yaml:"token"`
	User  *User  `yaml:"user"`
}

// Session is safe for concurrent use. Reload re-reads the file.
type Session struct {
	path string

	mu    sync.RWMutex
	token string
	user  *User
}

// Load reads path. A missing file yields an anonymous session.
func Load(path string) (*Session, error) {
	s := &Session{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		appLog.Warn("session file not found, continuing unauthenticated", "path", s.path)
		s.set("", nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse session: %w", err)
	}
	s.set(f.Token, f.User)

	if exp, ok := ExpiresAt(f.Token); ok {
		if exp.Before(time.Now()) {
			appLog.Warn("session token expired", "expired_at", exp.Format(time.RFC3339))
		} else {
			appLog.Info("session loaded", "expires_at", exp.Format(time.RFC3339))
		}
	}
	return nil
}

func (s *Session) set(token string, u *User) {
	s.mu.Lock()
	s.token, s.user = token, u
	s.mu.Unlock()
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user, or nil when signed out.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// ExpiresAt reads the exp claim without verifying the signature. The
// result is informational only.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	tok, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
