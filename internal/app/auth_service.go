// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gymos/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the member does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// AuthService handles authentication, sessions and role lookup.
type AuthService struct {
	members  domain.MemberRepository
	sessions domain.SessionRepository
	hub      *SessionHub
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService creates a new authentication service. Session changes are
// published on hub, which may be nil.
func NewAuthService(members domain.MemberRepository, sessions domain.SessionRepository, hub *SessionHub, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		members:  members,
		sessions: sessions,
		hub:      hub,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SessionTTL is the lifetime of new sessions.
func (s *AuthService) SessionTTL() time.Duration { return s.ttl }

// Login authenticates a member and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	m, err := s.members.GetByUsername(ctx, username)
	if err != nil || m == nil || m.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.startSession(ctx, m.ID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, lookupErr := s.sessions.GetByToken(ctx, token)
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	if lookupErr == nil && session != nil {
		s.publish(SessionSignedOut, session.MemberID)
	}
	return nil
}

// ValidateSession checks that a session token is valid and matches the user
// agent, and returns the caller it identifies.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (domain.Caller, *domain.Member, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return domain.Caller{}, nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) || session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		s.publish(SessionExpired, session.MemberID)
		return domain.Caller{}, nil, ErrSessionExpired
	}

	m, err := s.members.GetByID(ctx, session.MemberID)
	if err != nil || m == nil {
		return domain.Caller{}, nil, ErrUserNotFound
	}

	return domain.Caller{MemberID: m.ID, Role: m.Role}, m, nil
}

// CreateInitialUser creates the first member, as admin, if no members exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	if username == "" || len(password) < 8 {
		return fmt.Errorf("%w: username required and password must be at least 8 characters", domain.ErrInvalidInput)
	}
	count, err := s.members.Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return fmt.Errorf("%w: users already exist", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.members.Create(ctx, username, string(hash), domain.RoleAdmin)
	return err
}

// ValidateForwardAuth identifies the member named by an auth proxy's
// Remote-User header, provisioning it on first sight.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (domain.Caller, *domain.Member, error) {
	if remoteUser == "" {
		return domain.Caller{}, nil, errors.New("no remote user header")
	}
	m, err := s.provision(ctx, remoteUser)
	if err != nil {
		return domain.Caller{}, nil, err
	}
	return domain.Caller{MemberID: m.ID, Role: m.Role}, m, nil
}

// LoginWithUser creates a session for a member already authenticated by SSO.
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent, ip string) (string, error) {
	m, err := s.provision(ctx, username)
	if err != nil {
		return "", err
	}
	return s.startSession(ctx, m.ID, userAgent, ip)
}

// RoleOf returns the role of a member.
func (s *AuthService) RoleOf(ctx context.Context, id domain.MemberID) (domain.Role, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil || m == nil {
		return domain.RoleMember, ErrUserNotFound
	}
	return m.Role, nil
}

// provision returns the member with username, creating an SSO member with no
// password if it does not exist yet.
func (s *AuthService) provision(ctx context.Context, username string) (*domain.Member, error) {
	m, err := s.members.GetByUsername(ctx, username)
	if err == nil && m != nil {
		return m, nil
	}
	m, err = s.members.Create(ctx, username, "", domain.RoleMember)
	if err != nil {
		// Lost a creation race; the other request's row is fine.
		return s.members.GetByUsername(ctx, username)
	}
	return m, nil
}

func (s *AuthService) startSession(ctx context.Context, id domain.MemberID, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	err = s.sessions.Create(ctx, domain.Session{
		Token:     token,
		MemberID:  id,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}

	s.publish(SessionSignedIn, id)
	return token, nil
}

func (s *AuthService) publish(kind SessionEventKind, id domain.MemberID) {
	s.hub.Publish(SessionEvent{Kind: kind, MemberID: id, At: s.now()})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
