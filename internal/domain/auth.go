// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// MemberID is the opaque, stable identifier of a member.
type MemberID string

// Role is the authorization role of a member.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a stored role to a Role. Unknown values read as RoleMember.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// Member represents an authenticated gym member or administrator.
type Member struct {
	ID           MemberID  `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	DisplayName  string    `json:"displayName" db:"display_name"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Name returns the display name, or the username when no display name is set.
func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Username
}

// Caller identifies who is making a core call. It is passed explicitly to
// every service method instead of living in ambient session state.
type Caller struct {
	MemberID MemberID
	Role     Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanRead reports whether the caller may read the given member's rows.
func (c Caller) CanRead(id MemberID) bool { return c.MemberID == id || c.IsAdmin() }

// Session represents an active member session.
type Session struct {
	Token     string    `json:"token" db:"token"`
	MemberID  MemberID  `json:"memberId" db:"member_id"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	IP        string    `json:"ip" db:"ip"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MemberRepository defines the port for member persistence operations.
// Lookups return ErrNotFound when no member matches.
type MemberRepository interface {
	GetByUsername(ctx context.Context, username string) (*Member, error)
	GetByID(ctx context.Context, id MemberID) (*Member, error)
	Create(ctx context.Context, username, passwordHash string, role Role) (*Member, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]Member, error)
	UpdateDisplayName(ctx context.Context, id MemberID, name string) error
}

// SessionRepository defines the port for session persistence operations.
// GetByToken returns ErrNotFound for unknown tokens. Expired sessions are
// returned until DeleteExpired removes them; callers check ExpiresAt.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
