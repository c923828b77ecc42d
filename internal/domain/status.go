package domain

import "fmt"

// MemberStatus classifies member engagement.
type MemberStatus string

const (
	StatusNew    MemberStatus = "new"
	StatusActive MemberStatus = "active"
	StatusRisk   MemberStatus = "risk"
)

// ParseMemberStatus validates s as a MemberStatus.
func ParseMemberStatus(s string) (MemberStatus, error) {
	switch st := MemberStatus(s); st {
	case StatusNew, StatusActive, StatusRisk:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
}
