package domain

import (
	"fmt"
	"time"
)

type Role int

const (
	RoleCustomer Role = iota + 1
	RoleAdmin
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "customer":
		return RoleCustomer, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Blocked      bool
	CreatedAt    time.Time
}

// A Session is the authenticated caller. It is handed to the services
// explicitly, never looked up from ambient state.
type Session struct {
	Token     string
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type Registration struct {
	Email    string
	Name     string
	Password string
}

type PasswordReset struct {
	Email       string
	OTP         string
	NewPassword string
}
