package auth

import (
	"errors"
	"time"
)

// User represents an authenticated user account scoped to one company.
type User struct {
	ID           int64
	CompanyID    int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Roles recognised by the authorization middleware.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
	RoleGate     = "gate"
)

// ErrInvalidCredentials indicates login failure. The same error is returned
// for unknown email, bad password and disabled accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")
