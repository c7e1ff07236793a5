package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryUserRepo struct {
	users map[string]*User
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (r *memoryUserRepo) TouchLastLogin(ctx context.Context, id int64) error { return nil }

func newTestService(t *testing.T) (*Service, *User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("mill-pass-123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{
		ID:           4,
		CompanyID:    2,
		Email:        "dyehouse@mill.example",
		Name:         "Dyehouse Lead",
		PasswordHash: string(hash),
		Role:         RoleManager,
		IsActive:     true,
	}
	repo := &memoryUserRepo{users: map[string]*User{user.Email: user}}
	return NewService(repo, "test-secret", time.Hour), user
}

func TestAuthenticateIssuesVerifiableToken(t *testing.T) {
	svc, user := newTestService(t)

	token, got, err := svc.Authenticate(context.Background(), user.Email, "mill-pass-123")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	identity, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, user.CompanyID, identity.CompanyID)
	require.Equal(t, RoleManager, identity.Role)
}

func TestAuthenticateRejectsBadPassword(t *testing.T) {
	svc, user := newTestService(t)

	_, _, err := svc.Authenticate(context.Background(), user.Email, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveAccount(t *testing.T) {
	svc, user := newTestService(t)
	user.IsActive = false

	_, _, err := svc.Authenticate(context.Background(), user.Email, "mill-pass-123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsForeignSecret(t *testing.T) {
	svc, user := newTestService(t)
	other := NewService(&memoryUserRepo{users: map[string]*User{user.Email: user}}, "other-secret", time.Hour)

	token, _, err := other.Authenticate(context.Background(), user.Email, "mill-pass-123")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
