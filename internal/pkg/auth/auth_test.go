package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository/memory"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

func newUser(t *testing.T, users *memory.Users, email, role string) *models.User {
	t.Helper()
	u, err := models.CreateUser("Test User", email, "secret123", role)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestSignIn(t *testing.T) {
	users := &memory.Users{}
	registry := &memory.AdminRegistry{}
	a := NewAuthenticator(users, registry)
	ctx := context.Background()

	roleAdmin := newUser(t, users, "role@example.com", models.ROLE_ADMIN)
	listed := newUser(t, users, "listed@example.com", models.ROLE_USER)
	newUser(t, users, "plain@example.com", models.ROLE_USER)
	require.NoError(t, registry.Register(ctx, listed.ID, "seed"))

	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
		wantID  uint
	}{
		{"role field", Credentials{"role@example.com", "secret123"}, nil, roleAdmin.ID},
		{"admin registry", Credentials{" listed@example.com ", "secret123"}, nil, listed.ID},
		{"not an admin", Credentials{"plain@example.com", "secret123"}, apperrors.ErrUnauthorized, 0},
		{"wrong password", Credentials{"role@example.com", "nope"}, apperrors.ErrInvalidCredentials, 0},
		{"unknown email", Credentials{"ghost@example.com", "secret123"}, apperrors.ErrInvalidCredentials, 0},
		{"malformed email", Credentials{"not-an-email", "secret123"}, apperrors.ErrInvalidCredentials, 0},
		{"empty password", Credentials{"role@example.com", ""}, apperrors.ErrInvalidCredentials, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := a.SignIn(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id.UserID)
			assert.True(t, id.IsAdmin)
		})
	}

	u, err := users.GetByID(ctx, roleAdmin.ID)
	require.NoError(t, err)
	assert.NotNil(t, u.LastLoginAt)
}

func TestSignInDisabledAccount(t *testing.T) {
	users := &memory.Users{}
	a := NewAuthenticator(users, &memory.AdminRegistry{})
	u, err := models.CreateUser("Old Admin", "old@example.com", "secret123", models.ROLE_ADMIN)
	require.NoError(t, err)
	u.Status = models.STATUS_DISABLED
	require.NoError(t, users.Create(context.Background(), u))

	_, err = a.SignIn(context.Background(), Credentials{"old@example.com", "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestIsAdmin(t *testing.T) {
	users := &memory.Users{}
	registry := &memory.AdminRegistry{}
	a := NewAuthenticator(users, registry)
	ctx := context.Background()

	admin := newUser(t, users, "a@example.com", models.ROLE_ADMIN)
	plain := newUser(t, users, "b@example.com", models.ROLE_USER)

	ok, err := a.IsAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.IsAdmin(ctx, plain.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, registry.Register(ctx, plain.ID, "a@example.com"))
	ok, err = a.IsAdmin(ctx, plain.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.IsAdmin(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)

	registry.Err = errors.New("db gone")
	other := newUser(t, users, "c@example.com", models.ROLE_USER)
	_, err = a.IsAdmin(ctx, other.ID)
	assert.Error(t, err)
}

func TestBootstrap(t *testing.T) {
	users := &memory.Users{}
	registry := &memory.AdminRegistry{}
	a := NewAuthenticator(users, registry)
	ctx := context.Background()

	created, err := a.Bootstrap(ctx, "First Admin", "first@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, created.HasAdminRole())

	again, err := a.Bootstrap(ctx, "First Admin", "first@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	existing := newUser(t, users, "late@example.com", models.ROLE_USER)
	_, err = a.Bootstrap(ctx, "Late", "late@example.com", "secret123")
	require.NoError(t, err)
	ok, err := registry.IsRegistered(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = a.Bootstrap(ctx, "X", "bad-email", "123")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
