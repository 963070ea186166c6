// Package auth signs admins in against the account store and decides who
// counts as an admin.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

// UnauthorizedMessage is shown to signed-in users without admin access.
const UnauthorizedMessage = "Unauthorized access. Admin role required."

// Credentials is the login form.
type Credentials struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Identity is the signed-in admin.
type Identity struct {
	UserID  uint
	Name    string
	Email   string
	IsAdmin bool
}

// Actor converts the identity to the form recorded on mutations.
func (i Identity) Actor() models.Actor {
	return models.Actor{ID: fmt.Sprintf("%d", i.UserID), Email: i.Email}
}

// Authenticator checks credentials and admin membership.
type Authenticator struct {
	users    repository.UserRepository
	registry repository.AdminRegistryRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthenticator(users repository.UserRepository, registry repository.AdminRegistryRepository) *Authenticator {
	return &Authenticator{
		users:    users,
		registry: registry,
		validate: validator.New(),
		now:      time.Now,
	}
}

// SignIn verifies the credentials and the admin check. Unknown emails and
// wrong passwords both yield apperrors.ErrInvalidCredentials; valid users
// without admin access yield apperrors.ErrUnauthorized.
func (a *Authenticator) SignIn(ctx context.Context, creds Credentials) (*Identity, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := a.validate.Struct(creds); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := a.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(creds.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, apperrors.ErrUnauthorized
	}

	admin, err := a.isAdmin(ctx, user)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.ErrUnauthorized
	}

	if err := a.users.TouchLastLogin(ctx, user.ID, a.now()); err != nil {
		return nil, err
	}

	return &Identity{UserID: user.ID, Name: user.Name, Email: user.Email, IsAdmin: true}, nil
}

// IsAdmin reports whether the user has the admin role or is listed in the
// admin registry. Either one grants access. Unknown users are not admins.
func (a *Authenticator) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !user.IsActive() {
		return false, nil
	}
	return a.isAdmin(ctx, user)
}

func (a *Authenticator) isAdmin(ctx context.Context, user *models.User) (bool, error) {
	if user.HasAdminRole() {
		return true, nil
	}
	return a.registry.IsRegistered(ctx, user.ID)
}

// Bootstrap makes sure an admin account with email exists. An existing
// account is added to the admin registry; a missing one is created with the
// admin role.
func (a *Authenticator) Bootstrap(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		registered, err := a.isAdmin(ctx, user)
		if err != nil {
			return nil, err
		}
		if !registered {
			if err := a.registry.Register(ctx, user.ID, "bootstrap"); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user, err = models.CreateUser(name, email, password, models.ROLE_ADMIN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
