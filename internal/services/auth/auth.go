// Package auth implements the authenticator: credential verification against
// stored bcrypt hashes and issuing of signed identity tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/kidsweekly/content-api/internal/lib/jwt"
	"github.com/kidsweekly/content-api/internal/lib/password"
	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// ErrInvalidCredentials is returned for both an unknown login and a wrong
// password, so callers cannot tell which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository is the credential store contract.
type UserRepository interface {
	// CreateUser saves a new user and returns its ID; duplicate username or
	// e-mail yields repository.ErrUserExists.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByLogin returns a user by username or e-mail match.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// GetUserByID returns a user by its ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService handles registration and login.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Login verifies a username-or-email plus password pair and issues a fresh
// token. Any failure along the way collapses into ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, login, rawPassword string) (string, *models.PublicUser, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, user.Email, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Public(), nil
}

// Me returns the current state of the authenticated user's account. Token
// claims can lag behind the stored row, so the row wins.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// Register creates a new user and issues a token for it. The default role is
// editor; a request for admin is silently downgraded unless the acting
// identity already holds the admin role. A duplicate username or e-mail
// surfaces as repository.ErrUserExists and creates no row.
func (s *AuthService) Register(ctx context.Context, username, email, rawPassword, requestedRole string, actor *models.Identity) (string, *models.PublicUser, error) {
	const op = "services.auth.Register"

	role := models.RoleEditor
	if requestedRole != "" {
		parsed, err := models.ParseRole(requestedRole)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		if parsed == models.RoleAdmin && !actor.IsAdmin() {
			parsed = models.RoleEditor
		}
		role = parsed
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return "", nil, err
	}
	user.ID = id

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, user.Email, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Public(), nil
}
