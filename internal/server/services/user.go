// Package services contains server-side business logic. This file implements
// UserService: signup, login and resolving a bearer token to its user.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// PasswordHasher is satisfied by *credentials.Hasher.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, hash []byte) bool
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	Validate(token string) (*auth.Claims, error)
	TTL() time.Duration
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *models.User
}

// UserService provides the authentication operations:
//   - Signup: validate, hash and store a new user
//   - Login: verify credentials and mint an access token
//   - Authenticate: resolve an access token to the stored user
type UserService struct {
	users  users.Repository
	hasher PasswordHasher
	tokens TokenIssuer
	log    logging.Logger
	now    func() time.Time
}

// NewUserService wires the credential store, token service and user repository.
func NewUserService(repo users.Repository, hasher PasswordHasher, tokens TokenIssuer, log logging.Logger) *UserService {
	return &UserService{
		users:  repo,
		hasher: hasher,
		tokens: tokens,
		log:    log.With("module", "users"),
		now:    time.Now,
	}
}

// Signup creates a user. Input is validated before storage is touched; an
// email that is already registered fails with common.ErrorAlreadyExists.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (ident.ID, error) {
	if err := credentials.ValidateSignup(username, email, password); err != nil {
		return ident.ID{}, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ident.ID{}, fmt.Errorf("%w: email already registered", common.ErrorAlreadyExists)
	case !errors.Is(err, common.ErrorNotFound):
		return ident.ID{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return ident.ID{}, err
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return ident.ID{}, err
	}

	s.log.Info(ctx, "user created", "user_id", user.ID.String())
	return user.ID, nil
}

// Login checks the password of the user registered under email. An unknown
// email fails with common.ErrorNotFound, a wrong password with
// common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := credentials.ValidateLogin(email, password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Debug(ctx, "password mismatch", "user_id", user.ID.String())
		return nil, common.ErrorInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &Session{AccessToken: token, ExpiresIn: s.tokens.TTL(), User: user}, nil
}

// Authenticate resolves token to its user. Token problems surface as
// common.ErrorUnauthenticated; a valid token whose user no longer exists
// yields common.ErrorNotFound.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}

	user, err := s.users.GetByID(ctx, ident.Parse(claims.UserID))
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}
