package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var secret = []byte("super-secret-key")

func freshUsers() users.Repository {
	st := storage.New(memory.New(document.Unique{Collection: common.UsersCollection, Field: "email"}))
	return users.NewDocumentRepository(st.Users())
}

func newUserService(t *testing.T, repo users.Repository, clock *fakeClock) *UserService {
	t.Helper()
	tokens := auth.NewTokenService(secret, auth.DefaultTokenTTL, auth.WithClock(clock.Now))
	return NewUserService(repo, credentials.NewHasher(bcrypt.MinCost), tokens, logging.Nop())
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
}

// fakeUsersRepo fails every call with err.
type fakeUsersRepo struct{ err error }

func (f *fakeUsersRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, f.err
}
func (f *fakeUsersRepo) GetByEmail(context.Context, string) (*models.User, error) { return nil, f.err }
func (f *fakeUsersRepo) GetByID(context.Context, ident.ID) (*models.User, error)  { return nil, f.err }

// --- tests ---

func TestSignup_ThenDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newUserService(t, freshUsers(), newClock())

	id, err := s.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "mock_id_1", id.String())

	_, err = s.Signup(ctx, "alice2", "alice@example.com", "another1")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestSignup_InvalidInputDoesNotTouchStorage(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("storage must not be called")
	s := newUserService(t, &fakeUsersRepo{err: boom}, newClock())

	for _, tc := range []struct{ username, email, password string }{
		{"alice", "not-an-email", "hunter22"},
		{"alice", "alice@example.com", "short"},
		{"al", "alice@example.com", "hunter22"},
	} {
		_, err := s.Signup(ctx, tc.username, tc.email, tc.password)
		assert.ErrorIs(t, err, common.ErrorInvalidInput, tc)
		assert.NotErrorIs(t, err, boom)
	}
}

func TestSignup_StorageFailure(t *testing.T) {
	s := newUserService(t, &fakeUsersRepo{err: common.ErrorStorage}, newClock())
	_, err := s.Signup(context.Background(), "alice", "alice@example.com", "hunter22")
	assert.ErrorIs(t, err, common.ErrorStorage)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s := newUserService(t, freshUsers(), newClock())

	_, err := s.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice@example.com", "wrongpass")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)

	_, err = s.Login(ctx, "bob@example.com", "hunter22")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Login(ctx, "alice@example.com", "")
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	sess, err := s.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultTokenTTL, sess.ExpiresIn)
	assert.Equal(t, "mock_id_1", sess.User.ID.String())

	user, err := s.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
}

func TestLogin_LongPasswordPrefix(t *testing.T) {
	ctx := context.Background()
	s := newUserService(t, freshUsers(), newClock())

	prefix := strings.Repeat("p", credentials.MaxPasswordBytes)
	_, err := s.Signup(ctx, "alice", "alice@example.com", prefix+"tail-one")
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice@example.com", prefix+"tail-two")
	assert.NoError(t, err, "only the first 72 bytes take part in verification")
}

func TestAuthenticate_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := newUserService(t, freshUsers(), clock)

	_, err := s.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	sess, err := s.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	clock.Advance(auth.DefaultTokenTTL - time.Second)
	_, err = s.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.Authenticate(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestAuthenticate_Garbage(t *testing.T) {
	s := newUserService(t, freshUsers(), newClock())
	_, err := s.Authenticate(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestAuthenticate_UserGoneAfterRestart(t *testing.T) {
	ctx := context.Background()
	clock := newClock()

	before := newUserService(t, freshUsers(), clock)
	_, err := before.Signup(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	sess, err := before.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)

	// Same secret, fresh in-memory backend: the token is still valid.
	after := newUserService(t, freshUsers(), clock)
	_, err = after.Authenticate(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestAuthenticate_MissingUserID(t *testing.T) {
	clock := newClock()
	tokens := auth.NewTokenService(secret, time.Minute, auth.WithClock(clock.Now))
	token, err := tokens.Issue("", "alice@example.com")
	require.NoError(t, err)

	s := newUserService(t, freshUsers(), clock)
	_, err = s.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
	assert.ErrorIs(t, err, common.ErrMissingClaim)
}
