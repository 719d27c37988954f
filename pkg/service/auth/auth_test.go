package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/config"
	"github.com/selimk/teller/pkg/domain/account"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[string]*user.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

type fakeUoW struct {
	users *fakeUserRepo
}

func (f *fakeUoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(f)
}

func (f *fakeUoW) AccountRepository() (repository.AccountRepository, error) {
	return nil, account.ErrAccountNotFound
}

func (f *fakeUoW) TransactionRepository() (repository.TransactionRepository, error) {
	return nil, account.ErrAccountNotFound
}

func (f *fakeUoW) UserRepository() (repository.UserRepository, error) {
	return f.users, nil
}

func newService(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	cfg := &config.Jwt{Secret: "test-secret", Expiry: time.Hour}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(&fakeUoW{users: repo}, cfg, logger), repo
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *user.User {
	t.Helper()
	u, err := user.NewUser("Test User", email, password)
	require.NoError(t, err)
	repo.users[email] = u
	return u
}

func TestLogin(t *testing.T) {
	svc, repo := newService(t)
	seeded := seedUser(t, repo, "test@example.com", "correct-horse-battery")

	t.Run("valid credentials succeed", func(t *testing.T) {
		u, err := svc.Login(t.Context(), "test@example.com", "correct-horse-battery")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, u.ID)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		_, err := svc.Login(t.Context(), "test@example.com", "wrong-password")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("unknown email fails with the same error", func(t *testing.T) {
		_, err := svc.Login(t.Context(), "nobody@example.com", "whatever-pass")
		assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc, repo := newService(t)
	seeded := seedUser(t, repo, "test@example.com", "correct-horse-battery")

	signed, err := svc.GenerateToken(seeded)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	id, err := svc.CurrentUserID(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, id)
}

func TestCurrentUserID_MissingClaim(t *testing.T) {
	svc, _ := newService(t)

	token := jwt.New(jwt.SigningMethodHS256)
	_, err := svc.CurrentUserID(token)
	assert.Error(t, err)
}
