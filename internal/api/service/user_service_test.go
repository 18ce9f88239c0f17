package service

import (
	"context"
	"testing"
	"time"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/api/repository"
	"ctchen222/Bookshelf/internal/api/repository/mocks"
	"ctchen222/Bookshelf/internal/apperr"
	"ctchen222/Bookshelf/internal/auth"
	"ctchen222/Bookshelf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type userFixture struct {
	store   *mocks.MockStore
	users   *mocks.MockUserRepository
	hasher  *auth.BcryptHasher
	issuer  *auth.TokenIssuer
	service UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	store.EXPECT().Users().Return(users).AnyTimes()
	store.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, repository.Store) error) error {
			return fn(ctx, store)
		}).AnyTimes()

	issuer, err := auth.NewTokenIssuer(&config.Config{
		SecretKey:                "access-secret",
		RefreshSecretKey:         "refresh-secret",
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
	})
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(4)

	return &userFixture{
		store:   store,
		users:   users,
		hasher:  hasher,
		issuer:  issuer,
		service: NewUserService(store, hasher, issuer, auth.NewResolver(issuer, users)),
	}
}

func (f *userFixture) storedUser(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return &models.User{ID: "u-" + username, Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
}

func TestUserService_Signup(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	f.users.EXPECT().CreateUser(gomock.Any(), "alice", "a@x.com", gomock.Any()).DoAndReturn(
		func(_ context.Context, username, email, hash string) (*models.User, error) {
			assert.True(t, f.hasher.Verify("secret1", hash))
			return &models.User{ID: "u1", Username: username, Email: email, PasswordHash: hash}, nil
		})

	pair, err := f.service.Signup(ctx, &models.SignupRequest{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	claims, err := f.issuer.Verify(pair.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)

	_, err = f.issuer.Verify(pair.RefreshToken, auth.RefreshToken)
	require.NoError(t, err)
}

func TestUserService_SignupConflict(t *testing.T) {
	f := newUserFixture(t)

	f.users.EXPECT().CreateUser(gomock.Any(), "alice", "a@x.com", gomock.Any()).
		Return(nil, apperr.Conflict("Username already registered"))

	_, err := f.service.Signup(context.Background(), &models.SignupRequest{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Username already registered", apperr.MessageOf(err))
}

func TestUserService_Login(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	alice := f.storedUser(t, "alice", "a@x.com", "secret1")

	f.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil).Times(2)
	f.users.EXPECT().FindByUsername(gomock.Any(), "mallory").Return(nil, nil)

	_, err := f.service.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrongpw"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "Invalid username or password", apperr.MessageOf(err))

	_, err = f.service.Login(ctx, &models.LoginRequest{Username: "mallory", Password: "secret1"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, "Invalid username or password", apperr.MessageOf(err))

	pair, err := f.service.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	claims, err := f.issuer.Verify(pair.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestUserService_RefreshToken(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	alice := f.storedUser(t, "alice", "a@x.com", "secret1")
	f.users.EXPECT().FindByUsername(gomock.Any(), "alice").Return(alice, nil).AnyTimes()

	pair, err := f.issuer.IssuePair(auth.Identity{Username: "alice", Email: "a@x.com"})
	require.NoError(t, err)

	refreshed, err := f.service.RefreshToken(ctx, &models.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	_, err = f.issuer.Verify(refreshed.AccessToken, auth.AccessToken)
	require.NoError(t, err)

	// An access token cannot be used to refresh.
	_, err = f.service.RefreshToken(ctx, &models.RefreshRequest{RefreshToken: pair.AccessToken})
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	alice := f.storedUser(t, "alice", "a@x.com", "secret1")
	f.users.EXPECT().FindByID(gomock.Any(), alice.ID).Return(alice, nil).AnyTimes()

	err := f.service.ChangePassword(ctx, alice.ID, &models.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "secret2"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	err = f.service.ChangePassword(ctx, alice.ID, &models.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret1"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	f.users.EXPECT().UpdatePassword(gomock.Any(), alice.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, hash string) error {
			assert.True(t, f.hasher.Verify("secret2", hash))
			return nil
		})
	require.NoError(t, f.service.ChangePassword(ctx, alice.ID, &models.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret2"}))
}

func TestUserService_ChangeUsername(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	f.users.EXPECT().UpdateUsername(gomock.Any(), "u1", "alicia").
		Return(&models.User{ID: "u1", Username: "alicia", Email: "a@x.com"}, nil)
	f.users.EXPECT().UpdateUsername(gomock.Any(), "u1", "bob").
		Return(nil, apperr.Conflict("Username already registered"))

	pair, err := f.service.ChangeUsername(ctx, "u1", &models.ChangeUsernameRequest{Username: "alicia"})
	require.NoError(t, err)
	claims, err := f.issuer.Verify(pair.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alicia", claims.Subject)

	_, err = f.service.ChangeUsername(ctx, "u1", &models.ChangeUsernameRequest{Username: "bob"})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserService_Profile(t *testing.T) {
	f := newUserFixture(t)
	f.users.EXPECT().FindByID(gomock.Any(), "gone").Return(nil, nil)

	_, err := f.service.Profile(context.Background(), "gone")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
