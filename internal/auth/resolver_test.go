package auth

import (
	"context"
	"errors"
	"testing"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users map[string]*models.User
	err   error
}

func (s *stubUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[username], nil
}

func TestResolver_Resolve(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	stored := &models.User{ID: "u1", Username: "alice", Email: "a@x.com"}
	users := &stubUsers{users: map[string]*models.User{"alice": stored}}
	resolver := NewResolver(issuer, users)
	ctx := context.Background()

	pair, err := issuer.IssuePair(alice)
	require.NoError(t, err)

	got, err := resolver.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	// Refresh tokens are not accepted as access tokens.
	_, err = resolver.Resolve(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = resolver.Resolve(ctx, "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResolver_EmailMismatch(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	users := &stubUsers{users: map[string]*models.User{
		"alice": {ID: "u1", Username: "alice", Email: "changed@x.com"},
	}}
	resolver := NewResolver(issuer, users)

	pair, err := issuer.IssuePair(alice)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = resolver.ResolveRefresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResolver_UnknownUser(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	resolver := NewResolver(issuer, &stubUsers{})

	access, err := issuer.IssueAccess(alice)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), access)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResolver_StorageFailure(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	resolver := NewResolver(issuer, &stubUsers{err: apperr.Internal("failed to get user by username", errors.New("db down"))})

	access, err := issuer.IssueAccess(alice)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), access)
	require.ErrorIs(t, err, apperr.ErrInternal)
}

func TestResolver_ResolveRefresh(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	users := &stubUsers{users: map[string]*models.User{
		"alice": {ID: "u1", Username: "alice", Email: "a@x.com"},
	}}
	resolver := NewResolver(issuer, users)

	pair, err := issuer.IssuePair(alice)
	require.NoError(t, err)

	got, err := resolver.ResolveRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = resolver.ResolveRefresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}
