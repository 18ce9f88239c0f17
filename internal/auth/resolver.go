package auth

import (
	"context"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/apperr"
)

const (
	errCredentials = "Could not validate credentials"
	errRefresh     = "Could not validate refresh token"
)

// UserLookup is the part of the credential store the resolver needs.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver turns bearer tokens into verified users. A token resolves only
// while its subject exists and the stored email still equals the token's
// email claim.
type Resolver struct {
	tokens TokenVerifier
	users  UserLookup
}

func NewResolver(tokens TokenVerifier, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve authenticates an access token.
func (r *Resolver) Resolve(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := r.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return nil, apperr.Unauthorized(errCredentials)
	}
	return r.match(ctx, claims, errCredentials)
}

// ResolveRefresh authenticates a refresh token. A token that fails
// verification is an InvalidToken error; a valid token whose claims no
// longer match a user is Unauthorized.
func (r *Resolver) ResolveRefresh(ctx context.Context, refreshToken string) (*models.User, error) {
	claims, err := r.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return nil, apperr.InvalidToken(errRefresh, err)
	}
	return r.match(ctx, claims, errRefresh)
}

func (r *Resolver) match(ctx context.Context, claims *Claims, message string) (*models.User, error) {
	user, err := r.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Unauthorized(message)
	}
	if user == nil || user.Email != claims.Email {
		return nil, apperr.Unauthorized(message)
	}
	return user, nil
}
