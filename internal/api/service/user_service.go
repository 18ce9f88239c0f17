package service

import (
	"context"
	"log/slog"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/api/repository"
	"ctchen222/Bookshelf/internal/apperr"
	"ctchen222/Bookshelf/internal/auth"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("service")
	meter  = otel.Meter("service")
)

const errInvalidLogin = "Invalid username or password"

// TokenIssuer mints tokens for authenticated users.
type TokenIssuer interface {
	IssueAccess(id auth.Identity) (string, error)
	IssuePair(id auth.Identity) (*auth.TokenPair, error)
}

// RefreshResolver maps a refresh token to the user it was issued for.
type RefreshResolver interface {
	ResolveRefresh(ctx context.Context, refreshToken string) (*models.User, error)
}

// UserService defines the interface for user-related business logic.
type UserService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*auth.TokenPair, error)
	Login(ctx context.Context, req *models.LoginRequest) (*auth.TokenPair, error)
	RefreshToken(ctx context.Context, req *models.RefreshRequest) (*auth.TokenPair, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error
	ChangeUsername(ctx context.Context, userID string, req *models.ChangeUsernameRequest) (*auth.TokenPair, error)
}

type authMetrics struct {
	signups   metric.Int64Counter
	logins    metric.Int64Counter
	refreshes metric.Int64Counter
}

func newAuthMetrics() *authMetrics {
	m := &authMetrics{}
	var err error
	if m.signups, err = meter.Int64Counter("bookshelf.auth.signups", metric.WithDescription("Signup attempts by outcome")); err != nil {
		slog.Warn("Failed to create signup counter", "error", err)
	}
	if m.logins, err = meter.Int64Counter("bookshelf.auth.logins", metric.WithDescription("Login attempts by outcome")); err != nil {
		slog.Warn("Failed to create login counter", "error", err)
	}
	if m.refreshes, err = meter.Int64Counter("bookshelf.auth.refreshes", metric.WithDescription("Token refreshes by outcome")); err != nil {
		slog.Warn("Failed to create refresh counter", "error", err)
	}
	return m
}

func record(ctx context.Context, counter metric.Int64Counter, err error) {
	if counter == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

type userService struct {
	store     repository.Store
	hasher    auth.PasswordHasher
	tokens    TokenIssuer
	refresher RefreshResolver
	metrics   *authMetrics
	dummyHash string
}

// NewUserService creates a new UserService.
func NewUserService(store repository.Store, hasher auth.PasswordHasher, tokens TokenIssuer, refresher RefreshResolver) UserService {
	// Unknown usernames are checked against this hash so that a failed login
	// takes the same time whether or not the user exists.
	dummyHash, err := hasher.Hash("bookshelf-dummy-password")
	if err != nil {
		slog.Warn("Failed to prepare dummy password hash", "error", err)
	}
	return &userService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		refresher: refresher,
		metrics:   newAuthMetrics(),
		dummyHash: dummyHash,
	}
}

func identityOf(user *models.User) auth.Identity {
	return auth.Identity{Username: user.Username, Email: user.Email}
}

// Signup registers a new user and returns a fresh token pair.
func (s *userService) Signup(ctx context.Context, req *models.SignupRequest) (pair *auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Signup")
	defer span.End()
	defer func() { record(ctx, s.metrics.signups, err) }()

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err = tx.Users().CreateUser(ctx, req.Username, req.Email, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "User registered", "user.id", user.ID, "user.name", user.Username)
	return s.tokens.IssuePair(identityOf(user))
}

// Login checks the credentials and returns a fresh token pair.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (pair *auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer span.End()
	defer func() { record(ctx, s.metrics.logins, err) }()

	user, err := s.store.Users().FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(req.Password, s.dummyHash)
		return nil, apperr.Unauthorized(errInvalidLogin)
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		slog.InfoContext(ctx, "Rejected login with wrong password", "user.id", user.ID)
		return nil, apperr.Unauthorized(errInvalidLogin)
	}

	return s.tokens.IssuePair(identityOf(user))
}

// RefreshToken mints a new access token. The refresh token is returned
// unchanged and stays valid until it expires.
func (s *userService) RefreshToken(ctx context.Context, req *models.RefreshRequest) (pair *auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "UserService.RefreshToken")
	defer span.End()
	defer func() { record(ctx, s.metrics.refreshes, err) }()

	user, err := s.refresher.ResolveRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(identityOf(user))
	if err != nil {
		return nil, err
	}
	return &auth.TokenPair{AccessToken: access, RefreshToken: req.RefreshToken, TokenType: auth.TokenTypeBearer}, nil
}

func (s *userService) Profile(ctx context.Context, userID string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Profile")
	defer span.End()

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	ctx, span := tracer.Start(ctx, "UserService.ChangePassword")
	defer span.End()

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}
	if req.CurrentPassword == req.NewPassword {
		return apperr.Validation("New password must differ from the current password")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Users().UpdatePassword(ctx, userID, hash)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Password changed", "user.id", userID)
	return nil
}

// ChangeUsername renames the user. Tokens carry the username as subject, so
// the old ones stop resolving and a new pair is returned.
func (s *userService) ChangeUsername(ctx context.Context, userID string, req *models.ChangeUsernameRequest) (*auth.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "UserService.ChangeUsername")
	defer span.End()

	var user *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		user, err = tx.Users().UpdateUsername(ctx, userID, req.Username)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Username changed", "user.id", userID, "user.name", user.Username)
	return s.tokens.IssuePair(identityOf(user))
}
