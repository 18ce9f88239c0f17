package auth

import (
	"errors"
	"fmt"
	"time"

	"ctchen222/Bookshelf/internal/apperr"
	"ctchen222/Bookshelf/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects the secret and lifetime of a token.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "bearer"

// Identity is what a token asserts about its holder.
type Identity struct {
	Username string
	Email    string
}

// Claims are the JWT claims of both access and refresh tokens. The subject
// is the username.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// TokenVerifier validates tokens of a given kind.
type TokenVerifier interface {
	Verify(token string, kind TokenKind) (*Claims, error)
}

// TokenIssuer mints and verifies access and refresh tokens. Each kind is
// signed with its own secret, so a token of one kind never verifies as the
// other.
type TokenIssuer struct {
	method        *jwt.SigningMethodHMAC
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

func NewTokenIssuer(cfg *config.Config, opts ...IssuerOption) (*TokenIssuer, error) {
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", cfg.Algorithm)
	}
	if cfg.SecretKey == "" || cfg.RefreshSecretKey == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.SecretKey == cfg.RefreshSecretKey {
		return nil, errors.New("access and refresh token secrets must differ")
	}

	issuer := &TokenIssuer{
		method:        method,
		accessSecret:  []byte(cfg.SecretKey),
		refreshSecret: []byte(cfg.RefreshSecretKey),
		accessTTL:     cfg.AccessTTL(),
		refreshTTL:    cfg.RefreshTTL(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

func (i *TokenIssuer) secretFor(kind TokenKind) []byte {
	if kind == RefreshToken {
		return i.refreshSecret
	}
	return i.accessSecret
}

func (i *TokenIssuer) ttlFor(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return i.refreshTTL
	}
	return i.accessTTL
}

func (i *TokenIssuer) issue(id Identity, kind TokenKind) (string, error) {
	now := i.now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttlFor(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secretFor(kind))
	if err != nil {
		return "", apperr.Internal("failed to sign "+kind.String()+" token", err)
	}
	return signed, nil
}

func (i *TokenIssuer) IssueAccess(id Identity) (string, error) {
	return i.issue(id, AccessToken)
}

func (i *TokenIssuer) IssueRefresh(id Identity) (string, error) {
	return i.issue(id, RefreshToken)
}

func (i *TokenIssuer) IssuePair(id Identity) (*TokenPair, error) {
	access, err := i.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

// Verify checks the signature, algorithm and expiry of a token of the given
// kind and returns its claims. Any failure is an InvalidToken error.
func (i *TokenIssuer) Verify(token string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secretFor(kind), nil },
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, apperr.InvalidToken(errCredentials, err)
	}
	if !parsed.Valid {
		return nil, apperr.InvalidToken(errCredentials, nil)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, apperr.InvalidToken(errCredentials, errors.New("token is missing sub or email"))
	}
	return claims, nil
}
