package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/apperr"
	"ctchen222/Bookshelf/internal/db"

	"github.com/google/uuid"
)

//go:generate mockgen -source=user_repository.go -destination=mocks/mock_user_repository.go -package=mocks

// UserRepository is the credential store. Lookups return (nil, nil) when no
// user matches.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(r.UpdatedAt).UTC(),
	}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

const (
	errUsernameTaken = "Username already registered"
	errEmailTaken    = "Email already registered"
)

type sqlUserRepository struct {
	q db.DBTX
}

// NewUserRepository creates a UserRepository that runs its queries on q.
func NewUserRepository(q db.DBTX) UserRepository {
	return &sqlUserRepository{q: q}
}

// CreateUser inserts a new user. The lookups before the insert give a precise
// message; the UNIQUE constraints decide races between concurrent signups.
func (r *sqlUserRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.CreateUser")
	defer span.End()

	existing, err := r.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(errUsernameTaken)
	}
	existing, err = r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(errEmailTaken)
	}

	now := time.Now().UTC().UnixMilli()
	row := userRow{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := r.q.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = r.q.ExecContext(ctx, query, row.ID, row.Username, row.Email, row.PasswordHash, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return nil, apperr.Conflict(userConflictMessage(constraint))
		}
		return nil, apperr.Internal("failed to create user", err)
	}
	return row.toModel(), nil
}

func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.FindByUsername")
	defer span.End()

	return r.findOne(ctx, "username", username)
}

func (r *sqlUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.FindByEmail")
	defer span.End()

	return r.findOne(ctx, "email", email)
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.FindByID")
	defer span.End()

	return r.findOne(ctx, "id", id)
}

// findOne looks a user up by a unique column. column is never user input.
func (r *sqlUserRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	var row userRow
	query := r.q.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	if err := r.q.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to get user by "+column, err)
	}
	return row.toModel(), nil
}

// UpdateUsername renames a user and returns the updated record.
func (r *sqlUserRepository) UpdateUsername(ctx context.Context, id, username string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserRepository.UpdateUsername")
	defer span.End()

	existing, err := r.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		return nil, apperr.Conflict(errUsernameTaken)
	}

	query := r.q.Rebind(`UPDATE users SET username = ?, updated_at = ? WHERE id = ?`)
	res, err := r.q.ExecContext(ctx, query, username, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return nil, apperr.Conflict(userConflictMessage(constraint))
		}
		return nil, apperr.Internal("failed to update username", err)
	}
	if err := requireAffected(res, "User not found"); err != nil {
		return nil, err
	}

	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

func (r *sqlUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, span := tracer.Start(ctx, "UserRepository.UpdatePassword")
	defer span.End()

	query := r.q.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)
	res, err := r.q.ExecContext(ctx, query, passwordHash, time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return requireAffected(res, "User not found")
}

func userConflictMessage(constraint string) string {
	if strings.Contains(constraint, "email") {
		return errEmailTaken
	}
	return errUsernameTaken
}

func requireAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("failed to read affected rows", err)
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
