package repository

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"

	"ctchen222/Bookshelf/internal/db"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository.sql")

// Store vends repositories bound to one connection or transaction.
type Store interface {
	Users() UserRepository
	Books() BookRepository
	// WithTx runs fn in a unit of work. The Store passed to fn is bound to
	// the transaction; nested calls join the outer transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

type sqlStore struct {
	pool *sqlx.DB
	q    db.DBTX
	inTx bool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *sqlx.DB) Store {
	return &sqlStore{pool: pool, q: pool}
}

func (s *sqlStore) Users() UserRepository {
	return NewUserRepository(s.q)
}

func (s *sqlStore) Books() BookRepository {
	return NewBookRepository(s.q)
}

func (s *sqlStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, &sqlStore{pool: s.pool, q: tx, inTx: true})
	})
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.pool.PingContext(ctx)
}
