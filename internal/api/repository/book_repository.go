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
)

//go:generate mockgen -source=book_repository.go -destination=mocks/mock_book_repository.go -package=mocks

const (
	errBookNotFound  = "Book not found"
	errDuplicateISBN = "A book with this ISBN already exists in your library"
)

// BookRepository stores books. Every method is scoped to one owner and
// ignores soft-deleted rows, so a book owned by someone else is
// indistinguishable from a missing one.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	Get(ctx context.Context, id, ownerID string) (*models.Book, error)
	List(ctx context.Context, ownerID string, offset, limit int) ([]models.Book, error)
	Count(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, book *models.Book) error
	SoftDelete(ctx context.Context, id, ownerID string, at time.Time) error
	Search(ctx context.Context, ownerID, query string) ([]models.Book, error)
	Recent(ctx context.Context, ownerID string, n int) ([]models.Book, error)
}

type bookRow struct {
	ID              string         `db:"id"`
	OwnerID         string         `db:"user_id"`
	Title           string         `db:"title"`
	Author          string         `db:"author"`
	PublicationDate sql.NullString `db:"publication_date"`
	ISBN            sql.NullString `db:"isbn"`
	CoverImage      sql.NullString `db:"cover_image"`
	IsDeleted       int            `db:"is_deleted"`
	CreatedAt       int64          `db:"created_at"`
	UpdatedAt       int64          `db:"updated_at"`
}

func (r bookRow) toModel() models.Book {
	return models.Book{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Title:           r.Title,
		Author:          r.Author,
		PublicationDate: fromNullString(r.PublicationDate),
		ISBN:            fromNullString(r.ISBN),
		CoverImage:      fromNullString(r.CoverImage),
		CreatedAt:       time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:       time.UnixMilli(r.UpdatedAt).UTC(),
	}
}

func toModels(rows []bookRow) []models.Book {
	books := make([]models.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toModel())
	}
	return books
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

const (
	bookColumns = `id, user_id, title, author, publication_date, isbn, cover_image, is_deleted, created_at, updated_at`
	liveBook    = `user_id = ? AND is_deleted = 0`
)

type sqlBookRepository struct {
	q db.DBTX
}

// NewBookRepository creates a BookRepository that runs its queries on q.
func NewBookRepository(q db.DBTX) BookRepository {
	return &sqlBookRepository{q: q}
}

func (r *sqlBookRepository) Create(ctx context.Context, book *models.Book) error {
	ctx, span := tracer.Start(ctx, "BookRepository.Create")
	defer span.End()

	query := r.q.Rebind(`INSERT INTO books (` + bookColumns + `, title_folded, author_folded)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`)
	_, err := r.q.ExecContext(ctx, query,
		book.ID, book.OwnerID, book.Title, book.Author,
		toNullString(book.PublicationDate), toNullString(book.ISBN), toNullString(book.CoverImage),
		book.CreatedAt.UnixMilli(), book.UpdatedAt.UnixMilli(),
		foldCase(book.Title), foldCase(book.Author),
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperr.Conflict(errDuplicateISBN)
		}
		return apperr.Internal("failed to create book", err)
	}
	return nil
}

func (r *sqlBookRepository) Get(ctx context.Context, id, ownerID string) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.Get")
	defer span.End()

	var row bookRow
	query := r.q.Rebind(`SELECT ` + bookColumns + ` FROM books WHERE id = ? AND ` + liveBook)
	if err := r.q.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(errBookNotFound)
		}
		return nil, apperr.Internal("failed to get book", err)
	}
	book := row.toModel()
	return &book, nil
}

func (r *sqlBookRepository) List(ctx context.Context, ownerID string, offset, limit int) ([]models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.List")
	defer span.End()

	var rows []bookRow
	query := r.q.Rebind(`SELECT ` + bookColumns + ` FROM books WHERE ` + liveBook +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.q.SelectContext(ctx, &rows, query, ownerID, limit, offset); err != nil {
		return nil, apperr.Internal("failed to list books", err)
	}
	return toModels(rows), nil
}

func (r *sqlBookRepository) Count(ctx context.Context, ownerID string) (int, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.Count")
	defer span.End()

	var total int
	query := r.q.Rebind(`SELECT COUNT(*) FROM books WHERE ` + liveBook)
	if err := r.q.GetContext(ctx, &total, query, ownerID); err != nil {
		return 0, apperr.Internal("failed to count books", err)
	}
	return total, nil
}

// Update overwrites the mutable fields of a live book.
func (r *sqlBookRepository) Update(ctx context.Context, book *models.Book) error {
	ctx, span := tracer.Start(ctx, "BookRepository.Update")
	defer span.End()

	query := r.q.Rebind(`UPDATE books
		SET title = ?, author = ?, publication_date = ?, isbn = ?, cover_image = ?, updated_at = ?,
			title_folded = ?, author_folded = ?
		WHERE id = ? AND ` + liveBook)
	res, err := r.q.ExecContext(ctx, query,
		book.Title, book.Author,
		toNullString(book.PublicationDate), toNullString(book.ISBN), toNullString(book.CoverImage),
		book.UpdatedAt.UnixMilli(),
		foldCase(book.Title), foldCase(book.Author),
		book.ID, book.OwnerID,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperr.Conflict(errDuplicateISBN)
		}
		return apperr.Internal("failed to update book", err)
	}
	return requireAffected(res, errBookNotFound)
}

func (r *sqlBookRepository) SoftDelete(ctx context.Context, id, ownerID string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "BookRepository.SoftDelete")
	defer span.End()

	query := r.q.Rebind(`UPDATE books SET is_deleted = 1, updated_at = ? WHERE id = ? AND ` + liveBook)
	res, err := r.q.ExecContext(ctx, query, at.UnixMilli(), id, ownerID)
	if err != nil {
		return apperr.Internal("failed to delete book", err)
	}
	return requireAffected(res, errBookNotFound)
}

// Search matches query against title and author, ignoring case. Both sides
// are folded in Go: SQLite's LOWER only folds ASCII.
func (r *sqlBookRepository) Search(ctx context.Context, ownerID, query string) ([]models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.Search")
	defer span.End()

	pattern := "%" + escapeLike(foldCase(query)) + "%"
	var rows []bookRow
	stmt := r.q.Rebind(`SELECT ` + bookColumns + ` FROM books WHERE ` + liveBook +
		` AND (title_folded LIKE ? ESCAPE '\' OR author_folded LIKE ? ESCAPE '\')` +
		` ORDER BY title, id`)
	if err := r.q.SelectContext(ctx, &rows, stmt, ownerID, pattern, pattern); err != nil {
		return nil, apperr.Internal("failed to search books", err)
	}
	return toModels(rows), nil
}

func (r *sqlBookRepository) Recent(ctx context.Context, ownerID string, n int) ([]models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookRepository.Recent")
	defer span.End()

	return r.List(ctx, ownerID, 0, n)
}

func foldCase(s string) string {
	return strings.ToLower(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
