package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/api/repository"
	"ctchen222/Bookshelf/internal/apperr"
	summarycache "ctchen222/Bookshelf/internal/repository"
	"ctchen222/Bookshelf/internal/validator"

	"github.com/google/uuid"
)

const recentBooksLimit = 5

// BookService defines the book operations available to an authenticated
// owner. A book owned by another user is reported as not found.
type BookService interface {
	Create(ctx context.Context, ownerID string, req *models.BookCreateRequest) (*models.Book, error)
	Get(ctx context.Context, ownerID, bookID string) (*models.Book, error)
	List(ctx context.Context, ownerID string, q models.PageQuery) (*models.PaginatedBooks, error)
	Search(ctx context.Context, ownerID string, q models.SearchQuery) ([]models.Book, error)
	Update(ctx context.Context, ownerID, bookID string, req *models.BookUpdateRequest) (*models.Book, error)
	Delete(ctx context.Context, ownerID, bookID string) error
	Summary(ctx context.Context, ownerID string) (*models.LibrarySummary, error)
}

type bookService struct {
	store   repository.Store
	summary summarycache.SummaryRepository
	now     func() time.Time
}

type BookServiceOption func(*bookService)

// WithNow replaces the clock used for book timestamps.
func WithNow(now func() time.Time) BookServiceOption {
	return func(s *bookService) {
		s.now = now
	}
}

// NewBookService creates a new BookService. summary may be a no-op cache.
func NewBookService(store repository.Store, summary summarycache.SummaryRepository, opts ...BookServiceOption) BookService {
	s := &bookService{
		store:   store,
		summary: summary,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *bookService) Create(ctx context.Context, ownerID string, req *models.BookCreateRequest) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookService.Create")
	defer span.End()

	title, author := strings.TrimSpace(req.Title), strings.TrimSpace(req.Author)
	if title == "" || author == "" {
		return nil, apperr.Validation("title and author must not be blank")
	}
	pubDate, err := normalizeDate(req.PublicationDate)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	book := &models.Book{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Title:           title,
		Author:          author,
		PublicationDate: pubDate,
		ISBN:            normalizeOptional(req.ISBN),
		CoverImage:      normalizeOptional(req.CoverImage),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Books().Create(ctx, book)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, ownerID)
	slog.InfoContext(ctx, "Book created", "user.id", ownerID, "book.id", book.ID)
	return book, nil
}

func (s *bookService) Get(ctx context.Context, ownerID, bookID string) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookService.Get")
	defer span.End()

	return s.store.Books().Get(ctx, bookID, ownerID)
}

// List returns one page of the owner's books, newest first. A page past the
// end is empty rather than an error.
func (s *bookService) List(ctx context.Context, ownerID string, q models.PageQuery) (*models.PaginatedBooks, error) {
	ctx, span := tracer.Start(ctx, "BookService.List")
	defer span.End()

	if q.Page < 1 || q.Limit < 1 || q.Limit > 100 {
		return nil, apperr.Validation("page must be at least 1 and limit between 1 and 100")
	}

	books := s.store.Books()
	total, err := books.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	page, err := books.List(ctx, ownerID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedBooks{
		Books:      page,
		Pagination: models.NewPagination(q, total),
	}, nil
}

func (s *bookService) Search(ctx context.Context, ownerID string, q models.SearchQuery) ([]models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookService.Search")
	defer span.End()

	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, apperr.Validation("search_query must not be blank")
	}
	return s.store.Books().Search(ctx, ownerID, query)
}

// Update applies a partial update. An empty string clears an optional field.
func (s *bookService) Update(ctx context.Context, ownerID, bookID string, req *models.BookUpdateRequest) (*models.Book, error) {
	ctx, span := tracer.Start(ctx, "BookService.Update")
	defer span.End()

	if req.Empty() {
		return nil, apperr.Validation("no fields to update")
	}

	var updated *models.Book
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		book, err := tx.Books().Get(ctx, bookID, ownerID)
		if err != nil {
			return err
		}
		if err := applyUpdate(book, req); err != nil {
			return err
		}
		book.UpdatedAt = s.timestamp()
		if err := tx.Books().Update(ctx, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, ownerID)
	slog.InfoContext(ctx, "Book updated", "user.id", ownerID, "book.id", bookID)
	return updated, nil
}

func applyUpdate(book *models.Book, req *models.BookUpdateRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return apperr.Validation("title must not be blank")
		}
		book.Title = title
	}
	if req.Author != nil {
		author := strings.TrimSpace(*req.Author)
		if author == "" {
			return apperr.Validation("author must not be blank")
		}
		book.Author = author
	}
	if req.PublicationDate != nil {
		pubDate, err := normalizeDate(req.PublicationDate)
		if err != nil {
			return err
		}
		book.PublicationDate = pubDate
	}
	if req.ISBN != nil {
		book.ISBN = normalizeOptional(req.ISBN)
	}
	if req.CoverImage != nil {
		book.CoverImage = normalizeOptional(req.CoverImage)
	}
	return nil
}

// Delete soft-deletes a book. It disappears from every read but the row is
// kept.
func (s *bookService) Delete(ctx context.Context, ownerID, bookID string) error {
	ctx, span := tracer.Start(ctx, "BookService.Delete")
	defer span.End()

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Books().SoftDelete(ctx, bookID, ownerID, s.timestamp())
	})
	if err != nil {
		return err
	}

	s.invalidateSummary(ctx, ownerID)
	slog.InfoContext(ctx, "Book deleted", "user.id", ownerID, "book.id", bookID)
	return nil
}

// Summary returns the owner's book count and most recent books, served from
// the cache when possible. Cache failures fall back to the database.
func (s *bookService) Summary(ctx context.Context, ownerID string) (*models.LibrarySummary, error) {
	ctx, span := tracer.Start(ctx, "BookService.Summary")
	defer span.End()

	cached, version, cacheErr := s.summary.Get(ctx, ownerID)
	if cacheErr != nil {
		slog.WarnContext(ctx, "Failed to read cached library summary", "user.id", ownerID, "error", cacheErr)
	} else if cached != nil {
		return cached, nil
	}

	books := s.store.Books()
	total, err := books.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	recent, err := books.Recent(ctx, ownerID, recentBooksLimit)
	if err != nil {
		return nil, err
	}
	summary := &models.LibrarySummary{TotalBooks: total, RecentBooks: recent}

	// Without a version the entry could not be told apart from a stale one.
	if cacheErr != nil {
		return summary, nil
	}
	if err := s.summary.Set(ctx, ownerID, version, summary); err != nil {
		slog.WarnContext(ctx, "Failed to cache library summary", "user.id", ownerID, "error", err)
	}
	return summary, nil
}

func (s *bookService) invalidateSummary(ctx context.Context, ownerID string) {
	if err := s.summary.Invalidate(ctx, ownerID); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate library summary", "user.id", ownerID, "error", err)
	}
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeDate(v *string) (*string, error) {
	date := normalizeOptional(v)
	if date == nil {
		return nil, nil
	}
	if _, err := time.Parse(validator.DateLayout, *date); err != nil {
		return nil, apperr.Validation("publication_date must be a date in YYYY-MM-DD format")
	}
	return date, nil
}
