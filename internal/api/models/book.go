package models

import "time"

// Book is a single record in a user's private collection.
type Book struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	PublicationDate *string   `json:"publication_date"`
	ISBN            *string   `json:"isbn"`
	CoverImage      *string   `json:"cover_image"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookCreateRequest carries the fields accepted when adding a book.
type BookCreateRequest struct {
	Title           string  `json:"title" binding:"required,min=1,max=255"`
	Author          string  `json:"author" binding:"required,min=1,max=255"`
	PublicationDate *string `json:"publication_date" binding:"omitempty,isodate"`
	ISBN            *string `json:"isbn" binding:"omitempty,min=10,max=17"`
	CoverImage      *string `json:"cover_image" binding:"omitempty,url,max=2048"`
}

// BookUpdateRequest is a partial update; nil fields are left untouched.
type BookUpdateRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=255"`
	Author          *string `json:"author" binding:"omitempty,min=1,max=255"`
	PublicationDate *string `json:"publication_date" binding:"omitempty,isodate"`
	ISBN            *string `json:"isbn" binding:"omitempty,min=10,max=17"`
	CoverImage      *string `json:"cover_image" binding:"omitempty,url,max=2048"`
}

// Empty reports whether the update changes nothing.
func (r *BookUpdateRequest) Empty() bool {
	return r.Title == nil && r.Author == nil && r.PublicationDate == nil && r.ISBN == nil && r.CoverImage == nil
}

type PageQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=10" binding:"min=1,max=100"`
}

// Offset is the number of rows skipped before the requested page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type SearchQuery struct {
	Query string `form:"search_query" binding:"required,min=1,max=255"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(q PageQuery, total int) Pagination {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages}
}

type PaginatedBooks struct {
	Books      []Book     `json:"books"`
	Pagination Pagination `json:"pagination"`
}

// LibrarySummary is the overview shown on a user's dashboard.
type LibrarySummary struct {
	TotalBooks  int    `json:"total_books"`
	RecentBooks []Book `json:"recent_books"`
}
