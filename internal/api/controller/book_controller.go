package controller

import (
	"ctchen222/Bookshelf/internal/api/middleware"
	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/api/response"
	"ctchen222/Bookshelf/internal/api/service"

	"github.com/gin-gonic/gin"
)

// BookController handles the book endpoints. Every handler runs behind
// middleware.RequireAuth and acts on the current user's books only.
type BookController struct {
	bookService service.BookService
}

func NewBookController(bookService service.BookService) *BookController {
	return &BookController{
		bookService: bookService,
	}
}

func (bc *BookController) Create(c *gin.Context) {
	var req models.BookCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	book, err := bc.bookService.Create(c.Request.Context(), middleware.CurrentUser(c).ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, book)
}

// List returns a page of books. An empty page is still a success.
func (bc *BookController) List(c *gin.Context) {
	var query models.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	page, err := bc.bookService.List(c.Request.Context(), middleware.CurrentUser(c).ID, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, page)
}

func (bc *BookController) Search(c *gin.Context) {
	var query models.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	books, err := bc.bookService.Search(c.Request.Context(), middleware.CurrentUser(c).ID, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponseList(c, books)
}

func (bc *BookController) Get(c *gin.Context) {
	book, err := bc.bookService.Get(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, book)
}

func (bc *BookController) Update(c *gin.Context) {
	var req models.BookUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	book, err := bc.bookService.Update(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, book)
}

func (bc *BookController) Delete(c *gin.Context) {
	if err := bc.bookService.Delete(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponseMessage(c, "Book deleted successfully")
}

// Summary returns the total number of books and the five most recent ones.
func (bc *BookController) Summary(c *gin.Context) {
	summary, err := bc.bookService.Summary(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, summary)
}
