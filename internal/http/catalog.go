package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/books"
)

// CatalogController serves the browsable book catalog.
type CatalogController struct {
	books *books.Repository
}

func NewCatalogController(repo *books.Repository) *CatalogController {
	return &CatalogController{books: repo}
}

// ListBooks returns the catalog, optionally narrowed by a free-text search
// over title and author name and by category.
func (ctrl *CatalogController) ListBooks(c *gin.Context) {
	limit, offset := parsePagination(c)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)

	items, total, err := ctrl.books.List(books.ListFilters{
		Search:     c.Query("search"),
		CategoryID: uint(categoryID),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(items)) < total,
	})
}

// GetBook returns a single book with availability.
func (ctrl *CatalogController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ctrl.books.GetByID(id)
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// GetAuthor returns an author with their books.
func (ctrl *CatalogController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := ctrl.books.GetAuthorByID(id)
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "author")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// ListCategories returns all categories for the catalog filter.
func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	categories, err := ctrl.books.ListCategories()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}
