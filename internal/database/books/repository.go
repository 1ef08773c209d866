// Package books provides read access to the catalog: browsing, search and
// book detail with availability.
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// ErrNotFound is returned when a book or author does not exist.
var ErrNotFound = errors.New("not found")

// Repository handles catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Search     string // matches title or author name
	CategoryID uint
	Limit      int
	Offset     int
}

// List returns books with author and publisher preloaded.
func (r *Repository) List(f ListFilters) ([]entities.Book, int64, error) {
	query := r.db.Model(&entities.Book{}).
		Joins("LEFT JOIN authors ON authors.id = books.author_id")
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("books.title LIKE ? OR authors.name LIKE ?", pattern, pattern)
	}
	if f.CategoryID > 0 {
		query = query.
			Joins("JOIN book_categories ON book_categories.book_id = books.id").
			Where("book_categories.category_id = ?", f.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Author").Preload("Publisher").Preload("Categories").
		Order("books.title ASC")
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var books []entities.Book
	err := query.Find(&books).Error
	return books, total, err
}

// GetByID loads a single book with its associations.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Author").Preload("Publisher").Preload("Categories").
		First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAuthorByID loads an author with their books.
func (r *Repository) GetAuthorByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Preload("Books").First(&author, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// ListCategories returns all categories.
func (r *Repository) ListCategories() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}
