// Package favorites provides database operations for favorite books and
// followed authors.
package favorites

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Repository handles favorites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favorites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FavoriteBook marks a book as the user's favorite. Idempotent.
func (r *Repository) FavoriteBook(userID, bookID uint) error {
	var existing entities.Favorite
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&entities.Favorite{UserID: userID, BookID: bookID}).Error
}

// UnfavoriteBook removes a favorite. Removing a non-favorite is a no-op.
func (r *Repository) UnfavoriteBook(userID, bookID uint) error {
	return r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.Favorite{}).Error
}

// ListFavoriteBooks returns the user's favorite books, most recent first.
func (r *Repository) ListFavoriteBooks(userID uint) ([]entities.Favorite, error) {
	var favorites []entities.Favorite
	err := r.db.Preload("Book.Author").Preload("Book.Publisher").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, err
}

// FollowAuthor marks an author as followed by the user. Idempotent.
func (r *Repository) FollowAuthor(userID, authorID uint) error {
	var existing entities.AuthorFollow
	err := r.db.Where("user_id = ? AND author_id = ?", userID, authorID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&entities.AuthorFollow{UserID: userID, AuthorID: authorID}).Error
}

// UnfollowAuthor removes a follow. Removing a non-follow is a no-op.
func (r *Repository) UnfollowAuthor(userID, authorID uint) error {
	return r.db.Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&entities.AuthorFollow{}).Error
}

// ListFollowedAuthors returns the authors the user follows.
func (r *Repository) ListFollowedAuthors(userID uint) ([]entities.AuthorFollow, error) {
	var follows []entities.AuthorFollow
	err := r.db.Preload("Author").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&follows).Error
	return follows, err
}
