package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:50;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:100" json:"-"`
	Role         UserRole       `gorm:"size:20;default:'user'" json:"role"`
	Status       UserStatus     `gorm:"size:20;default:'active'" json:"status"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user may perform admin transitions.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:256;not null" json:"name"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Books     []Book    `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Publisher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:256;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Book is the inventory ledger's unit of account. AvailableQuantity and
// BorrowCount are only ever adjusted through the ledger's conditional
// updates; 0 <= AvailableQuantity <= TotalQuantity holds under correct
// sequencing.
type Book struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"index;size:512;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	PublicationYear   int            `json:"publication_year,omitempty"`
	TotalQuantity     int            `gorm:"not null;default:0" json:"total_quantity"`
	AvailableQuantity int            `gorm:"not null;default:0" json:"available_quantity"`
	BorrowCount       int            `gorm:"not null;default:0" json:"borrow_count"`
	AuthorID          uint           `gorm:"index" json:"author_id"`
	Author            Author         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PublisherID       uint           `gorm:"index" json:"publisher_id"`
	Publisher         Publisher      `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	Categories        []Category     `gorm:"many2many:book_categories;" json:"categories,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// Favorite marks a book as a user's favorite.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_favorites_user_book,unique;not null" json:"user_id"`
	BookID    uint      `gorm:"index:idx_favorites_user_book,unique;not null" json:"book_id"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorFollow marks an author as followed by a user.
type AuthorFollow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_follows_user_author,unique;not null" json:"user_id"`
	AuthorID  uint      `gorm:"index:idx_follows_user_author,unique;not null" json:"author_id"`
	Author    Author    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string         { return "users" }
func (Author) TableName() string       { return "authors" }
func (Publisher) TableName() string    { return "publishers" }
func (Category) TableName() string     { return "categories" }
func (Book) TableName() string         { return "books" }
func (Favorite) TableName() string     { return "favorites" }
func (AuthorFollow) TableName() string { return "author_follows" }
