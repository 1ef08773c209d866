package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/favorites"
)

// FavoritesController manages favorite books and followed authors.
type FavoritesController struct {
	favorites *favorites.Repository
}

func NewFavoritesController(repo *favorites.Repository) *FavoritesController {
	return &FavoritesController{favorites: repo}
}

func (ctrl *FavoritesController) AddFavorite(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.favorites.FavoriteBook(auth.GetUserID(c), bookID); err != nil {
		respondInternalError(c, err, "favorite book")
		return
	}
	respondSuccess(c, "book favorited")
}

func (ctrl *FavoritesController) RemoveFavorite(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.favorites.UnfavoriteBook(auth.GetUserID(c), bookID); err != nil {
		respondInternalError(c, err, "unfavorite book")
		return
	}
	respondSuccess(c, "book unfavorited")
}

func (ctrl *FavoritesController) ListFavorites(c *gin.Context) {
	items, err := ctrl.favorites.ListFavoriteBooks(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": items, "count": len(items)})
}

func (ctrl *FavoritesController) FollowAuthor(c *gin.Context) {
	authorID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.favorites.FollowAuthor(auth.GetUserID(c), authorID); err != nil {
		respondInternalError(c, err, "follow author")
		return
	}
	respondSuccess(c, "author followed")
}

func (ctrl *FavoritesController) UnfollowAuthor(c *gin.Context) {
	authorID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.favorites.UnfollowAuthor(auth.GetUserID(c), authorID); err != nil {
		respondInternalError(c, err, "unfollow author")
		return
	}
	respondSuccess(c, "author unfollowed")
}

func (ctrl *FavoritesController) ListFollowedAuthors(c *gin.Context) {
	items, err := ctrl.favorites.ListFollowedAuthors(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list followed authors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": items, "count": len(items)})
}
