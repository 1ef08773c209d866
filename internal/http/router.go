// Package http exposes the lending workflow as a JSON API: the public
// catalog, the user's borrow list and the admin review endpoints.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CSRF must run before the session middleware so the session context
	// is not clobbered by the csrf request replacement.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyRole, entities.RoleAdmin)
			c.Next()
		})
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	catalog := NewCatalogController(cfg.Books)
	favoritesCtrl := NewFavoritesController(cfg.Favorites)
	borrowList := NewBorrowRequestsController(cfg.BorrowRequests)
	admin := NewAdminController(cfg.BorrowRequests, cfg.Engine)

	router.GET("/health", health.Status)

	// Auth endpoints only exist when local accounts are enabled
	if cfg.AuthService != nil && cfg.AuthConfig.Mode == config.AuthModeLocal {
		authCtrl := NewAuthController(cfg.AuthService, cfg.SessionManager)
		router.GET("/auth/csrf", authCtrl.CSRFToken)
		router.POST("/auth/register", authCtrl.Register)
		router.POST("/auth/login", authCtrl.Login)
		router.POST("/auth/logout", authCtrl.Logout)
		router.GET("/auth/me", authCtrl.Me)
		router.POST("/auth/password", authCtrl.ChangePassword)
	}

	// Public catalog
	router.GET("/api/books", catalog.ListBooks)
	router.GET("/api/books/:id", catalog.GetBook)
	router.GET("/api/authors/:id", catalog.GetAuthor)
	router.GET("/api/categories", catalog.ListCategories)

	// Favorites and follows
	router.POST("/api/books/:id/favorite", favoritesCtrl.AddFavorite)
	router.DELETE("/api/books/:id/favorite", favoritesCtrl.RemoveFavorite)
	router.GET("/api/favorites", favoritesCtrl.ListFavorites)
	router.POST("/api/authors/:id/follow", favoritesCtrl.FollowAuthor)
	router.DELETE("/api/authors/:id/follow", favoritesCtrl.UnfollowAuthor)
	router.GET("/api/follows", favoritesCtrl.ListFollowedAuthors)

	// The user's own borrow list
	router.POST("/api/borrow-requests", borrowList.Checkout)
	router.GET("/api/borrow-requests", borrowList.List)
	router.GET("/api/borrow-requests/:id", borrowList.Get)
	router.PUT("/api/borrow-requests/:id/items", borrowList.ReplaceItems)
	router.POST("/api/borrow-requests/:id/cancel", borrowList.Cancel)

	// Admin review endpoints
	adminRoutes := router.Group("/api/admin")
	if cfg.AuthMiddleware != nil {
		adminRoutes.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	adminRoutes.GET("/borrow-requests", admin.List)
	adminRoutes.GET("/borrow-requests/:id", admin.Get)
	adminRoutes.PATCH("/borrow-requests/:id/status", admin.ChangeStatus)
	adminRoutes.GET("/borrow-requests/:id/transitions", admin.Transitions)

	return router
}
