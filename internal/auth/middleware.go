package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID = "auth_user_id"
	ContextKeyRole   = "auth_role"
)

// DefaultUserID is injected when authentication is disabled.
const DefaultUserID = uint(1)

// Middleware resolves the requesting user for every request.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths: map[string]bool{
			"/health":        true,
			"/auth/login":    true,
			"/auth/register": true,
			"/auth/csrf":     true,
		},
	}
}

// Handler returns the Gin middleware that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

// noAuthHandler injects a fixed user so the whole API works without
// accounts. Meant for development only.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, DefaultUserID)
		c.Set(ContextKeyRole, entities.RoleAdmin)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicRequest(c.Request.Method, c.Request.URL.Path) {
			// Still attach the user when a session exists so public
			// listings can show per-user state.
			if user := m.trySessionAuth(c); user != nil {
				m.setUserContext(c, user)
			}
			c.Next()
			return
		}

		user := m.trySessionAuth(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		m.setUserContext(c, user)
		c.Next()
	}
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(userID)
	if err != nil || user.Status == entities.UserStatusInactive {
		return nil
	}
	return user
}

func (m *Middleware) setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyRole, user.Role)
}

// isPublicRequest reports whether the request can be served without a
// session. Catalog reads are browsable anonymously; mutations under the
// same prefixes (favorite, follow) and everything user-scoped need an
// authenticated user.
func (m *Middleware) isPublicRequest(method, path string) bool {
	if m.publicPaths[path] {
		return true
	}
	if method != http.MethodGet {
		return false
	}
	if path == "/api/books" || path == "/api/categories" {
		return true
	}
	return strings.HasPrefix(path, "/api/books/") || strings.HasPrefix(path, "/api/authors/")
}

// RequireAdmin returns a middleware that rejects non-admin users. The
// decision endpoints and catalog management live behind it.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetUserRole(c) != entities.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request is anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// IsAuthenticated returns true if a user is attached to the request.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}
