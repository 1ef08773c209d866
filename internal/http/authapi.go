package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/entities"
)

// AuthController serves registration, login and session management.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
}

func NewAuthController(service *auth.Service, sessions *auth.SessionManager) *AuthController {
	return &AuthController{service: service, sessions: sessions}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a regular user account and logs it in.
func (ctrl *AuthController) Register(c *gin.Context) {
	var payload registerRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	user, err := ctrl.service.Register(payload.Name, payload.Email, payload.Password, entities.RoleUser)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		respondConflict(c, "an account with this email already exists")
		return
	case errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "register user")
		return
	}

	if err := ctrl.sessions.CreateSession(c.Request, user); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	respondCreated(c, user)
}

// Login authenticates credentials and starts a session.
func (ctrl *AuthController) Login(c *gin.Context) {
	var payload loginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	user, err := ctrl.service.Authenticate(payload.Email, payload.Password)
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		// Same answer for both so the endpoint doesn't leak which emails exist
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case errors.Is(err, auth.ErrUserInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		respondInternalError(c, err, "authenticate user")
		return
	}

	if err := ctrl.sessions.CreateSession(c.Request, user); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout destroys the current session.
func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.sessions.DestroySession(c.Request); err != nil {
		respondInternalError(c, err, "destroy session")
		return
	}
	respondSuccess(c, "logged out")
}

// Me returns the authenticated user.
func (ctrl *AuthController) Me(c *gin.Context) {
	user, err := ctrl.service.GetUserByID(auth.GetUserID(c))
	if errors.Is(err, auth.ErrUserNotFound) {
		respondNotFound(c, "user")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get current user")
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword updates the caller's password.
func (ctrl *AuthController) ChangePassword(c *gin.Context) {
	var payload changePasswordRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	err := ctrl.service.ChangePassword(auth.GetUserID(c), payload.OldPassword, payload.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "current password is incorrect"})
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
		respondBadRequest(c, err.Error())
	case err != nil:
		respondInternalError(c, err, "change password")
	default:
		respondSuccess(c, "password changed")
	}
}

// CSRFToken hands the client the token it must echo in the X-CSRF-Token
// header on mutating requests.
func (ctrl *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}
