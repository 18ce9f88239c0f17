package controller

import (
	"ctchen222/Bookshelf/internal/api/middleware"
	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/api/response"
	"ctchen222/Bookshelf/internal/api/service"
	"ctchen222/Bookshelf/internal/auth"

	"github.com/gin-gonic/gin"
)

// UserController handles user-related HTTP requests.
type UserController struct {
	userService service.UserService
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

func tokenResponse(pair *auth.TokenPair) models.TokenResponse {
	return models.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
}

// Signup handles the user registration endpoint.
func (uc *UserController) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pair, err := uc.userService.Signup(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, tokenResponse(pair))
}

// Login handles the user login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pair, err := uc.userService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, tokenResponse(pair))
}

// RefreshToken exchanges a refresh token for a new access token.
func (uc *UserController) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pair, err := uc.userService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, tokenResponse(pair))
}

// Me returns the authenticated user's profile.
func (uc *UserController) Me(c *gin.Context) {
	user, err := uc.userService.Profile(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, user)
}

func (uc *UserController) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := uc.userService.ChangePassword(c.Request.Context(), middleware.CurrentUser(c).ID, &req); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponseMessage(c, "Password updated successfully")
}

func (uc *UserController) ChangeUsername(c *gin.Context) {
	var req models.ChangeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	pair, err := uc.userService.ChangeUsername(c.Request.Context(), middleware.CurrentUser(c).ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessResponse(c, tokenResponse(pair))
}
