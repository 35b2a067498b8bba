package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"
)

type AuthHandler struct {
	db          *gorm.DB
	authService services.AuthService
	tokens      *services.TokenService
}

func NewAuthHandler(db *gorm.DB, authService services.AuthService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService, tokens: tokens}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var user *models.User
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		user, err = h.authService.Register(tx, services.RegisterInput{
			Username: input.Username,
			Email:    input.Email,
			Password: input.Password,
		})
		return err
	})
	if errors.Is(err, services.ErrConflict) {
		respondError(c, http.StatusBadRequest, codeConflict, services.MsgUserExists)
		return
	}
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var user *models.User
	err := inTx(c, h.db, func(tx *gorm.DB) error {
		var err error
		user, err = h.authService.Login(tx, input.Email, input.Password)
		return err
	})
	if errors.Is(err, services.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		respondInternal(c, err)
		return
	}

	pair, err := h.tokens.IssueTokens(user.ID)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh runs behind JWTAuth with a refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	access, err := h.tokens.IssueAccessToken(userID)
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}

// Logout blocklists the access token the request was made with.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		respondInternal(c, err)
		return
	}

	err = inTx(c, h.db, func(tx *gorm.DB) error {
		return h.tokens.Revoke(tx, claims)
	})
	if err != nil {
		respondInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	err := inTx(c, h.db, func(tx *gorm.DB) error {
		return h.authService.ForgotPassword(tx, input.Email)
	})
	if err != nil {
		respondServiceError(c, err, http.StatusNotFound, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email exists, you may reset password"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	err := inTx(c, h.db, func(tx *gorm.DB) error {
		return h.authService.ResetPassword(tx, input.Email, input.Password)
	})
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
