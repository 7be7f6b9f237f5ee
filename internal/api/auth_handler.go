package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/windy-novel-api/internal/service"
)

// AuthHandler handles account and session endpoints
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		respondError(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	user, token, err := h.services.Auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, "account created", gin.H{"user": user, "token": token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Login    string `json:"login"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}

	user, token, err := h.services.Auth.Login(c.Request.Context(), login, req.Password)
	if err != nil {
		if service.IsPermission(err) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	respondOK(c, "logged in", gin.H{"user": user, "token": token})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	user := currentUser(c)

	token, err := h.services.Auth.Refresh(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "token refreshed", gin.H{"token": token})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	respondOK(c, "", gin.H{"user": currentUser(c)})
}

// Logout handles POST /api/auth/logout. Tokens are stateless; the client
// discards its copy and this endpoint just acknowledges.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondOK(c, "logged out", nil)
}

// ChangePassword handles PUT /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(c)
	if err := h.services.Auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "password changed", nil)
}
