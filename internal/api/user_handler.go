package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
	"github.com/windy-novel-api/internal/service"
	"github.com/windy-novel-api/internal/validation"
)

// UserHandler handles profile, bookmark and reading history endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.services.User.GetProfile(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"user": user})
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName    *string             `json:"displayName"`
		Bio            *string             `json:"bio"`
		Avatar         *string             `json:"avatar"`
		FavoriteGenres []string            `json:"favoriteGenres"`
		Preferences    *models.Preferences `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.services.User.UpdateProfile(c.Request.Context(), currentUser(c).ID, service.ProfileUpdateInput{
		DisplayName:    req.DisplayName,
		Bio:            req.Bio,
		Avatar:         req.Avatar,
		FavoriteGenres: req.FavoriteGenres,
		Preferences:    req.Preferences,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "profile updated", gin.H{"user": user})
}

// AddBookmark handles POST /api/users/bookmarks/:storyId
func (h *UserHandler) AddBookmark(c *gin.Context) {
	storyID, ok := pathObjectID(c, "storyId")
	if !ok {
		return
	}
	if err := h.services.User.AddBookmark(c.Request.Context(), currentUser(c).ID, storyID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "story bookmarked", nil)
}

// RemoveBookmark handles DELETE /api/users/bookmarks/:storyId
func (h *UserHandler) RemoveBookmark(c *gin.Context) {
	storyID, ok := pathObjectID(c, "storyId")
	if !ok {
		return
	}
	if err := h.services.User.RemoveBookmark(c.Request.Context(), currentUser(c).ID, storyID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "bookmark removed", nil)
}

// ListBookmarks handles GET /api/users/bookmarks
func (h *UserHandler) ListBookmarks(c *gin.Context) {
	page, limit := pagingParams(c, 20)

	result, err := h.services.User.ListBookmarks(c.Request.Context(), currentUser(c).ID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", result)
}

// RecordReading handles POST /api/users/reading-history
func (h *UserHandler) RecordReading(c *gin.Context) {
	var req struct {
		StoryID       string `json:"storyId"`
		ChapterNumber int    `json:"chapterNumber"`
		Progress      int    `json:"progress"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	storyID, err := primitive.ObjectIDFromHex(req.StoryID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid story id")
		return
	}

	if err := h.services.User.RecordReading(c.Request.Context(), currentUser(c).ID, storyID, req.ChapterNumber, req.Progress); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "reading position saved", nil)
}

// ReadingHistory handles GET /api/users/reading-history
func (h *UserHandler) ReadingHistory(c *gin.Context) {
	page, limit := pagingParams(c, 20)

	entries, pagination, err := h.services.User.ReadingHistory(c.Request.Context(), currentUser(c).ID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"history": entries, "pagination": pagination})
}

// AdminList handles GET /api/users/admin/all
func (h *UserHandler) AdminList(c *gin.Context) {
	page, limit := pagingParams(c, 20)
	f := repository.UserListFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   page,
		Limit:  limit,
	}
	if v := c.Query("isActive"); v != "" {
		active := v == "true"
		f.IsActive = &active
	}

	users, pagination, err := h.services.User.AdminList(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"users": users, "pagination": pagination})
}

// SetRole handles PUT /api/users/admin/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	userID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.services.User.SetRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "role updated", gin.H{"user": user})
}

// SetActive handles PUT /api/users/admin/:id/status
func (h *UserHandler) SetActive(c *gin.Context) {
	userID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.services.User.SetActive(c.Request.Context(), userID, req.IsActive)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "status updated", gin.H{"user": user})
}

// pathObjectID parses an ObjectID path parameter, responding 400 on failure
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := parseObjectID(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
	return validation.ObjectID(hex)
}

// pagingParams reads page and limit query parameters
func pagingParams(c *gin.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	return page, limit
}

// sortParam reads the sortBy query parameter, falling back when the
// requested field is not in the sortable set
func sortParam(c *gin.Context, fallback string, sortable ...string) string {
	v := c.DefaultQuery("sortBy", fallback)
	for _, field := range sortable {
		if v == field {
			return v
		}
	}
	return fallback
}
