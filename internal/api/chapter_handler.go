package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/windy-novel-api/internal/repository"
	"github.com/windy-novel-api/internal/service"
)

// ChapterHandler handles chapter endpoints
type ChapterHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewChapterHandler creates a new ChapterHandler
func NewChapterHandler(services *service.Services, log zerolog.Logger) *ChapterHandler {
	return &ChapterHandler{
		services: services,
		log:      log.With().Str("handler", "chapter").Logger(),
	}
}

// ListByStory handles GET /api/chapters/story/:storyId
func (h *ChapterHandler) ListByStory(c *gin.Context) {
	storyID, ok := pathObjectID(c, "storyId")
	if !ok {
		return
	}
	page, limit := pagingParams(c, 50)

	listing, err := h.services.Chapter.ListByStory(c.Request.Context(), storyID, currentUser(c), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", listing)
}

// Latest handles GET /api/chapters/latest
func (h *ChapterHandler) Latest(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	chapters, err := h.services.Chapter.Latest(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"chapters": chapters})
}

// GetByNumber handles GET /api/chapters/:storyId/:number
func (h *ChapterHandler) GetByNumber(c *gin.Context) {
	storyID, ok := pathObjectID(c, "storyId")
	if !ok {
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		respondError(c, http.StatusBadRequest, "invalid chapter number")
		return
	}

	detail, err := h.services.Chapter.GetByNumber(c.Request.Context(), storyID, number, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", detail)
}

// Create handles POST /api/chapters
func (h *ChapterHandler) Create(c *gin.Context) {
	var req struct {
		StoryID string `json:"storyId"`
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	storyID, err := parseObjectID(req.StoryID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid story id")
		return
	}

	chapter, err := h.services.Chapter.Create(c.Request.Context(), service.ChapterCreateInput{
		StoryID: storyID,
		Number:  req.Number,
		Title:   req.Title,
		Content: req.Content,
		Notes:   req.Notes,
	}, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "chapter created", gin.H{"chapter": chapter})
}

// Update handles PUT /api/chapters/:id
func (h *ChapterHandler) Update(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Notes   *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	chapter, err := h.services.Chapter.Update(c.Request.Context(), id, service.ChapterUpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Notes:   req.Notes,
	}, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "chapter updated", gin.H{"chapter": chapter})
}

// SetPublished handles PUT /api/chapters/:id/publish
func (h *ChapterHandler) SetPublished(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsPublished bool `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	chapter, err := h.services.Chapter.SetPublished(c.Request.Context(), id, req.IsPublished, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "chapter updated", gin.H{"chapter": chapter})
}

// Delete handles DELETE /api/chapters/:id
func (h *ChapterHandler) Delete(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Chapter.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "chapter deleted", nil)
}

// Like handles POST /api/chapters/:id/like
func (h *ChapterHandler) Like(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	count, err := h.services.Chapter.Like(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "chapter liked", gin.H{"likeCount": count})
}

// Rate handles POST /api/chapters/:id/rate
func (h *ChapterHandler) Rate(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.services.Chapter.Rate(c.Request.Context(), id, currentUser(c).ID, req.Rating)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "rating saved", summary)
}

// GetRating handles GET /api/chapters/:id/rating
func (h *ChapterHandler) GetRating(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	summary, err := h.services.Chapter.GetRating(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", summary)
}

// GetUserRating handles GET /api/chapters/:id/user-rating
func (h *ChapterHandler) GetUserRating(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	rating, err := h.services.Chapter.GetUserRating(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"rating": rating})
}

// AdminList handles GET /api/chapters/admin/all
func (h *ChapterHandler) AdminList(c *gin.Context) {
	page, limit := pagingParams(c, 20)
	f := repository.ChapterAdminFilter{
		Search:  c.Query("search"),
		SortBy:  sortParam(c, "created_at", "published_at", "number", "view_count", "word_count"),
		SortAsc: c.Query("order") == "asc",
		Page:    page,
		Limit:   limit,
	}
	if v := c.Query("storyId"); v != "" {
		storyID, err := parseObjectID(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid story id")
			return
		}
		f.StoryID = &storyID
	}
	if v := c.Query("isPublished"); v != "" {
		published := v == "true"
		f.IsPublished = &published
	}

	chapters, pagination, err := h.services.Chapter.AdminList(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"chapters": chapters, "pagination": pagination})
}
