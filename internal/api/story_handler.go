package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/windy-novel-api/internal/repository"
	"github.com/windy-novel-api/internal/service"
	"github.com/windy-novel-api/internal/validation"
)

// StoryHandler handles the story catalog endpoints
type StoryHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(services *service.Services, log zerolog.Logger) *StoryHandler {
	return &StoryHandler{
		services: services,
		log:      log.With().Str("handler", "story").Logger(),
	}
}

// List handles GET /api/stories
func (h *StoryHandler) List(c *gin.Context) {
	f := storyFilterFromQuery(c)

	stories, pagination, err := h.services.Story.List(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"stories": stories, "pagination": pagination})
}

// Featured handles GET /api/stories/featured
func (h *StoryHandler) Featured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	stories, err := h.services.Story.Featured(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"stories": stories})
}

// Trending handles GET /api/stories/trending
func (h *StoryHandler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	stories, err := h.services.Story.Trending(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"stories": stories})
}

// Statistics handles GET /api/stories/statistics
func (h *StoryHandler) Statistics(c *gin.Context) {
	stats, err := h.services.Story.Statistics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", stats)
}

// GetBySlug handles GET /api/stories/:slug
func (h *StoryHandler) GetBySlug(c *gin.Context) {
	detail, err := h.services.Story.GetBySlug(c.Request.Context(), c.Param("slug"), currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", detail)
}

// Create handles POST /api/stories
func (h *StoryHandler) Create(c *gin.Context) {
	var req struct {
		Title       string   `json:"title"`
		Author      string   `json:"author"`
		Translator  string   `json:"translator"`
		Description string   `json:"description"`
		Cover       string   `json:"cover"`
		Tags        []string `json:"tags"`
		Status      string   `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	story, err := h.services.Story.Create(c.Request.Context(), service.StoryCreateInput{
		Title:       req.Title,
		Author:      req.Author,
		Translator:  req.Translator,
		Description: req.Description,
		Cover:       req.Cover,
		Tags:        req.Tags,
		Status:      req.Status,
	}, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "story created", gin.H{"story": story})
}

// Update handles PUT /api/stories/:id
func (h *StoryHandler) Update(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       *string  `json:"title"`
		Slug        *string  `json:"slug"`
		Author      *string  `json:"author"`
		Translator  *string  `json:"translator"`
		Description *string  `json:"description"`
		Cover       *string  `json:"cover"`
		Tags        []string `json:"tags"`
		Status      *string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Slug != nil && *req.Slug != "" && !validation.IsSlug(*req.Slug) {
		respondError(c, http.StatusBadRequest, "slug must be lowercase alphanumeric with single hyphens")
		return
	}

	story, err := h.services.Story.Update(c.Request.Context(), id, service.StoryUpdateInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Author:      req.Author,
		Translator:  req.Translator,
		Description: req.Description,
		Cover:       req.Cover,
		Tags:        req.Tags,
		Status:      req.Status,
	}, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "story updated", gin.H{"story": story})
}

// SetPublished handles PUT /api/stories/:id/publish
func (h *StoryHandler) SetPublished(c *gin.Context) {
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

	story, err := h.services.Story.SetPublished(c.Request.Context(), id, req.IsPublished, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "story updated", gin.H{"story": story})
}

// SetFeatured handles PUT /api/stories/:id/feature
func (h *StoryHandler) SetFeatured(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Featured      bool `json:"featured"`
		FeaturedOrder int  `json:"featuredOrder"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	story, err := h.services.Story.SetFeatured(c.Request.Context(), id, req.Featured, req.FeaturedOrder, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "story updated", gin.H{"story": story})
}

// Delete handles DELETE /api/stories/:id
func (h *StoryHandler) Delete(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Story.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "story deleted", nil)
}

// AdminList handles GET /api/stories/admin/all
func (h *StoryHandler) AdminList(c *gin.Context) {
	f := storyFilterFromQuery(c)
	if v := c.Query("isPublished"); v != "" {
		published := v == "true"
		f.IsPublished = &published
	}

	stories, pagination, err := h.services.Story.AdminList(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"stories": stories, "pagination": pagination})
}

func storyFilterFromQuery(c *gin.Context) repository.StoryListFilter {
	page, limit := pagingParams(c, 20)

	f := repository.StoryListFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		SortBy:  sortParam(c, "updated_at", "created_at", "title", "view_count", "like_count", "bookmark_count"),
		SortAsc: c.Query("order") == "asc",
		Page:    page,
		Limit:   limit,
	}
	if tags := c.Query("tags"); tags != "" {
		f.Tags = strings.Split(tags, ",")
	}
	return f
}
