package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/repository"
	"github.com/windy-novel-api/internal/service"
)

// CommentHandler handles comment thread endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// ListForStory handles GET /api/comments/story/:storyId
func (h *CommentHandler) ListForStory(c *gin.Context) {
	storyID, ok := pathObjectID(c, "storyId")
	if !ok {
		return
	}
	page, err := h.services.Comment.ListForStory(c.Request.Context(), storyID, listParamsFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}

// ListForChapter handles GET /api/comments/chapter/:chapterId
func (h *CommentHandler) ListForChapter(c *gin.Context) {
	chapterID, ok := pathObjectID(c, "chapterId")
	if !ok {
		return
	}
	page, err := h.services.Comment.ListForChapter(c.Request.Context(), chapterID, listParamsFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}

// ListByUser handles GET /api/comments/user/:userId
func (h *CommentHandler) ListByUser(c *gin.Context) {
	userID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}
	pageNum, limit := pagingParams(c, 20)

	page, err := h.services.Comment.ListByUser(c.Request.Context(), userID, currentUser(c), pageNum, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}

// Latest handles GET /api/comments/latest
func (h *CommentHandler) Latest(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	comments, err := h.services.Comment.Latest(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", gin.H{"comments": comments})
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req struct {
		Content   string `json:"content"`
		StoryID   string `json:"storyId"`
		ChapterID string `json:"chapterId"`
		ParentID  string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CommentCreateInput{
		Content: req.Content,
		UserID:  currentUser(c).ID,
	}
	var err error
	if in.StoryID, err = optionalObjectID(req.StoryID); err != nil {
		respondError(c, http.StatusBadRequest, "invalid story id")
		return
	}
	if in.ChapterID, err = optionalObjectID(req.ChapterID); err != nil {
		respondError(c, http.StatusBadRequest, "invalid chapter id")
		return
	}
	if in.ParentID, err = optionalObjectID(req.ParentID); err != nil {
		respondError(c, http.StatusBadRequest, "invalid parent id")
		return
	}

	comment, err := h.services.Comment.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "comment posted", gin.H{"comment": comment})
}

// Edit handles PUT /api/comments/:id
func (h *CommentHandler) Edit(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.services.Comment.Edit(c.Request.Context(), id, req.Content, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "comment updated", gin.H{"comment": comment})
}

// Delete handles DELETE /api/comments/:id. The comment is tombstoned, not
// removed; replies stay readable.
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	comment, err := h.services.Comment.SoftDelete(c.Request.Context(), id, currentUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "comment deleted", gin.H{"comment": comment})
}

// ToggleLike handles POST /api/comments/:id/like
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	result, err := h.services.Comment.ToggleLike(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "comment liked"
	if !result.Liked {
		message = "like removed"
	}
	respondOK(c, message, result)
}

// Report handles POST /api/comments/:id/report
func (h *CommentHandler) Report(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.services.Comment.Report(c.Request.Context(), id, currentUser(c).ID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "comment reported", nil)
}

// AdminList handles GET /api/comments/admin/all
func (h *CommentHandler) AdminList(c *gin.Context) {
	pageNum, limit := pagingParams(c, 20)
	f := repository.CommentAdminFilter{
		Search:     c.Query("search"),
		HasReports: c.Query("hasReports") == "true",
		SortBy:     sortParam(c, "created_at", "like_count", "updated_at"),
		SortAsc:    c.Query("order") == "asc",
		Page:       pageNum,
		Limit:      limit,
	}
	if v := c.Query("isApproved"); v != "" {
		approved := v == "true"
		f.IsApproved = &approved
	}
	if v := c.Query("isDeleted"); v != "" {
		deleted := v == "true"
		f.IsDeleted = &deleted
	}

	page, err := h.services.Comment.AdminList(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "", page)
}

// SetApproved handles PUT /api/comments/admin/:id/approve
func (h *CommentHandler) SetApproved(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsApproved bool `json:"isApproved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.services.Comment.SetApproved(c.Request.Context(), id, req.IsApproved)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "comment updated", gin.H{"comment": comment})
}

// HardDelete handles DELETE /api/comments/admin/:id
func (h *CommentHandler) HardDelete(c *gin.Context) {
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.services.Comment.HardDelete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "comment removed", nil)
}

func listParamsFromQuery(c *gin.Context) service.ListParams {
	page, limit := pagingParams(c, 20)
	return service.ListParams{
		Page:    page,
		Limit:   limit,
		SortBy:  sortParam(c, "created_at", "like_count"),
		SortAsc: c.Query("order") == "asc",
		Viewer:  currentUser(c),
	}
}

// optionalObjectID parses an ObjectID that may be absent
func optionalObjectID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := parseObjectID(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
