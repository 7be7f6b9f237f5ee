package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
)

// CommentCreateInput carries a new comment or reply
type CommentCreateInput struct {
	Content   string
	UserID    primitive.ObjectID
	StoryID   *primitive.ObjectID
	ChapterID *primitive.ObjectID
	ParentID  *primitive.ObjectID
}

// LikeResult is the outcome of a like toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// CommentPage is a page of comments with its pagination envelope
type CommentPage struct {
	Comments   []*models.Comment `json:"comments"`
	Pagination models.Pagination `json:"pagination"`
}

// commentService maintains the two-level comment tree and its counters
type commentService struct {
	comments repository.CommentRepository
	stories  repository.StoryRepository
	chapters repository.ChapterRepository
	log      zerolog.Logger
}

func newCommentService(
	comments repository.CommentRepository,
	stories repository.StoryRepository,
	chapters repository.ChapterRepository,
	log zerolog.Logger,
) CommentService {
	return &commentService{
		comments: comments,
		stories:  stories,
		chapters: chapters,
		log:      log.With().Str("service", "comment").Logger(),
	}
}

// Create validates the scope and parent, stores the comment, and refreshes
// the parent's reply count when the new comment is a reply
func (s *commentService) Create(ctx context.Context, in CommentCreateInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "comment content is required"}
	}
	if len([]rune(content)) > models.MaxCommentLen {
		return nil, &ValidationError{Field: "content", Message: fmt.Sprintf("comment cannot exceed %d characters", models.MaxCommentLen)}
	}
	if in.StoryID == nil && in.ChapterID == nil {
		return nil, &ValidationError{Message: "either story ID or chapter ID is required"}
	}

	if in.StoryID != nil {
		story, err := s.stories.GetByID(ctx, *in.StoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load story: %w", err)
		}
		if story == nil || !story.IsPublished {
			return nil, &NotFoundError{Resource: "story"}
		}
	}
	if in.ChapterID != nil {
		chapter, err := s.chapters.GetByID(ctx, *in.ChapterID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chapter: %w", err)
		}
		if chapter == nil || !chapter.IsPublished {
			return nil, &NotFoundError{Resource: "chapter"}
		}
	}
	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
		if parent == nil || parent.IsDeleted {
			return nil, &NotFoundError{Resource: "parent comment"}
		}
		// the thread is two levels deep at most
		if parent.IsReply {
			return nil, &ValidationError{Field: "parentId", Message: "replies can only target top-level comments"}
		}
	}

	comment := &models.Comment{
		Content:    content,
		UserID:     in.UserID,
		StoryID:    in.StoryID,
		ChapterID:  in.ChapterID,
		ParentID:   in.ParentID,
		IsReply:    in.ParentID != nil,
		IsApproved: true,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if comment.ParentID != nil {
		if err := s.RecomputeReplyCount(ctx, *comment.ParentID); err != nil {
			// The count is a full recount on every mutation, so the next
			// one repairs any miss here
			s.log.Error().Err(err).
				Str("parent_id", comment.ParentID.Hex()).
				Msg("Failed to refresh reply count after create")
		}
	}

	return comment, nil
}

// Edit updates a comment's content; only the author or an admin may edit,
// and deleted comments stay frozen
func (s *commentService) Edit(ctx context.Context, id primitive.ObjectID, content string, actor *models.User) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "comment content is required"}
	}
	if len([]rune(content)) > models.MaxCommentLen {
		return nil, &ValidationError{Field: "content", Message: fmt.Sprintf("comment cannot exceed %d characters", models.MaxCommentLen)}
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, &NotFoundError{Resource: "comment"}
	}
	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return nil, &PermissionError{Action: "you can only edit your own comments"}
	}

	now := time.Now()
	comment.Content = content
	comment.EditedAt = &now

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// SoftDelete tombstones a comment. Replies are left alone: children of a
// deleted parent remain visible and keep their own counts.
func (s *commentService) SoftDelete(ctx context.Context, id primitive.ObjectID, actor *models.User) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, &NotFoundError{Resource: "comment"}
	}
	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return nil, &PermissionError{Action: "you can only delete your own comments"}
	}

	now := time.Now()
	comment.IsDeleted = true
	comment.DeletedAt = &now
	comment.Content = models.DeletedCommentContent

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}

	if comment.ParentID != nil {
		if err := s.RecomputeReplyCount(ctx, *comment.ParentID); err != nil {
			s.log.Error().Err(err).
				Str("parent_id", comment.ParentID.Hex()).
				Msg("Failed to refresh reply count after delete")
		}
	}

	return comment, nil
}

// RecomputeReplyCount stores a full recount of the parent's non-deleted
// children. A recount rather than an increment: concurrent writers may race
// on the stored value, but the next mutation converges it. Idempotent.
func (s *commentService) RecomputeReplyCount(ctx context.Context, parentID primitive.ObjectID) error {
	count, err := s.comments.CountReplies(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to count replies: %w", err)
	}
	if err := s.comments.SetReplyCount(ctx, parentID, int(count)); err != nil {
		return fmt.Errorf("failed to store reply count: %w", err)
	}
	return nil
}

// ToggleLike flips the user's like on a comment. Calling it twice in a row
// with the same user returns the count to where it started.
func (s *commentService) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (*LikeResult, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil || comment.IsDeleted || !comment.IsApproved {
		return nil, &NotFoundError{Resource: "comment"}
	}

	liked, likeCount, err := s.comments.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	return &LikeResult{Liked: liked, LikeCount: likeCount}, nil
}

// Report files a moderation report. One report per user per comment; a
// second report by the same user is rejected as a duplicate.
func (s *commentService) Report(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.Comment, error) {
	reason = strings.TrimSpace(reason)
	if !models.ValidReportReasons[reason] {
		return nil, &ValidationError{Field: "reason", Message: "reason must be one of: spam, inappropriate, harassment, other"}
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil || comment.IsDeleted {
		return nil, &NotFoundError{Resource: "comment"}
	}

	added, err := s.comments.AddReport(ctx, id, userID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to add report: %w", err)
	}
	if !added {
		return nil, &DuplicateError{Message: "you have already reported this comment"}
	}

	return s.comments.GetByID(ctx, id)
}

// ListForStory returns the top-level comments of a published story
func (s *commentService) ListForStory(ctx context.Context, storyID primitive.ObjectID, p ListParams) (*CommentPage, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil || !story.IsPublished {
		return nil, &NotFoundError{Resource: "story"}
	}

	return s.listTopLevel(ctx, repository.CommentListFilter{
		StoryID: &storyID,
		SortBy:  p.SortBy,
		SortAsc: p.SortAsc,
		Page:    p.Page,
		Limit:   p.Limit,
	}, p.Viewer)
}

// ListForChapter returns the top-level comments of a published chapter
func (s *commentService) ListForChapter(ctx context.Context, chapterID primitive.ObjectID, p ListParams) (*CommentPage, error) {
	chapter, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil || !chapter.IsPublished {
		return nil, &NotFoundError{Resource: "chapter"}
	}

	return s.listTopLevel(ctx, repository.CommentListFilter{
		ChapterID: &chapterID,
		SortBy:    p.SortBy,
		SortAsc:   p.SortAsc,
		Page:      p.Page,
		Limit:     p.Limit,
	}, p.Viewer)
}

// listTopLevel pages the top-level set and joins each comment with its
// non-deleted replies, oldest first. Replies are not paginated.
func (s *commentService) listTopLevel(ctx context.Context, f repository.CommentListFilter, viewer *models.User) (*CommentPage, error) {
	comments, total, err := s.comments.ListTopLevel(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	parentIDs := make([]primitive.ObjectID, 0, len(comments))
	byID := make(map[primitive.ObjectID]*models.Comment, len(comments))
	for _, c := range comments {
		parentIDs = append(parentIDs, c.ID)
		byID[c.ID] = c
		c.Replies = []*models.Comment{}
	}

	replies, err := s.comments.ListReplies(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	for _, reply := range replies {
		if parent, ok := byID[*reply.ParentID]; ok {
			parent.Replies = append(parent.Replies, reply)
		}
	}

	if viewer != nil {
		for _, c := range comments {
			c.IsLiked = c.LikedBy(viewer.ID)
			for _, reply := range c.Replies {
				reply.IsLiked = reply.LikedBy(viewer.ID)
			}
		}
	}

	return &CommentPage{
		Comments:   comments,
		Pagination: models.NewPagination(f.Page, f.Limit, total),
	}, nil
}

// ListByUser returns one user's comments; users see only their own unless
// the actor is an admin
func (s *commentService) ListByUser(ctx context.Context, userID primitive.ObjectID, actor *models.User, page, limit int) (*CommentPage, error) {
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, &PermissionError{Action: "you can only view your own comments"}
	}

	comments, total, err := s.comments.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user comments: %w", err)
	}

	return &CommentPage{
		Comments:   comments,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// Latest returns the newest top-level comments site-wide
func (s *commentService) Latest(ctx context.Context, limit int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.comments.Latest(ctx, limit)
}

// AdminList returns comments for moderation, deleted and unapproved included
func (s *commentService) AdminList(ctx context.Context, f repository.CommentAdminFilter) (*CommentPage, error) {
	comments, total, err := s.comments.AdminList(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &CommentPage{
		Comments:   comments,
		Pagination: models.NewPagination(f.Page, f.Limit, total),
	}, nil
}

// SetApproved flips a comment's moderation flag
func (s *commentService) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil {
		return nil, &NotFoundError{Resource: "comment"}
	}

	comment.IsApproved = approved
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// HardDelete removes a comment permanently. Admin only; the soft-delete
// path is the one normal deletion goes through.
func (s *commentService) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil {
		return &NotFoundError{Resource: "comment"}
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if comment.ParentID != nil {
		if err := s.RecomputeReplyCount(ctx, *comment.ParentID); err != nil {
			s.log.Error().Err(err).
				Str("parent_id", comment.ParentID.Hex()).
				Msg("Failed to refresh reply count after purge")
		}
	}
	return nil
}
