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

// ChapterCreateInput carries a new chapter submission
type ChapterCreateInput struct {
	StoryID primitive.ObjectID
	Number  int
	Title   string
	Content string
	Notes   string
}

// ChapterUpdateInput carries a partial chapter update; nil fields are untouched
type ChapterUpdateInput struct {
	Title   *string
	Content *string
	Notes   *string
}

// ChapterListing is one page of a story's chapters with the parent story
type ChapterListing struct {
	Story      *models.Story     `json:"story"`
	Chapters   []*models.Chapter `json:"chapters"`
	Pagination models.Pagination `json:"pagination"`
}

// ChapterDetail is a chapter joined with its reading-order neighbours
type ChapterDetail struct {
	Chapter *models.Chapter `json:"chapter"`
	Story   *models.Story   `json:"story"`
	// PrevNumber and NextNumber are 0 when no such chapter exists
	PrevNumber int `json:"prevNumber"`
	NextNumber int `json:"nextNumber"`
}

// RatingSummary is the aggregate rating of a chapter
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// chapterService implements ChapterService
type chapterService struct {
	chapters repository.ChapterRepository
	stories  repository.StoryRepository
	log      zerolog.Logger
}

func newChapterService(chapters repository.ChapterRepository, stories repository.StoryRepository, log zerolog.Logger) ChapterService {
	return &chapterService{
		chapters: chapters,
		stories:  stories,
		log:      log.With().Str("service", "chapter").Logger(),
	}
}

// ListByStory returns a page of the story's chapters. The story owner and
// admins see unpublished chapters; everyone else sees published only.
func (s *chapterService) ListByStory(ctx context.Context, storyID primitive.ObjectID, viewer *models.User, page, limit int) (*ChapterListing, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil || !story.IsPublished {
		return nil, &NotFoundError{Resource: "story"}
	}

	publishedOnly := viewer == nil || (viewer.ID != story.CreatedBy && !viewer.IsAdmin())
	page, limit = models.NormalizePage(page, limit, 50, 200)

	chapters, total, err := s.chapters.ListByStory(ctx, storyID, publishedOnly, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}

	return &ChapterListing{
		Story:      story,
		Chapters:   chapters,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// Latest returns the most recently published chapters across all stories
func (s *chapterService) Latest(ctx context.Context, limit int) ([]*models.Chapter, error) {
	return s.chapters.Latest(ctx, limit)
}

// GetByNumber loads one chapter for reading, bumps its view counter, and
// resolves the previous and next chapter numbers
func (s *chapterService) GetByNumber(ctx context.Context, storyID primitive.ObjectID, number int, viewer *models.User) (*ChapterDetail, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil || !story.IsPublished {
		return nil, &NotFoundError{Resource: "story"}
	}

	chapter, err := s.chapters.GetByStoryAndNumber(ctx, storyID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil {
		return nil, &NotFoundError{Resource: "chapter"}
	}
	if !chapter.IsPublished {
		if viewer == nil || (viewer.ID != story.CreatedBy && !viewer.IsAdmin()) {
			return nil, &NotFoundError{Resource: "chapter"}
		}
	}

	if err := s.chapters.IncViewCount(ctx, chapter.ID); err != nil {
		s.log.Error().Err(err).Str("chapter_id", chapter.ID.Hex()).Msg("Failed to bump view count")
	} else {
		chapter.ViewCount++
	}

	detail := &ChapterDetail{Chapter: chapter, Story: story}
	if prev, err := s.chapters.GetByStoryAndNumber(ctx, storyID, number-1); err == nil && prev != nil && prev.IsPublished {
		detail.PrevNumber = prev.Number
	}
	if next, err := s.chapters.GetByStoryAndNumber(ctx, storyID, number+1); err == nil && next != nil && next.IsPublished {
		detail.NextNumber = next.Number
	}
	return detail, nil
}

// Create validates and stores a new chapter. Only the story owner or an
// admin may add chapters; numbers are unique within a story.
func (s *chapterService) Create(ctx context.Context, in ChapterCreateInput, actor *models.User) (*models.Chapter, error) {
	if err := validateChapterInput(in); err != nil {
		return nil, err
	}

	story, err := s.stories.GetByID(ctx, in.StoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return nil, &NotFoundError{Resource: "story"}
	}
	if story.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, &PermissionError{Action: "you can only add chapters to your own stories"}
	}

	taken, err := s.chapters.NumberExists(ctx, in.StoryID, in.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to check chapter number: %w", err)
	}
	if taken {
		return nil, &DuplicateError{Message: fmt.Sprintf("chapter %d already exists for this story", in.Number)}
	}

	now := time.Now()
	chapter := &models.Chapter{
		StoryID:       in.StoryID,
		Number:        in.Number,
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		WordCount:     models.CountWords(in.Content),
		IsPublished:   true,
		PublishedAt:   &now,
		Notes:         in.Notes,
		Ratings:       []models.ChapterRating{},
		CreatedBy:     actor.ID,
		LastUpdatedBy: actor.ID,
	}
	if err := s.chapters.Create(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}

	if err := s.stories.AdjustTotalChapters(ctx, in.StoryID, 1, actor.ID); err != nil {
		s.log.Error().Err(err).Str("story_id", in.StoryID.Hex()).Msg("Failed to bump chapter total")
	}

	s.log.Info().
		Str("chapter_id", chapter.ID.Hex()).
		Str("story_id", in.StoryID.Hex()).
		Int("number", in.Number).
		Msg("Chapter created")
	return chapter, nil
}

// Update applies a partial chapter edit; owner or admin. A content change
// recounts the words.
func (s *chapterService) Update(ctx context.Context, id primitive.ObjectID, in ChapterUpdateInput, actor *models.User) (*models.Chapter, error) {
	chapter, _, err := s.loadOwned(ctx, id, actor, "update")
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Message: "title is required"}
		}
		if len([]rune(title)) > models.MaxChapterTitleLen {
			return nil, &ValidationError{Field: "title", Message: fmt.Sprintf("title cannot exceed %d characters", models.MaxChapterTitleLen)}
		}
		chapter.Title = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, &ValidationError{Field: "content", Message: "content is required"}
		}
		chapter.Content = *in.Content
		chapter.WordCount = models.CountWords(*in.Content)
	}
	if in.Notes != nil {
		if len([]rune(*in.Notes)) > models.MaxChapterNotesLen {
			return nil, &ValidationError{Field: "notes", Message: fmt.Sprintf("notes cannot exceed %d characters", models.MaxChapterNotesLen)}
		}
		chapter.Notes = *in.Notes
	}
	chapter.LastUpdatedBy = actor.ID

	if err := s.chapters.Update(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to update chapter: %w", err)
	}
	return chapter, nil
}

// SetPublished toggles the chapter's publication flag; owner or admin
func (s *chapterService) SetPublished(ctx context.Context, id primitive.ObjectID, published bool, actor *models.User) (*models.Chapter, error) {
	chapter, _, err := s.loadOwned(ctx, id, actor, "publish")
	if err != nil {
		return nil, err
	}

	chapter.IsPublished = published
	if published && chapter.PublishedAt == nil {
		now := time.Now()
		chapter.PublishedAt = &now
	}
	chapter.LastUpdatedBy = actor.ID

	if err := s.chapters.Update(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to update chapter: %w", err)
	}
	return chapter, nil
}

// Delete removes a chapter permanently; owner or admin
func (s *chapterService) Delete(ctx context.Context, id primitive.ObjectID, actor *models.User) error {
	chapter, _, err := s.loadOwned(ctx, id, actor, "delete")
	if err != nil {
		return err
	}

	if err := s.chapters.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	if err := s.stories.AdjustTotalChapters(ctx, chapter.StoryID, -1, actor.ID); err != nil {
		s.log.Error().Err(err).Str("story_id", chapter.StoryID.Hex()).Msg("Failed to drop chapter total")
	}

	s.log.Info().Str("chapter_id", id.Hex()).Msg("Chapter deleted")
	return nil
}

// Like bumps the chapter's like counter and returns the new value.
// Likes are anonymous and unbounded; there is no unlike.
func (s *chapterService) Like(ctx context.Context, id primitive.ObjectID) (int64, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil || !chapter.IsPublished {
		return 0, &NotFoundError{Resource: "chapter"}
	}
	count, err := s.chapters.IncLikeCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to record like: %w", err)
	}
	return count, nil
}

// Rate records the user's 1-5 rating on a chapter; a second rating by the
// same user replaces the first. Returns the recomputed aggregate.
func (s *chapterService) Rate(ctx context.Context, id, userID primitive.ObjectID, rating int) (*RatingSummary, error) {
	if rating < models.MinChapterRating || rating > models.MaxChapterRating {
		return nil, &ValidationError{Field: "rating", Message: fmt.Sprintf("rating must be between %d and %d", models.MinChapterRating, models.MaxChapterRating)}
	}

	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil || !chapter.IsPublished {
		return nil, &NotFoundError{Resource: "chapter"}
	}

	replaced := false
	for i := range chapter.Ratings {
		if chapter.Ratings[i].UserID == userID {
			chapter.Ratings[i].Rating = rating
			chapter.Ratings[i].RatedAt = time.Now()
			replaced = true
			break
		}
	}
	if !replaced {
		chapter.Ratings = append(chapter.Ratings, models.ChapterRating{
			UserID:  userID,
			Rating:  rating,
			RatedAt: time.Now(),
		})
	}

	sum := 0
	for _, r := range chapter.Ratings {
		sum += r.Rating
	}
	chapter.RatingCount = len(chapter.Ratings)
	chapter.RatingAverage = float64(sum) / float64(chapter.RatingCount)

	if err := s.chapters.Update(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}
	return &RatingSummary{Average: chapter.RatingAverage, Count: chapter.RatingCount}, nil
}

// GetRating returns the chapter's aggregate rating
func (s *chapterService) GetRating(ctx context.Context, id primitive.ObjectID) (*RatingSummary, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil {
		return nil, &NotFoundError{Resource: "chapter"}
	}
	return &RatingSummary{Average: chapter.RatingAverage, Count: chapter.RatingCount}, nil
}

// GetUserRating returns the rating the user left on the chapter, or 0
func (s *chapterService) GetUserRating(ctx context.Context, id, userID primitive.ObjectID) (int, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil {
		return 0, &NotFoundError{Resource: "chapter"}
	}
	return chapter.UserRating(userID), nil
}

// AdminList returns chapters without publication filtering
func (s *chapterService) AdminList(ctx context.Context, f repository.ChapterAdminFilter) ([]*models.Chapter, models.Pagination, error) {
	chapters, total, err := s.chapters.AdminList(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, models.NewPagination(f.Page, f.Limit, total), nil
}

// loadOwned loads a chapter and its story, enforcing owner-or-admin
func (s *chapterService) loadOwned(ctx context.Context, id primitive.ObjectID, actor *models.User, action string) (*models.Chapter, *models.Story, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	if chapter == nil {
		return nil, nil, &NotFoundError{Resource: "chapter"}
	}

	story, err := s.stories.GetByID(ctx, chapter.StoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story != nil && story.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, nil, &PermissionError{Action: fmt.Sprintf("you can only %s chapters of your own stories", action)}
	}
	return chapter, story, nil
}

func validateChapterInput(in ChapterCreateInput) error {
	if in.Number < 1 {
		return &ValidationError{Field: "number", Message: "chapter number must be positive"}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len([]rune(title)) > models.MaxChapterTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title cannot exceed %d characters", models.MaxChapterTitleLen)}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if len([]rune(in.Notes)) > models.MaxChapterNotesLen {
		return &ValidationError{Field: "notes", Message: fmt.Sprintf("notes cannot exceed %d characters", models.MaxChapterNotesLen)}
	}
	return nil
}
