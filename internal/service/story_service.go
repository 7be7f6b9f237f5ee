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

// StoryCreateInput carries a new story submission
type StoryCreateInput struct {
	Title       string
	Author      string
	Translator  string
	Description string
	Cover       string
	Tags        []string
	Status      string
}

// StoryUpdateInput carries a partial story update; nil fields are untouched.
// Counters, rating and ownership cannot be updated through this path.
type StoryUpdateInput struct {
	Title       *string
	Slug        *string
	Author      *string
	Translator  *string
	Description *string
	Cover       *string
	Tags        []string
	Status      *string
}

// StoryDetail is a story joined with its per-viewer extras
type StoryDetail struct {
	Story        *models.Story `json:"story"`
	ChapterCount int64         `json:"chapterCount"`
	IsBookmarked bool          `json:"isBookmarked"`
}

// PlatformStatistics summarizes the public catalog
type PlatformStatistics struct {
	Stories    int64 `json:"stories"`
	Authors    int   `json:"authors"`
	Readers    int64 `json:"readers"`
	TotalViews int64 `json:"totalViews"`
}

// trendingWindow bounds the "recently updated" cut for trending stories
const trendingWindow = 7 * 24 * time.Hour

// storyService implements StoryService
type storyService struct {
	stories  repository.StoryRepository
	chapters repository.ChapterRepository
	users    repository.UserRepository
	slugs    *SlugAllocator
	log      zerolog.Logger
}

func newStoryService(
	stories repository.StoryRepository,
	chapters repository.ChapterRepository,
	users repository.UserRepository,
	slugs *SlugAllocator,
	log zerolog.Logger,
) StoryService {
	return &storyService{
		stories:  stories,
		chapters: chapters,
		users:    users,
		slugs:    slugs,
		log:      log.With().Str("service", "story").Logger(),
	}
}

// List returns published stories matching the filter
func (s *storyService) List(ctx context.Context, f repository.StoryListFilter) ([]*models.Story, models.Pagination, error) {
	published := true
	f.IsPublished = &published

	stories, total, err := s.stories.List(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, models.NewPagination(f.Page, f.Limit, total), nil
}

// Featured returns the curated front-page stories
func (s *storyService) Featured(ctx context.Context, limit int) ([]*models.Story, error) {
	return s.stories.Featured(ctx, limit)
}

// Trending returns the most viewed recently updated stories
func (s *storyService) Trending(ctx context.Context, limit int) ([]*models.Story, error) {
	return s.stories.Trending(ctx, time.Now().Add(-trendingWindow), limit)
}

// Statistics summarizes the catalog for the landing page
func (s *storyService) Statistics(ctx context.Context) (*PlatformStatistics, error) {
	storyCount, err := s.stories.CountPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}
	authors, err := s.stories.DistinctAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count authors: %w", err)
	}
	readers, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	views, err := s.stories.TotalViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum views: %w", err)
	}

	return &PlatformStatistics{
		Stories:    storyCount,
		Authors:    len(authors),
		Readers:    readers,
		TotalViews: views,
	}, nil
}

// GetBySlug loads a published story, bumps its view counter, and attaches
// per-viewer extras
func (s *storyService) GetBySlug(ctx context.Context, slug string, viewer *models.User) (*StoryDetail, error) {
	story, err := s.stories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil || !story.IsPublished {
		return nil, &NotFoundError{Resource: "story"}
	}

	if err := s.stories.IncViewCount(ctx, story.ID); err != nil {
		s.log.Error().Err(err).Str("story_id", story.ID.Hex()).Msg("Failed to bump view count")
	} else {
		story.ViewCount++
	}

	chapterCount, err := s.chapters.CountByStory(ctx, story.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count chapters: %w", err)
	}

	detail := &StoryDetail{
		Story:        story,
		ChapterCount: chapterCount,
	}
	if viewer != nil {
		detail.IsBookmarked = viewer.HasBookmarked(story.ID)
	}
	return detail, nil
}

// Create validates and stores a new story, allocating its slug
func (s *storyService) Create(ctx context.Context, in StoryCreateInput, actor *models.User) (*models.Story, error) {
	if err := validateStoryInput(in); err != nil {
		return nil, err
	}

	exists, err := s.stories.TitleExists(ctx, in.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to check title: %w", err)
	}
	if exists {
		return nil, &DuplicateError{Message: "a story with this title already exists"}
	}

	slug, err := s.slugs.Allocate(ctx, in.Title, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusOngoing
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	story := &models.Story{
		Title:         strings.TrimSpace(in.Title),
		Slug:          slug,
		Author:        strings.TrimSpace(in.Author),
		Translator:    strings.TrimSpace(in.Translator),
		Description:   in.Description,
		Cover:         in.Cover,
		Tags:          tags,
		Status:        status,
		IsPublished:   true,
		CreatedBy:     actor.ID,
		LastUpdatedBy: actor.ID,
	}

	if err := s.stories.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	s.log.Info().Str("story_id", story.ID.Hex()).Str("slug", story.Slug).Msg("Story created")
	return story, nil
}

// Update applies a partial story update. Only the owner or an admin may
// update; a title change without an explicit slug override re-allocates
// the slug, excluding the story's own id from the collision probe.
func (s *storyService) Update(ctx context.Context, id primitive.ObjectID, in StoryUpdateInput, actor *models.User) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return nil, &NotFoundError{Resource: "story"}
	}
	if story.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, &PermissionError{Action: "you can only update your own stories"}
	}

	titleChanged := false
	if in.Title != nil && strings.TrimSpace(*in.Title) != story.Title {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Message: "title is required"}
		}
		if len([]rune(title)) > models.MaxTitleLen {
			return nil, &ValidationError{Field: "title", Message: fmt.Sprintf("title cannot exceed %d characters", models.MaxTitleLen)}
		}
		story.Title = title
		titleChanged = true
	}
	if in.Slug != nil && *in.Slug != "" {
		taken, err := s.stories.SlugTaken(ctx, *in.Slug, story.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			return nil, &DuplicateError{Message: "this slug is already in use"}
		}
		story.Slug = *in.Slug
	} else if titleChanged {
		slug, err := s.slugs.Allocate(ctx, story.Title, story.ID)
		if err != nil {
			return nil, err
		}
		story.Slug = slug
	}
	if in.Author != nil {
		story.Author = strings.TrimSpace(*in.Author)
	}
	if in.Translator != nil {
		story.Translator = strings.TrimSpace(*in.Translator)
	}
	if in.Description != nil {
		story.Description = *in.Description
	}
	if in.Cover != nil {
		story.Cover = *in.Cover
	}
	if in.Tags != nil {
		if err := validateTags(in.Tags); err != nil {
			return nil, err
		}
		story.Tags = in.Tags
	}
	if in.Status != nil {
		if !models.ValidStatuses[*in.Status] {
			return nil, &ValidationError{Field: "status", Message: "status must be one of: ongoing, completed, paused, dropped"}
		}
		story.Status = *in.Status
	}
	story.LastUpdatedBy = actor.ID

	if err := s.stories.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}
	return story, nil
}

// SetPublished toggles the publication flag (admin only, enforced here)
func (s *storyService) SetPublished(ctx context.Context, id primitive.ObjectID, published bool, actor *models.User) (*models.Story, error) {
	if !actor.IsAdmin() {
		return nil, &PermissionError{Action: "only admins can publish or unpublish stories"}
	}

	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return nil, &NotFoundError{Resource: "story"}
	}

	story.IsPublished = published
	story.LastUpdatedBy = actor.ID
	if err := s.stories.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}
	return story, nil
}

// SetFeatured toggles the front-page flag (admin only)
func (s *storyService) SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool, order int, actor *models.User) (*models.Story, error) {
	if !actor.IsAdmin() {
		return nil, &PermissionError{Action: "only admins can feature stories"}
	}

	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return nil, &NotFoundError{Resource: "story"}
	}

	story.Featured = featured
	if featured {
		story.FeaturedOrder = order
	} else {
		story.FeaturedOrder = 0
	}
	story.LastUpdatedBy = actor.ID
	if err := s.stories.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}
	return story, nil
}

// Delete removes a story permanently; owner or admin
func (s *storyService) Delete(ctx context.Context, id primitive.ObjectID, actor *models.User) error {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return &NotFoundError{Resource: "story"}
	}
	if story.CreatedBy != actor.ID && !actor.IsAdmin() {
		return &PermissionError{Action: "you can only delete your own stories"}
	}

	if err := s.stories.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	s.log.Info().Str("story_id", id.Hex()).Msg("Story deleted")
	return nil
}

// AdminList returns stories without publication filtering
func (s *storyService) AdminList(ctx context.Context, f repository.StoryListFilter) ([]*models.Story, models.Pagination, error) {
	stories, total, err := s.stories.List(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, models.NewPagination(f.Page, f.Limit, total), nil
}

func validateStoryInput(in StoryCreateInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len([]rune(title)) > models.MaxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title cannot exceed %d characters", models.MaxTitleLen)}
	}
	if strings.TrimSpace(in.Author) == "" {
		return &ValidationError{Field: "author", Message: "author is required"}
	}
	if len([]rune(in.Author)) > models.MaxAuthorLen {
		return &ValidationError{Field: "author", Message: fmt.Sprintf("author name cannot exceed %d characters", models.MaxAuthorLen)}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	if len([]rune(in.Description)) > models.MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("description cannot exceed %d characters", models.MaxDescriptionLen)}
	}
	if in.Status != "" && !models.ValidStatuses[in.Status] {
		return &ValidationError{Field: "status", Message: "status must be one of: ongoing, completed, paused, dropped"}
	}
	return validateTags(in.Tags)
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if !models.ValidTags[tag] {
			return &ValidationError{Field: "tags", Message: fmt.Sprintf("unknown tag %q", tag)}
		}
	}
	return nil
}
