package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
)

// ProfileUpdateInput carries a partial profile update; nil fields are untouched
type ProfileUpdateInput struct {
	DisplayName    *string
	Bio            *string
	Avatar         *string
	FavoriteGenres []string
	Preferences    *models.Preferences
}

// BookmarkPage is one page of a user's bookmarked stories
type BookmarkPage struct {
	Stories    []*models.Story   `json:"stories"`
	Pagination models.Pagination `json:"pagination"`
}

const (
	maxBioLen         = 500
	maxDisplayNameLen = 50
)

// userService implements UserService
type userService struct {
	users   repository.UserRepository
	stories repository.StoryRepository
	log     zerolog.Logger
}

func newUserService(users repository.UserRepository, stories repository.StoryRepository, log zerolog.Logger) UserService {
	return &userService{
		users:   users,
		stories: stories,
		log:     log.With().Str("service", "user").Logger(),
	}
}

// GetProfile loads an account by id
func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	return user, nil
}

// UpdateProfile applies a partial update to the account's public details
func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileUpdateInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if len([]rune(name)) > maxDisplayNameLen {
			return nil, &ValidationError{Field: "displayName", Message: fmt.Sprintf("display name cannot exceed %d characters", maxDisplayNameLen)}
		}
		user.Profile.DisplayName = name
	}
	if in.Bio != nil {
		if len([]rune(*in.Bio)) > maxBioLen {
			return nil, &ValidationError{Field: "bio", Message: fmt.Sprintf("bio cannot exceed %d characters", maxBioLen)}
		}
		user.Profile.Bio = *in.Bio
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.FavoriteGenres != nil {
		for _, g := range in.FavoriteGenres {
			if !models.ValidTags[g] {
				return nil, &ValidationError{Field: "favoriteGenres", Message: fmt.Sprintf("unknown genre %q", g)}
			}
		}
		user.Profile.FavoriteGenres = in.FavoriteGenres
	}
	if in.Preferences != nil {
		user.Preferences = *in.Preferences
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// AddBookmark saves a story to the user's bookmark list. Adding a story
// that is already bookmarked is a no-op.
func (s *userService) AddBookmark(ctx context.Context, userID, storyID primitive.ObjectID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return &NotFoundError{Resource: "user"}
	}
	if user.HasBookmarked(storyID) {
		return nil
	}

	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil || !story.IsPublished {
		return &NotFoundError{Resource: "story"}
	}

	user.Bookmarks = append(user.Bookmarks, models.Bookmark{
		StoryID: storyID,
		AddedAt: time.Now(),
	})
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	if err := s.stories.AdjustBookmarkCount(ctx, storyID, 1); err != nil {
		s.log.Error().Err(err).Str("story_id", storyID.Hex()).Msg("Failed to bump bookmark count")
	}
	return nil
}

// RemoveBookmark drops a story from the user's bookmark list
func (s *userService) RemoveBookmark(ctx context.Context, userID, storyID primitive.ObjectID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return &NotFoundError{Resource: "user"}
	}
	if !user.HasBookmarked(storyID) {
		return nil
	}

	kept := user.Bookmarks[:0]
	for _, b := range user.Bookmarks {
		if b.StoryID != storyID {
			kept = append(kept, b)
		}
	}
	user.Bookmarks = kept

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if err := s.stories.AdjustBookmarkCount(ctx, storyID, -1); err != nil {
		s.log.Error().Err(err).Str("story_id", storyID.Hex()).Msg("Failed to drop bookmark count")
	}
	return nil
}

// ListBookmarks resolves the user's bookmarks into stories, newest first
func (s *userService) ListBookmarks(ctx context.Context, userID primitive.ObjectID, page, limit int) (*BookmarkPage, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	bookmarks := make([]models.Bookmark, len(user.Bookmarks))
	copy(bookmarks, user.Bookmarks)
	sort.Slice(bookmarks, func(i, j int) bool {
		return bookmarks[i].AddedAt.After(bookmarks[j].AddedAt)
	})

	page, limit = models.NormalizePage(page, limit, 20, 100)
	total := int64(len(bookmarks))
	start := (page - 1) * limit
	if start > len(bookmarks) {
		start = len(bookmarks)
	}
	end := start + limit
	if end > len(bookmarks) {
		end = len(bookmarks)
	}

	stories := make([]*models.Story, 0, end-start)
	for _, b := range bookmarks[start:end] {
		story, err := s.stories.GetByID(ctx, b.StoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load story: %w", err)
		}
		// bookmarks may outlive their stories
		if story != nil {
			stories = append(stories, story)
		}
	}

	return &BookmarkPage{
		Stories:    stories,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// RecordReading upserts the user's reading position for a story. Each
// story keeps one entry; the list is capped at the most recent
// MaxReadingHistory stories.
func (s *userService) RecordReading(ctx context.Context, userID, storyID primitive.ObjectID, chapterNumber, progress int) error {
	if chapterNumber < 1 {
		return &ValidationError{Field: "chapterNumber", Message: "chapter number must be positive"}
	}
	if progress < 0 || progress > 100 {
		return &ValidationError{Field: "progress", Message: "progress must be between 0 and 100"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return &NotFoundError{Resource: "user"}
	}

	entry := models.ReadingEntry{
		StoryID:       storyID,
		ChapterNumber: chapterNumber,
		Progress:      progress,
		ReadAt:        time.Now(),
	}

	kept := make([]models.ReadingEntry, 0, len(user.ReadingHistory)+1)
	kept = append(kept, entry)
	for _, e := range user.ReadingHistory {
		if e.StoryID != storyID {
			kept = append(kept, e)
		}
	}
	if len(kept) > models.MaxReadingHistory {
		kept = kept[:models.MaxReadingHistory]
	}
	user.ReadingHistory = kept

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to save reading history: %w", err)
	}
	return nil
}

// ReadingHistory returns the user's history entries, most recent first
func (s *userService) ReadingHistory(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.ReadingEntry, models.Pagination, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, models.Pagination{}, &NotFoundError{Resource: "user"}
	}

	page, limit = models.NormalizePage(page, limit, 20, models.MaxReadingHistory)
	total := int64(len(user.ReadingHistory))
	start := (page - 1) * limit
	if start > len(user.ReadingHistory) {
		start = len(user.ReadingHistory)
	}
	end := start + limit
	if end > len(user.ReadingHistory) {
		end = len(user.ReadingHistory)
	}

	return user.ReadingHistory[start:end], models.NewPagination(page, limit, total), nil
}

// AdminList returns accounts matching the filter
func (s *userService) AdminList(ctx context.Context, f repository.UserListFilter) ([]*models.User, models.Pagination, error) {
	users, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}
	return users, models.NewPagination(f.Page, f.Limit, total), nil
}

// SetRole changes an account's role
func (s *userService) SetRole(ctx context.Context, userID primitive.ObjectID, role string) (*models.User, error) {
	if !models.ValidRoles[role] {
		return nil, &ValidationError{Field: "role", Message: "role must be user or admin"}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.log.Info().Str("user_id", userID.Hex()).Str("role", role).Msg("User role changed")
	return user, nil
}

// SetActive enables or disables an account
func (s *userService) SetActive(ctx context.Context, userID primitive.ObjectID, active bool) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
