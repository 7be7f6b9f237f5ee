package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/config"
	"github.com/windy-novel-api/internal/mocks"
	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
	"github.com/windy-novel-api/internal/service"
)

type testHarness struct {
	services    *service.Services
	userRepo    *mocks.MockUserRepository
	storyRepo   *mocks.MockStoryRepository
	chapterRepo *mocks.MockChapterRepository
	commentRepo *mocks.MockCommentRepository
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	userRepo := mocks.NewMockUserRepository()
	storyRepo := mocks.NewMockStoryRepository()
	chapterRepo := mocks.NewMockChapterRepository()
	commentRepo := mocks.NewMockCommentRepository()

	repos := &repository.Repositories{
		User:    userRepo,
		Story:   storyRepo,
		Chapter: chapterRepo,
		Comment: commentRepo,
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
	}

	log := zerolog.Nop()
	services := service.NewServices(repos, cfg, log)

	return &testHarness{
		services:    services,
		userRepo:    userRepo,
		storyRepo:   storyRepo,
		chapterRepo: chapterRepo,
		commentRepo: commentRepo,
	}
}

func (h *testHarness) seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "$2a$12$unusable",
		Role:     role,
		IsActive: true,
	}
	if err := h.userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (h *testHarness) seedStory(t *testing.T, title, slug string, owner *models.User) *models.Story {
	t.Helper()
	story := &models.Story{
		Title:       title,
		Slug:        slug,
		Author:      "Tác Giả",
		Description: "desc",
		Status:      models.StatusOngoing,
		IsPublished: true,
		CreatedBy:   owner.ID,
	}
	if err := h.storyRepo.Create(context.Background(), story); err != nil {
		t.Fatalf("seed story: %v", err)
	}
	return story
}

func (h *testHarness) seedChapter(t *testing.T, story *models.Story, number int) *models.Chapter {
	t.Helper()
	now := time.Now()
	chapter := &models.Chapter{
		StoryID:     story.ID,
		Number:      number,
		Title:       "Chương test",
		Content:     "nội dung chương",
		WordCount:   3,
		IsPublished: true,
		PublishedAt: &now,
		CreatedBy:   story.CreatedBy,
	}
	if err := h.chapterRepo.Create(context.Background(), chapter); err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	return chapter
}

func (h *testHarness) seedComment(t *testing.T, story *models.Story, author *models.User, parent *primitive.ObjectID) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		StoryID:    &story.ID,
		UserID:     author.ID,
		Content:    "bình luận",
		ParentID:   parent,
		IsReply:    parent != nil,
		IsApproved: true,
	}
	if err := h.commentRepo.Create(context.Background(), comment); err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return comment
}
