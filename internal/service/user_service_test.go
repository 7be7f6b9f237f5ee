package service_test

import (
	"context"
	"testing"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/service"
)

func TestBookmarkAddRemove(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", user)

	if err := h.services.User.AddBookmark(ctx, user.ID, story.ID); err != nil {
		t.Fatalf("AddBookmark: %v", err)
	}
	// adding twice is a no-op
	if err := h.services.User.AddBookmark(ctx, user.ID, story.ID); err != nil {
		t.Fatalf("AddBookmark again: %v", err)
	}

	stored, _ := h.storyRepo.GetByID(ctx, story.ID)
	if stored.BookmarkCount != 1 {
		t.Errorf("bookmark count = %d, want 1", stored.BookmarkCount)
	}

	if err := h.services.User.RemoveBookmark(ctx, user.ID, story.ID); err != nil {
		t.Fatalf("RemoveBookmark: %v", err)
	}
	// removing twice must not push the counter below zero
	if err := h.services.User.RemoveBookmark(ctx, user.ID, story.ID); err != nil {
		t.Fatalf("RemoveBookmark again: %v", err)
	}

	stored, _ = h.storyRepo.GetByID(ctx, story.ID)
	if stored.BookmarkCount != 0 {
		t.Errorf("bookmark count after removal = %d, want 0", stored.BookmarkCount)
	}
}

func TestBookmarkUnpublishedStory(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", user)
	story.IsPublished = false
	if err := h.storyRepo.Update(ctx, story); err != nil {
		t.Fatal(err)
	}

	if err := h.services.User.AddBookmark(ctx, user.ID, story.ID); !service.IsNotFound(err) {
		t.Errorf("bookmarking unpublished story: got %v, want not-found", err)
	}
}

func TestReadingHistoryUpsert(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", user)

	if err := h.services.User.RecordReading(ctx, user.ID, story.ID, 1, 50); err != nil {
		t.Fatalf("RecordReading: %v", err)
	}
	if err := h.services.User.RecordReading(ctx, user.ID, story.ID, 2, 10); err != nil {
		t.Fatalf("RecordReading: %v", err)
	}

	stored, _ := h.userRepo.GetByID(ctx, user.ID)
	if len(stored.ReadingHistory) != 1 {
		t.Fatalf("history entries = %d, want 1 per story", len(stored.ReadingHistory))
	}
	if stored.ReadingHistory[0].ChapterNumber != 2 || stored.ReadingHistory[0].Progress != 10 {
		t.Errorf("history entry = %+v, want chapter 2 at 10%%", stored.ReadingHistory[0])
	}
}

func TestReadingHistoryCapped(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)

	var lastStory *models.Story
	for i := 0; i < models.MaxReadingHistory+10; i++ {
		story := h.seedStory(t, "Truyện", "", user)
		if err := h.services.User.RecordReading(ctx, user.ID, story.ID, 1, 0); err != nil {
			t.Fatalf("RecordReading %d: %v", i, err)
		}
		lastStory = story
	}

	stored, _ := h.userRepo.GetByID(ctx, user.ID)
	if len(stored.ReadingHistory) != models.MaxReadingHistory {
		t.Errorf("history length = %d, want %d", len(stored.ReadingHistory), models.MaxReadingHistory)
	}
	// newest entry survives the cap
	if stored.ReadingHistory[0].StoryID != lastStory.ID {
		t.Error("most recent entry evicted instead of the oldest")
	}
}

func TestReadingHistoryValidation(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", user)

	if err := h.services.User.RecordReading(ctx, user.ID, story.ID, 0, 50); !service.IsValidation(err) {
		t.Errorf("chapter 0: got %v, want validation error", err)
	}
	if err := h.services.User.RecordReading(ctx, user.ID, story.ID, 1, 101); !service.IsValidation(err) {
		t.Errorf("progress 101: got %v, want validation error", err)
	}
}

func TestSetRoleValidation(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)

	if _, err := h.services.User.SetRole(ctx, user.ID, "superuser"); !service.IsValidation(err) {
		t.Errorf("unknown role: got %v, want validation error", err)
	}
	updated, err := h.services.User.SetRole(ctx, user.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if !updated.IsAdmin() {
		t.Error("user not admin after role change")
	}
}

func TestUpdateProfileLimits(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'a'
	}
	bio := string(long)
	if _, err := h.services.User.UpdateProfile(ctx, user.ID, service.ProfileUpdateInput{Bio: &bio}); !service.IsValidation(err) {
		t.Errorf("overlong bio: got %v, want validation error", err)
	}

	name := "Người Đọc"
	updated, err := h.services.User.UpdateProfile(ctx, user.ID, service.ProfileUpdateInput{DisplayName: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Profile.DisplayName != name {
		t.Errorf("display name = %q, want %q", updated.Profile.DisplayName, name)
	}
}
