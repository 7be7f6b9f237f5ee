package service_test

import (
	"context"
	"testing"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/service"
)

func TestStoryCreateAllocatesSlug(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)

	story, err := h.services.Story.Create(ctx, service.StoryCreateInput{
		Title:       "Mùa Hè Năm Ấy",
		Author:      "Tác Giả",
		Description: "một câu chuyện mùa hè",
	}, user)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if story.Slug != "mua-he-nam-ay" {
		t.Errorf("slug = %q, want %q", story.Slug, "mua-he-nam-ay")
	}
	if story.Status != models.StatusOngoing {
		t.Errorf("default status = %q, want %q", story.Status, models.StatusOngoing)
	}
	if !story.IsPublished {
		t.Error("new story should be published")
	}
}

func TestStoryCreateDuplicateTitle(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)
	h.seedStory(t, "Mùa Hè Năm Ấy", "mua-he-nam-ay", user)

	_, err := h.services.Story.Create(ctx, service.StoryCreateInput{
		Title:       "Mùa Hè Năm Ấy",
		Author:      "Tác Giả",
		Description: "desc",
	}, user)
	if !service.IsDuplicate(err) {
		t.Errorf("duplicate title: got %v, want duplicate error", err)
	}
}

func TestStoryUpdateReslugsOnTitleChange(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)
	story := h.seedStory(t, "Tên Cũ", "ten-cu", user)

	title := "Tên Hoàn Toàn Mới"
	updated, err := h.services.Story.Update(ctx, story.ID, service.StoryUpdateInput{Title: &title}, user)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "ten-hoan-toan-moi" {
		t.Errorf("slug after title change = %q, want %q", updated.Slug, "ten-hoan-toan-moi")
	}
}

func TestStoryUpdateKeepsSlugOverride(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)
	story := h.seedStory(t, "Tên Cũ", "ten-cu", user)

	title := "Tên Mới"
	slug := "ten-tuy-chinh"
	updated, err := h.services.Story.Update(ctx, story.ID, service.StoryUpdateInput{Title: &title, Slug: &slug}, user)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "ten-tuy-chinh" {
		t.Errorf("explicit slug ignored: got %q", updated.Slug)
	}
}

func TestStoryUpdatePermission(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	stranger := h.seedUser(t, "stranger", models.RoleUser)
	story := h.seedStory(t, "Tên Cũ", "ten-cu", owner)

	title := "Chiếm đoạt"
	if _, err := h.services.Story.Update(ctx, story.ID, service.StoryUpdateInput{Title: &title}, stranger); !service.IsPermission(err) {
		t.Errorf("stranger update: got %v, want permission error", err)
	}
}

func TestStoryGetBySlugBumpsViews(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", user)
	h.seedChapter(t, story, 1)
	h.seedChapter(t, story, 2)

	detail, err := h.services.Story.GetBySlug(ctx, "ten-truyen", nil)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if detail.Story.ViewCount != 1 {
		t.Errorf("view count = %d, want 1", detail.Story.ViewCount)
	}
	if detail.ChapterCount != 2 {
		t.Errorf("chapter count = %d, want 2", detail.ChapterCount)
	}
	if detail.IsBookmarked {
		t.Error("anonymous viewer cannot have a bookmark")
	}
}

func TestStoryGetBySlugHidesUnpublished(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", user)
	story.IsPublished = false
	if err := h.storyRepo.Update(ctx, story); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := h.services.Story.GetBySlug(ctx, "ten-truyen", nil); !service.IsNotFound(err) {
		t.Errorf("unpublished story: got %v, want not-found", err)
	}
}

func TestStorySetPublishedAdminOnly(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	admin := h.seedUser(t, "admin", models.RoleAdmin)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)

	if _, err := h.services.Story.SetPublished(ctx, story.ID, false, owner); !service.IsPermission(err) {
		t.Errorf("owner publish toggle: got %v, want permission error", err)
	}
	updated, err := h.services.Story.SetPublished(ctx, story.ID, false, admin)
	if err != nil {
		t.Fatalf("admin publish toggle: %v", err)
	}
	if updated.IsPublished {
		t.Error("story still published after admin unpublish")
	}
}

func TestStoryStatistics(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	a := h.seedUser(t, "a", models.RoleUser)
	h.seedUser(t, "b", models.RoleUser)

	s1 := h.seedStory(t, "Một", "mot", a)
	s2 := h.seedStory(t, "Hai", "hai", a)
	s1.ViewCount = 10
	s2.ViewCount = 5
	s2.Author = "Người Khác"
	if err := h.storyRepo.Update(ctx, s1); err != nil {
		t.Fatal(err)
	}
	if err := h.storyRepo.Update(ctx, s2); err != nil {
		t.Fatal(err)
	}

	stats, err := h.services.Story.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.Stories != 2 {
		t.Errorf("stories = %d, want 2", stats.Stories)
	}
	if stats.Authors != 2 {
		t.Errorf("authors = %d, want 2", stats.Authors)
	}
	if stats.Readers != 2 {
		t.Errorf("readers = %d, want 2", stats.Readers)
	}
	if stats.TotalViews != 15 {
		t.Errorf("total views = %d, want 15", stats.TotalViews)
	}
}

func TestStoryUpdateSlugOverrideConflict(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "author", models.RoleUser)
	h.seedStory(t, "Truyện Một", "truyen-mot", user)
	story := h.seedStory(t, "Truyện Hai", "truyen-hai", user)

	slug := "truyen-mot"
	if _, err := h.services.Story.Update(ctx, story.ID, service.StoryUpdateInput{Slug: &slug}, user); !service.IsDuplicate(err) {
		t.Fatalf("colliding slug override: got %v, want duplicate error", err)
	}

	// a story keeps its own slug through an explicit no-op override
	own := "truyen-hai"
	updated, err := h.services.Story.Update(ctx, story.ID, service.StoryUpdateInput{Slug: &own}, user)
	if err != nil {
		t.Fatalf("Update with own slug: %v", err)
	}
	if updated.Slug != "truyen-hai" {
		t.Errorf("slug = %q, want %q", updated.Slug, "truyen-hai")
	}
}
