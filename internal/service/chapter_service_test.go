package service_test

import (
	"context"
	"testing"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/service"
)

func TestChapterCreateCountsWords(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)

	chapter, err := h.services.Chapter.Create(ctx, service.ChapterCreateInput{
		StoryID: story.ID,
		Number:  1,
		Title:   "Chương Một",
		Content: "một hai ba bốn năm",
	}, owner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if chapter.WordCount != 5 {
		t.Errorf("word count = %d, want 5", chapter.WordCount)
	}
	if chapter.PublishedAt == nil {
		t.Error("PublishedAt not set on create")
	}

	stored, _ := h.storyRepo.GetByID(ctx, story.ID)
	if stored.TotalChapters != 1 {
		t.Errorf("story total chapters = %d, want 1", stored.TotalChapters)
	}
}

func TestChapterCreateDuplicateNumber(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	h.seedChapter(t, story, 1)

	_, err := h.services.Chapter.Create(ctx, service.ChapterCreateInput{
		StoryID: story.ID,
		Number:  1,
		Title:   "Trùng số",
		Content: "nội dung",
	}, owner)
	if !service.IsDuplicate(err) {
		t.Errorf("duplicate number: got %v, want duplicate error", err)
	}
}

func TestChapterCreatePermission(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	stranger := h.seedUser(t, "stranger", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)

	_, err := h.services.Chapter.Create(ctx, service.ChapterCreateInput{
		StoryID: story.ID,
		Number:  1,
		Title:   "Chương lậu",
		Content: "nội dung",
	}, stranger)
	if !service.IsPermission(err) {
		t.Errorf("stranger create: got %v, want permission error", err)
	}
}

func TestChapterGetByNumberNeighbours(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	h.seedChapter(t, story, 1)
	h.seedChapter(t, story, 2)
	h.seedChapter(t, story, 3)

	detail, err := h.services.Chapter.GetByNumber(ctx, story.ID, 2, nil)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if detail.PrevNumber != 1 || detail.NextNumber != 3 {
		t.Errorf("neighbours = (%d, %d), want (1, 3)", detail.PrevNumber, detail.NextNumber)
	}
	if detail.Chapter.ViewCount != 1 {
		t.Errorf("view count = %d, want 1", detail.Chapter.ViewCount)
	}

	first, err := h.services.Chapter.GetByNumber(ctx, story.ID, 1, nil)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if first.PrevNumber != 0 {
		t.Errorf("first chapter PrevNumber = %d, want 0", first.PrevNumber)
	}
}

func TestChapterUnpublishedHiddenFromReaders(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	reader := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	chapter := h.seedChapter(t, story, 1)
	chapter.IsPublished = false
	if err := h.chapterRepo.Update(ctx, chapter); err != nil {
		t.Fatal(err)
	}

	if _, err := h.services.Chapter.GetByNumber(ctx, story.ID, 1, reader); !service.IsNotFound(err) {
		t.Errorf("reader on unpublished chapter: got %v, want not-found", err)
	}
	if _, err := h.services.Chapter.GetByNumber(ctx, story.ID, 1, owner); err != nil {
		t.Errorf("owner on unpublished chapter: %v", err)
	}

	listing, err := h.services.Chapter.ListByStory(ctx, story.ID, reader, 1, 50)
	if err != nil {
		t.Fatalf("ListByStory: %v", err)
	}
	if len(listing.Chapters) != 0 {
		t.Errorf("reader sees %d chapters, want 0", len(listing.Chapters))
	}

	ownerListing, err := h.services.Chapter.ListByStory(ctx, story.ID, owner, 1, 50)
	if err != nil {
		t.Fatalf("ListByStory: %v", err)
	}
	if len(ownerListing.Chapters) != 1 {
		t.Errorf("owner sees %d chapters, want 1", len(ownerListing.Chapters))
	}
}

func TestChapterRateLastWriteWins(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	reader := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	chapter := h.seedChapter(t, story, 1)

	if _, err := h.services.Chapter.Rate(ctx, chapter.ID, reader.ID, 5); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	summary, err := h.services.Chapter.Rate(ctx, chapter.ID, reader.ID, 3)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if summary.Count != 1 {
		t.Errorf("rating count after re-rate = %d, want 1", summary.Count)
	}
	if summary.Average != 3 {
		t.Errorf("rating average after re-rate = %v, want 3", summary.Average)
	}

	got, err := h.services.Chapter.GetUserRating(ctx, chapter.ID, reader.ID)
	if err != nil {
		t.Fatalf("GetUserRating: %v", err)
	}
	if got != 3 {
		t.Errorf("user rating = %d, want 3", got)
	}
}

func TestChapterRateOutOfRange(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	chapter := h.seedChapter(t, story, 1)

	if _, err := h.services.Chapter.Rate(ctx, chapter.ID, owner.ID, 0); !service.IsValidation(err) {
		t.Errorf("rating 0: got %v, want validation error", err)
	}
	if _, err := h.services.Chapter.Rate(ctx, chapter.ID, owner.ID, 6); !service.IsValidation(err) {
		t.Errorf("rating 6: got %v, want validation error", err)
	}
}

func TestChapterLikeIncrements(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	chapter := h.seedChapter(t, story, 1)

	// Likes are anonymous and stack without bound
	for want := int64(1); want <= 3; want++ {
		got, err := h.services.Chapter.Like(ctx, chapter.ID)
		if err != nil {
			t.Fatalf("Like: %v", err)
		}
		if got != want {
			t.Errorf("like count = %d, want %d", got, want)
		}
	}
}

func TestChapterDeleteAdjustsStoryTotal(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	owner := h.seedUser(t, "owner", models.RoleUser)
	story := h.seedStory(t, "Tên Truyện", "ten-truyen", owner)
	story.TotalChapters = 1
	if err := h.storyRepo.Update(ctx, story); err != nil {
		t.Fatal(err)
	}
	chapter := h.seedChapter(t, story, 1)

	if err := h.services.Chapter.Delete(ctx, chapter.ID, owner); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stored, _ := h.storyRepo.GetByID(ctx, story.ID)
	if stored.TotalChapters != 0 {
		t.Errorf("story total chapters after delete = %d, want 0", stored.TotalChapters)
	}
}
