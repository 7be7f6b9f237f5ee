package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/service"
)

func TestCommentCreateAndReplyCount(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)

	parent, err := h.services.Comment.Create(ctx, service.CommentCreateInput{
		Content: "bình luận đầu tiên",
		UserID:  user.ID,
		StoryID: &story.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if parent.IsReply {
		t.Error("top-level comment marked as reply")
	}
	if !parent.IsApproved {
		t.Error("new comment should be approved by default")
	}

	for i := 0; i < 3; i++ {
		if _, err := h.services.Comment.Create(ctx, service.CommentCreateInput{
			Content:  "trả lời",
			UserID:   user.ID,
			StoryID:  &story.ID,
			ParentID: &parent.ID,
		}); err != nil {
			t.Fatalf("Create reply %d: %v", i, err)
		}
	}

	stored, _ := h.commentRepo.GetByID(ctx, parent.ID)
	if stored.ReplyCount != 3 {
		t.Errorf("reply count = %d, want 3", stored.ReplyCount)
	}
}

func TestCommentCreateRejectsDeletedParent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	parent := h.seedComment(t, story, user, nil)

	if _, err := h.services.Comment.SoftDelete(ctx, parent.ID, user); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	_, err := h.services.Comment.Create(ctx, service.CommentCreateInput{
		Content:  "trả lời mồ côi",
		UserID:   user.ID,
		StoryID:  &story.ID,
		ParentID: &parent.ID,
	})
	if !service.IsNotFound(err) {
		t.Errorf("replying to a deleted parent: got %v, want not-found", err)
	}
}

func TestCommentCreateRequiresScope(t *testing.T) {
	h := newTestHarness(t)
	user := h.seedUser(t, "reader", models.RoleUser)

	_, err := h.services.Comment.Create(context.Background(), service.CommentCreateInput{
		Content: "không có phạm vi",
		UserID:  user.ID,
	})
	if !service.IsValidation(err) {
		t.Errorf("comment without story or chapter: got %v, want validation error", err)
	}
}

func TestCommentSoftDeleteTombstone(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	parent := h.seedComment(t, story, user, nil)
	reply := h.seedComment(t, story, user, &parent.ID)
	if err := h.services.Comment.RecomputeReplyCount(ctx, parent.ID); err != nil {
		t.Fatalf("RecomputeReplyCount: %v", err)
	}

	deleted, err := h.services.Comment.SoftDelete(ctx, parent.ID, user)
	if err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if deleted.Content != models.DeletedCommentContent {
		t.Errorf("tombstone content = %q, want %q", deleted.Content, models.DeletedCommentContent)
	}
	if !deleted.IsDeleted || deleted.DeletedAt == nil {
		t.Error("tombstone flags not set")
	}

	// The child survives its parent
	storedReply, _ := h.commentRepo.GetByID(ctx, reply.ID)
	if storedReply.IsDeleted {
		t.Error("deleting a parent must not delete its replies")
	}
}

func TestCommentSoftDeleteReplyRecountsParent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	parent := h.seedComment(t, story, user, nil)
	reply := h.seedComment(t, story, user, &parent.ID)
	if err := h.services.Comment.RecomputeReplyCount(ctx, parent.ID); err != nil {
		t.Fatalf("RecomputeReplyCount: %v", err)
	}

	if _, err := h.services.Comment.SoftDelete(ctx, reply.ID, user); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	stored, _ := h.commentRepo.GetByID(ctx, parent.ID)
	if stored.ReplyCount != 0 {
		t.Errorf("reply count after deleting the only reply = %d, want 0", stored.ReplyCount)
	}
}

func TestCommentEditPermissions(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	author := h.seedUser(t, "author", models.RoleUser)
	stranger := h.seedUser(t, "stranger", models.RoleUser)
	admin := h.seedUser(t, "admin", models.RoleAdmin)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", author)
	comment := h.seedComment(t, story, author, nil)

	if _, err := h.services.Comment.Edit(ctx, comment.ID, "sửa bởi người lạ", stranger); !service.IsPermission(err) {
		t.Errorf("stranger edit: got %v, want permission error", err)
	}
	if _, err := h.services.Comment.Edit(ctx, comment.ID, "sửa bởi admin", admin); err != nil {
		t.Errorf("admin edit: %v", err)
	}

	edited, err := h.services.Comment.Edit(ctx, comment.ID, "sửa bởi tác giả", author)
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if edited.EditedAt == nil {
		t.Error("EditedAt not set after edit")
	}
}

func TestCommentToggleLikeSelfInverse(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	comment := h.seedComment(t, story, user, nil)

	first, err := h.services.Comment.ToggleLike(ctx, comment.ID, user.ID)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if !first.Liked || first.LikeCount != 1 {
		t.Errorf("first toggle = %+v, want liked with count 1", first)
	}

	second, err := h.services.Comment.ToggleLike(ctx, comment.ID, user.ID)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if second.Liked || second.LikeCount != 0 {
		t.Errorf("second toggle = %+v, want unliked with count 0", second)
	}
}

func TestCommentReportDuplicateRejected(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	comment := h.seedComment(t, story, user, nil)

	if _, err := h.services.Comment.Report(ctx, comment.ID, user.ID, "spam"); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if _, err := h.services.Comment.Report(ctx, comment.ID, user.ID, "spam"); !service.IsDuplicate(err) {
		t.Errorf("duplicate report: got %v, want duplicate error", err)
	}
	if _, err := h.services.Comment.Report(ctx, comment.ID, user.ID, "nonsense"); !service.IsValidation(err) {
		t.Errorf("unknown reason: got %v, want validation error", err)
	}
}

func TestCommentListJoinsReplies(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	parent := h.seedComment(t, story, user, nil)
	h.seedComment(t, story, user, &parent.ID)
	h.seedComment(t, story, user, &parent.ID)

	if _, err := h.services.Comment.ToggleLike(ctx, parent.ID, user.ID); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	page, err := h.services.Comment.ListForStory(ctx, story.ID, service.ListParams{Page: 1, Limit: 20, Viewer: user})
	if err != nil {
		t.Fatalf("ListForStory: %v", err)
	}
	if len(page.Comments) != 1 {
		t.Fatalf("top-level comments = %d, want 1", len(page.Comments))
	}
	top := page.Comments[0]
	if len(top.Replies) != 2 {
		t.Errorf("joined replies = %d, want 2", len(top.Replies))
	}
	if !top.IsLiked {
		t.Error("viewer's like not reflected in listing")
	}
}

func TestCommentRecomputeIdempotent(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	parent := h.seedComment(t, story, user, nil)
	h.seedComment(t, story, user, &parent.ID)

	for i := 0; i < 3; i++ {
		if err := h.services.Comment.RecomputeReplyCount(ctx, parent.ID); err != nil {
			t.Fatalf("RecomputeReplyCount: %v", err)
		}
	}

	stored, _ := h.commentRepo.GetByID(ctx, parent.ID)
	if stored.ReplyCount != 1 {
		t.Errorf("reply count after repeated recompute = %d, want 1", stored.ReplyCount)
	}
}

func TestCommentCreateRejectsNestedReply(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)
	parent := h.seedComment(t, story, user, nil)
	reply := h.seedComment(t, story, user, &parent.ID)

	_, err := h.services.Comment.Create(ctx, service.CommentCreateInput{
		Content:  "trả lời của trả lời",
		UserID:   user.ID,
		StoryID:  &story.ID,
		ParentID: &reply.ID,
	})
	if !service.IsValidation(err) {
		t.Fatalf("reply to a reply: err = %v, want validation error", err)
	}

	stored, _ := h.commentRepo.GetByID(ctx, reply.ID)
	if stored.ReplyCount != 0 {
		t.Errorf("reply gained a reply count of %d", stored.ReplyCount)
	}
}

func TestCommentLatest(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "reader", models.RoleUser)
	story := h.seedStory(t, "Truyện Một", "truyen-mot", user)

	older := h.seedComment(t, story, user, nil)
	newer := h.seedComment(t, story, user, nil)
	h.seedComment(t, story, user, &older.ID)
	deleted := h.seedComment(t, story, user, nil)
	if _, err := h.services.Comment.SoftDelete(ctx, deleted.ID, user); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	older.CreatedAt = time.Now().Add(-time.Hour)
	newer.CreatedAt = time.Now()

	comments, err := h.services.Comment.Latest(ctx, 10)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("len = %d, want 2 (replies and deleted excluded)", len(comments))
	}
	if comments[0].ID != newer.ID || comments[1].ID != older.ID {
		t.Error("latest comments not in newest-first order")
	}

	comments, err = h.services.Comment.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("Latest limit 1: %v", err)
	}
	if len(comments) != 1 {
		t.Errorf("len = %d, want 1", len(comments))
	}
}
