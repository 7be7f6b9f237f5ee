package mocks

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
)

// MockUserRepository is an in-memory implementation of UserRepository
type MockUserRepository struct {
	Users       map[primitive.ObjectID]*models.User
	CreateError error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[primitive.ObjectID]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.Users[id], nil
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	for _, u := range m.Users {
		if u.Username == login || u.Email == strings.ToLower(login) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	for _, u := range m.Users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	user.UpdatedAt = time.Now()
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, f repository.UserListFilter) ([]*models.User, int64, error) {
	var users []*models.User
	for _, u := range m.Users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(u.Username, f.Search) && !strings.Contains(u.Email, f.Search) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return pageOf(users, f.Page, f.Limit), int64(len(users)), nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.Users)), nil
}

// MockStoryRepository is an in-memory implementation of StoryRepository
type MockStoryRepository struct {
	Stories     map[primitive.ObjectID]*models.Story
	CreateError error
	SlugError   error
}

func NewMockStoryRepository() *MockStoryRepository {
	return &MockStoryRepository{Stories: make(map[primitive.ObjectID]*models.Story)}
}

func (m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	story.CreatedAt = time.Now()
	story.UpdatedAt = story.CreatedAt
	m.Stories[story.ID] = story
	return nil
}

func (m *MockStoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error) {
	return m.Stories[id], nil
}

func (m *MockStoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Story, error) {
	for _, s := range m.Stories {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockStoryRepository) SlugTaken(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	if m.SlugError != nil {
		return false, m.SlugError
	}
	for _, s := range m.Stories {
		if s.Slug == slug && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStoryRepository) TitleExists(ctx context.Context, title string) (bool, error) {
	for _, s := range m.Stories {
		if strings.EqualFold(s.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStoryRepository) Update(ctx context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now()
	m.Stories[story.ID] = story
	return nil
}

func (m *MockStoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.Stories, id)
	return nil
}

func (m *MockStoryRepository) List(ctx context.Context, f repository.StoryListFilter) ([]*models.Story, int64, error) {
	var stories []*models.Story
	for _, s := range m.Stories {
		if f.IsPublished != nil && s.IsPublished != *f.IsPublished {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Search)) {
			continue
		}
		if len(f.Tags) > 0 && !hasAnyTag(s.Tags, f.Tags) {
			continue
		}
		stories = append(stories, s)
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].UpdatedAt.After(stories[j].UpdatedAt) })
	return pageOf(stories, f.Page, f.Limit), int64(len(stories)), nil
}

func (m *MockStoryRepository) Featured(ctx context.Context, limit int) ([]*models.Story, error) {
	var stories []*models.Story
	for _, s := range m.Stories {
		if s.Featured && s.IsPublished {
			stories = append(stories, s)
		}
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].FeaturedOrder < stories[j].FeaturedOrder })
	if limit > 0 && len(stories) > limit {
		stories = stories[:limit]
	}
	return stories, nil
}

func (m *MockStoryRepository) Trending(ctx context.Context, since time.Time, limit int) ([]*models.Story, error) {
	var stories []*models.Story
	for _, s := range m.Stories {
		if s.IsPublished && s.UpdatedAt.After(since) {
			stories = append(stories, s)
		}
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].ViewCount > stories[j].ViewCount })
	if limit > 0 && len(stories) > limit {
		stories = stories[:limit]
	}
	return stories, nil
}

func (m *MockStoryRepository) IncViewCount(ctx context.Context, id primitive.ObjectID) error {
	if s, ok := m.Stories[id]; ok {
		s.ViewCount++
	}
	return nil
}

func (m *MockStoryRepository) AdjustBookmarkCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	if s, ok := m.Stories[id]; ok {
		s.BookmarkCount += int64(delta)
		if s.BookmarkCount < 0 {
			s.BookmarkCount = 0
		}
	}
	return nil
}

func (m *MockStoryRepository) AdjustTotalChapters(ctx context.Context, id primitive.ObjectID, delta int, updatedBy primitive.ObjectID) error {
	if s, ok := m.Stories[id]; ok {
		s.TotalChapters += delta
		if s.TotalChapters < 0 {
			s.TotalChapters = 0
		}
		s.LastUpdatedBy = updatedBy
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MockStoryRepository) CountPublished(ctx context.Context) (int64, error) {
	var n int64
	for _, s := range m.Stories {
		if s.IsPublished {
			n++
		}
	}
	return n, nil
}

func (m *MockStoryRepository) DistinctAuthors(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var authors []string
	for _, s := range m.Stories {
		if !seen[s.Author] {
			seen[s.Author] = true
			authors = append(authors, s.Author)
		}
	}
	return authors, nil
}

func (m *MockStoryRepository) TotalViews(ctx context.Context) (int64, error) {
	var total int64
	for _, s := range m.Stories {
		total += s.ViewCount
	}
	return total, nil
}

// MockChapterRepository is an in-memory implementation of ChapterRepository
type MockChapterRepository struct {
	Chapters    map[primitive.ObjectID]*models.Chapter
	CreateError error
}

func NewMockChapterRepository() *MockChapterRepository {
	return &MockChapterRepository{Chapters: make(map[primitive.ObjectID]*models.Chapter)}
}

func (m *MockChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if chapter.ID.IsZero() {
		chapter.ID = primitive.NewObjectID()
	}
	chapter.CreatedAt = time.Now()
	chapter.UpdatedAt = chapter.CreatedAt
	m.Chapters[chapter.ID] = chapter
	return nil
}

func (m *MockChapterRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chapter, error) {
	return m.Chapters[id], nil
}

func (m *MockChapterRepository) GetByStoryAndNumber(ctx context.Context, storyID primitive.ObjectID, number int) (*models.Chapter, error) {
	for _, c := range m.Chapters {
		if c.StoryID == storyID && c.Number == number {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockChapterRepository) NumberExists(ctx context.Context, storyID primitive.ObjectID, number int) (bool, error) {
	c, _ := m.GetByStoryAndNumber(ctx, storyID, number)
	return c != nil, nil
}

func (m *MockChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	chapter.UpdatedAt = time.Now()
	m.Chapters[chapter.ID] = chapter
	return nil
}

func (m *MockChapterRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.Chapters, id)
	return nil
}

func (m *MockChapterRepository) ListByStory(ctx context.Context, storyID primitive.ObjectID, publishedOnly bool, page, limit int) ([]*models.Chapter, int64, error) {
	var chapters []*models.Chapter
	for _, c := range m.Chapters {
		if c.StoryID != storyID {
			continue
		}
		if publishedOnly && !c.IsPublished {
			continue
		}
		chapters = append(chapters, c)
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return pageOf(chapters, page, limit), int64(len(chapters)), nil
}

func (m *MockChapterRepository) Latest(ctx context.Context, limit int) ([]*models.Chapter, error) {
	var chapters []*models.Chapter
	for _, c := range m.Chapters {
		if c.IsPublished {
			chapters = append(chapters, c)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].CreatedAt.After(chapters[j].CreatedAt) })
	if limit > 0 && len(chapters) > limit {
		chapters = chapters[:limit]
	}
	return chapters, nil
}

func (m *MockChapterRepository) AdminList(ctx context.Context, f repository.ChapterAdminFilter) ([]*models.Chapter, int64, error) {
	var chapters []*models.Chapter
	for _, c := range m.Chapters {
		if f.StoryID != nil && c.StoryID != *f.StoryID {
			continue
		}
		if f.IsPublished != nil && c.IsPublished != *f.IsPublished {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Search)) {
			continue
		}
		chapters = append(chapters, c)
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].CreatedAt.After(chapters[j].CreatedAt) })
	return pageOf(chapters, f.Page, f.Limit), int64(len(chapters)), nil
}

func (m *MockChapterRepository) CountByStory(ctx context.Context, storyID primitive.ObjectID, publishedOnly bool) (int64, error) {
	var n int64
	for _, c := range m.Chapters {
		if c.StoryID == storyID && (!publishedOnly || c.IsPublished) {
			n++
		}
	}
	return n, nil
}

func (m *MockChapterRepository) IncViewCount(ctx context.Context, id primitive.ObjectID) error {
	if c, ok := m.Chapters[id]; ok {
		c.ViewCount++
	}
	return nil
}

func (m *MockChapterRepository) IncLikeCount(ctx context.Context, id primitive.ObjectID) (int64, error) {
	c, ok := m.Chapters[id]
	if !ok {
		return 0, nil
	}
	c.LikeCount++
	return c.LikeCount, nil
}

// MockCommentRepository is an in-memory implementation of CommentRepository
type MockCommentRepository struct {
	Comments    map[primitive.ObjectID]*models.Comment
	CreateError error
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{Comments: make(map[primitive.ObjectID]*models.Comment)}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	m.Comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	return m.Comments[id], nil
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()
	m.Comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.Comments, id)
	return nil
}

func (m *MockCommentRepository) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	c, ok := m.Comments[id]
	if !ok {
		return false, 0, nil
	}
	if c.LikedBy(userID) {
		kept := c.Likes[:0]
		for _, l := range c.Likes {
			if l.UserID != userID {
				kept = append(kept, l)
			}
		}
		c.Likes = kept
		c.LikeCount = len(c.Likes)
		return false, c.LikeCount, nil
	}
	c.Likes = append(c.Likes, models.CommentLike{UserID: userID, LikedAt: time.Now()})
	c.LikeCount = len(c.Likes)
	return true, c.LikeCount, nil
}

func (m *MockCommentRepository) AddReport(ctx context.Context, id, userID primitive.ObjectID, reason string) (bool, error) {
	c, ok := m.Comments[id]
	if !ok {
		return false, nil
	}
	if c.ReportedBy(userID) {
		return false, nil
	}
	c.Reports = append(c.Reports, models.CommentReport{UserID: userID, Reason: reason, ReportedAt: time.Now()})
	return true, nil
}

func (m *MockCommentRepository) CountReplies(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	var n int64
	for _, c := range m.Comments {
		if c.ParentID != nil && *c.ParentID == parentID && !c.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) SetReplyCount(ctx context.Context, parentID primitive.ObjectID, count int) error {
	if c, ok := m.Comments[parentID]; ok {
		c.ReplyCount = count
	}
	return nil
}

func (m *MockCommentRepository) ListTopLevel(ctx context.Context, f repository.CommentListFilter) ([]*models.Comment, int64, error) {
	var comments []*models.Comment
	for _, c := range m.Comments {
		if c.ParentID != nil || c.IsDeleted || !c.IsApproved {
			continue
		}
		if f.StoryID != nil && (c.StoryID == nil || *c.StoryID != *f.StoryID) {
			continue
		}
		if f.ChapterID != nil && (c.ChapterID == nil || *c.ChapterID != *f.ChapterID) {
			continue
		}
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return pageOf(comments, f.Page, f.Limit), int64(len(comments)), nil
}

func (m *MockCommentRepository) ListReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]*models.Comment, error) {
	wanted := make(map[primitive.ObjectID]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}
	var replies []*models.Comment
	for _, c := range m.Comments {
		if c.ParentID != nil && wanted[*c.ParentID] && !c.IsDeleted {
			replies = append(replies, c)
		}
	}
	sort.Slice(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	return replies, nil
}

func (m *MockCommentRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Comment, int64, error) {
	var comments []*models.Comment
	for _, c := range m.Comments {
		if c.UserID == userID && !c.IsDeleted {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return pageOf(comments, page, limit), int64(len(comments)), nil
}

func (m *MockCommentRepository) Latest(ctx context.Context, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	for _, c := range m.Comments {
		if c.ParentID == nil && !c.IsDeleted {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (m *MockCommentRepository) AdminList(ctx context.Context, f repository.CommentAdminFilter) ([]*models.Comment, int64, error) {
	var comments []*models.Comment
	for _, c := range m.Comments {
		if f.IsApproved != nil && c.IsApproved != *f.IsApproved {
			continue
		}
		if f.IsDeleted != nil && c.IsDeleted != *f.IsDeleted {
			continue
		}
		if f.HasReports && len(c.Reports) == 0 {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Content), strings.ToLower(f.Search)) {
			continue
		}
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return pageOf(comments, f.Page, f.Limit), int64(len(comments)), nil
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func pageOf[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
