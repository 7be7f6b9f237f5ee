package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/database"
	"github.com/windy-novel-api/internal/models"
)

// Repositories return (nil, nil) when a document does not exist; callers
// translate that into a typed not-found error at the service boundary.

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// GetByLogin resolves a username or an email address
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, f UserListFilter) ([]*models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

// StoryRepository defines the interface for story data operations
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error)
	GetBySlug(ctx context.Context, slug string) (*models.Story, error)
	// SlugTaken probes for a conflicting slug, excluding the story being
	// updated (zero excludeID means no exclusion)
	SlugTaken(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	Update(ctx context.Context, story *models.Story) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f StoryListFilter) ([]*models.Story, int64, error)
	Featured(ctx context.Context, limit int) ([]*models.Story, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]*models.Story, error)
	IncViewCount(ctx context.Context, id primitive.ObjectID) error
	// AdjustBookmarkCount applies delta to bookmark_count with a zero floor
	AdjustBookmarkCount(ctx context.Context, id primitive.ObjectID, delta int) error
	AdjustTotalChapters(ctx context.Context, id primitive.ObjectID, delta int, updatedBy primitive.ObjectID) error
	CountPublished(ctx context.Context) (int64, error)
	DistinctAuthors(ctx context.Context) ([]string, error)
	TotalViews(ctx context.Context) (int64, error)
}

// ChapterRepository defines the interface for chapter data operations
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chapter, error)
	GetByStoryAndNumber(ctx context.Context, storyID primitive.ObjectID, number int) (*models.Chapter, error)
	NumberExists(ctx context.Context, storyID primitive.ObjectID, number int) (bool, error)
	Update(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByStory(ctx context.Context, storyID primitive.ObjectID, publishedOnly bool, page, limit int) ([]*models.Chapter, int64, error)
	Latest(ctx context.Context, limit int) ([]*models.Chapter, error)
	AdminList(ctx context.Context, f ChapterAdminFilter) ([]*models.Chapter, int64, error)
	CountByStory(ctx context.Context, storyID primitive.ObjectID, publishedOnly bool) (int64, error)
	IncViewCount(ctx context.Context, id primitive.ObjectID) error
	IncLikeCount(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ToggleLike atomically adds or removes the user's like and returns the
	// resulting state
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (liked bool, likeCount int, err error)
	// AddReport appends a report unless the user already reported the
	// comment; returns false on a duplicate
	AddReport(ctx context.Context, id, userID primitive.ObjectID, reason string) (bool, error)
	CountReplies(ctx context.Context, parentID primitive.ObjectID) (int64, error)
	SetReplyCount(ctx context.Context, parentID primitive.ObjectID, count int) error
	ListTopLevel(ctx context.Context, f CommentListFilter) ([]*models.Comment, int64, error)
	ListReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]*models.Comment, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Comment, int64, error)
	Latest(ctx context.Context, limit int) ([]*models.Comment, error)
	AdminList(ctx context.Context, f CommentAdminFilter) ([]*models.Comment, int64, error)
}

// UserListFilter narrows admin user listings
type UserListFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

// StoryListFilter narrows story listings
type StoryListFilter struct {
	Search      string
	Tags        []string
	Status      string
	IsPublished *bool
	SortBy      string
	SortAsc     bool
	Page        int
	Limit       int
}

// ChapterAdminFilter narrows admin chapter listings
type ChapterAdminFilter struct {
	StoryID     *primitive.ObjectID
	Search      string
	IsPublished *bool
	SortBy      string
	SortAsc     bool
	Page        int
	Limit       int
}

// CommentListFilter selects top-level comments for one scope
type CommentListFilter struct {
	StoryID   *primitive.ObjectID
	ChapterID *primitive.ObjectID
	SortBy    string
	SortAsc   bool
	Page      int
	Limit     int
}

// CommentAdminFilter narrows admin comment listings
type CommentAdminFilter struct {
	Search     string
	IsApproved *bool
	IsDeleted  *bool
	HasReports bool
	SortBy     string
	SortAsc    bool
	Page       int
	Limit      int
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Story   StoryRepository
	Chapter ChapterRepository
	Comment CommentRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Story:   NewStoryRepo(db),
		Chapter: NewChapterRepo(db),
		Comment: NewCommentRepo(db),
	}
}
