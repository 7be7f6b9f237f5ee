package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/windy-novel-api/internal/config"
	"github.com/windy-novel-api/internal/models"
	"github.com/windy-novel-api/internal/repository"
)

// AuthService defines the interface for account and token operations
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, login, password string) (*models.User, string, error)
	Refresh(ctx context.Context, user *models.User) (string, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error
	// VerifyToken resolves a bearer token to an active account
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// UserService defines the interface for profile, bookmark and history operations
type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileUpdateInput) (*models.User, error)
	AddBookmark(ctx context.Context, userID, storyID primitive.ObjectID) error
	RemoveBookmark(ctx context.Context, userID, storyID primitive.ObjectID) error
	ListBookmarks(ctx context.Context, userID primitive.ObjectID, page, limit int) (*BookmarkPage, error)
	RecordReading(ctx context.Context, userID, storyID primitive.ObjectID, chapterNumber, progress int) error
	ReadingHistory(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.ReadingEntry, models.Pagination, error)
	AdminList(ctx context.Context, f repository.UserListFilter) ([]*models.User, models.Pagination, error)
	SetRole(ctx context.Context, userID primitive.ObjectID, role string) (*models.User, error)
	SetActive(ctx context.Context, userID primitive.ObjectID, active bool) (*models.User, error)
}

// StoryService defines the interface for story catalog operations
type StoryService interface {
	List(ctx context.Context, f repository.StoryListFilter) ([]*models.Story, models.Pagination, error)
	Featured(ctx context.Context, limit int) ([]*models.Story, error)
	Trending(ctx context.Context, limit int) ([]*models.Story, error)
	Statistics(ctx context.Context) (*PlatformStatistics, error)
	GetBySlug(ctx context.Context, slug string, viewer *models.User) (*StoryDetail, error)
	Create(ctx context.Context, in StoryCreateInput, actor *models.User) (*models.Story, error)
	Update(ctx context.Context, id primitive.ObjectID, in StoryUpdateInput, actor *models.User) (*models.Story, error)
	SetPublished(ctx context.Context, id primitive.ObjectID, published bool, actor *models.User) (*models.Story, error)
	SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool, order int, actor *models.User) (*models.Story, error)
	Delete(ctx context.Context, id primitive.ObjectID, actor *models.User) error
	AdminList(ctx context.Context, f repository.StoryListFilter) ([]*models.Story, models.Pagination, error)
}

// ChapterService defines the interface for chapter operations
type ChapterService interface {
	ListByStory(ctx context.Context, storyID primitive.ObjectID, viewer *models.User, page, limit int) (*ChapterListing, error)
	Latest(ctx context.Context, limit int) ([]*models.Chapter, error)
	GetByNumber(ctx context.Context, storyID primitive.ObjectID, number int, viewer *models.User) (*ChapterDetail, error)
	Create(ctx context.Context, in ChapterCreateInput, actor *models.User) (*models.Chapter, error)
	Update(ctx context.Context, id primitive.ObjectID, in ChapterUpdateInput, actor *models.User) (*models.Chapter, error)
	SetPublished(ctx context.Context, id primitive.ObjectID, published bool, actor *models.User) (*models.Chapter, error)
	Delete(ctx context.Context, id primitive.ObjectID, actor *models.User) error
	Like(ctx context.Context, id primitive.ObjectID) (int64, error)
	Rate(ctx context.Context, id, userID primitive.ObjectID, rating int) (*RatingSummary, error)
	GetRating(ctx context.Context, id primitive.ObjectID) (*RatingSummary, error)
	GetUserRating(ctx context.Context, id, userID primitive.ObjectID) (int, error)
	AdminList(ctx context.Context, f repository.ChapterAdminFilter) ([]*models.Chapter, models.Pagination, error)
}

// CommentService defines the interface for the comment thread
type CommentService interface {
	Create(ctx context.Context, in CommentCreateInput) (*models.Comment, error)
	Edit(ctx context.Context, id primitive.ObjectID, content string, actor *models.User) (*models.Comment, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID, actor *models.User) (*models.Comment, error)
	RecomputeReplyCount(ctx context.Context, parentID primitive.ObjectID) error
	ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (*LikeResult, error)
	Report(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.Comment, error)
	ListForStory(ctx context.Context, storyID primitive.ObjectID, p ListParams) (*CommentPage, error)
	ListForChapter(ctx context.Context, chapterID primitive.ObjectID, p ListParams) (*CommentPage, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, actor *models.User, page, limit int) (*CommentPage, error)
	Latest(ctx context.Context, limit int) ([]*models.Comment, error)
	AdminList(ctx context.Context, f repository.CommentAdminFilter) (*CommentPage, error)
	SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.Comment, error)
	HardDelete(ctx context.Context, id primitive.ObjectID) error
}

// ListParams carries paging and ordering for public comment listings
type ListParams struct {
	Page    int
	Limit   int
	SortBy  string
	SortAsc bool
	// Viewer, when set, is used to mark comments the viewer has liked
	Viewer *models.User
}

// Services holds all service interfaces
type Services struct {
	Auth    AuthService
	User    UserService
	Story   StoryService
	Chapter ChapterService
	Comment CommentService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	slugs := NewSlugAllocator(repos.Story)

	return &Services{
		Auth:    newAuthService(repos.User, &cfg.Auth, log),
		User:    newUserService(repos.User, repos.Story, log),
		Story:   newStoryService(repos.Story, repos.Chapter, repos.User, slugs, log),
		Chapter: newChapterService(repos.Chapter, repos.Story, log),
		Comment: newCommentService(repos.Comment, repos.Story, repos.Chapter, log),
	}
}
