package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/windy-novel-api/internal/database"
	"github.com/windy-novel-api/internal/models"
)

// chapterRepo is the concrete implementation of ChapterRepository
type chapterRepo struct {
	coll *mongo.Collection
}

// NewChapterRepo creates a new chapter repository
func NewChapterRepo(db *database.DB) ChapterRepository {
	return &chapterRepo{coll: db.Collection(models.ChapterCollection)}
}

// Create inserts a new chapter
func (r *chapterRepo) Create(ctx context.Context, chapter *models.Chapter) error {
	now := time.Now()
	chapter.CreatedAt = now
	chapter.UpdatedAt = now
	if chapter.ID.IsZero() {
		chapter.ID = primitive.NewObjectID()
	}
	if chapter.IsPublished && chapter.PublishedAt == nil {
		chapter.PublishedAt = &now
	}
	if chapter.Ratings == nil {
		chapter.Ratings = []models.ChapterRating{}
	}
	_, err := r.coll.InsertOne(ctx, chapter)
	return err
}

// GetByID retrieves a chapter by ID
func (r *chapterRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chapter, error) {
	var chapter models.Chapter
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&chapter)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// GetByStoryAndNumber retrieves one chapter by its position in a story
func (r *chapterRepo) GetByStoryAndNumber(ctx context.Context, storyID primitive.ObjectID, number int) (*models.Chapter, error) {
	var chapter models.Chapter
	err := r.coll.FindOne(ctx, bson.M{"story_id": storyID, "number": number}).Decode(&chapter)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// NumberExists checks whether the story already has a chapter with the number
func (r *chapterRepo) NumberExists(ctx context.Context, storyID primitive.ObjectID, number int) (bool, error) {
	count, err := r.coll.CountDocuments(ctx,
		bson.M{"story_id": storyID, "number": number},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update replaces the stored document for the chapter
func (r *chapterRepo) Update(ctx context.Context, chapter *models.Chapter) error {
	chapter.UpdatedAt = time.Now()
	if chapter.IsPublished && chapter.PublishedAt == nil {
		now := chapter.UpdatedAt
		chapter.PublishedAt = &now
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": chapter.ID}, chapter)
	return err
}

// Delete removes a chapter permanently
func (r *chapterRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByStory returns a page of chapters ordered by number
func (r *chapterRepo) ListByStory(ctx context.Context, storyID primitive.ObjectID, publishedOnly bool, page, limit int) ([]*models.Chapter, int64, error) {
	filter := bson.M{"story_id": storyID}
	if publishedOnly {
		filter["is_published"] = true
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "number", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var chapters []*models.Chapter
	if err := cursor.All(ctx, &chapters); err != nil {
		return nil, 0, err
	}
	return chapters, total, nil
}

// Latest returns the most recently published chapters across all stories
func (r *chapterRepo) Latest(ctx context.Context, limit int) ([]*models.Chapter, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"is_published": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chapters []*models.Chapter
	if err := cursor.All(ctx, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

// AdminList returns a page of chapters for admin views
func (r *chapterRepo) AdminList(ctx context.Context, f ChapterAdminFilter) ([]*models.Chapter, int64, error) {
	filter := bson.M{}
	if f.StoryID != nil {
		filter["story_id"] = *f.StoryID
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"content": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.IsPublished != nil {
		filter["is_published"] = *f.IsPublished
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	dir := -1
	if f.SortAsc {
		dir = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: dir}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var chapters []*models.Chapter
	if err := cursor.All(ctx, &chapters); err != nil {
		return nil, 0, err
	}
	return chapters, total, nil
}

// CountByStory counts a story's chapters
func (r *chapterRepo) CountByStory(ctx context.Context, storyID primitive.ObjectID, publishedOnly bool) (int64, error) {
	filter := bson.M{"story_id": storyID}
	if publishedOnly {
		filter["is_published"] = true
	}
	return r.coll.CountDocuments(ctx, filter)
}

// IncViewCount bumps the chapter view counter
func (r *chapterRepo) IncViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"view_count": 1}})
	return err
}

// IncLikeCount bumps the chapter like counter and returns the new value
func (r *chapterRepo) IncLikeCount(ctx context.Context, id primitive.ObjectID) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var chapter models.Chapter
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"like_count": 1}},
		opts).Decode(&chapter)
	if err != nil {
		return 0, err
	}
	return chapter.LikeCount, nil
}
