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

// storyRepo is the concrete implementation of StoryRepository
type storyRepo struct {
	coll *mongo.Collection
}

// NewStoryRepo creates a new story repository
func NewStoryRepo(db *database.DB) StoryRepository {
	return &storyRepo{coll: db.Collection(models.StoryCollection)}
}

// Create inserts a new story
func (r *storyRepo) Create(ctx context.Context, story *models.Story) error {
	now := time.Now()
	story.CreatedAt = now
	story.UpdatedAt = now
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	if story.IsPublished && story.PublishedAt == nil {
		story.PublishedAt = &now
	}
	_, err := r.coll.InsertOne(ctx, story)
	return err
}

// GetByID retrieves a story by ID
func (r *storyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Story, error) {
	var story models.Story
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&story)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// GetBySlug retrieves a story by its unique slug
func (r *storyRepo) GetBySlug(ctx context.Context, slug string) (*models.Story, error) {
	var story models.Story
	err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&story)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// SlugTaken probes for a conflicting slug, excluding the story being updated
func (r *storyRepo) SlugTaken(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TitleExists checks if a story already uses the exact title
func (r *storyRepo) TitleExists(ctx context.Context, title string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"title": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update replaces the stored document for the story
func (r *storyRepo) Update(ctx context.Context, story *models.Story) error {
	story.UpdatedAt = time.Now()
	if story.IsPublished && story.PublishedAt == nil {
		now := story.UpdatedAt
		story.PublishedAt = &now
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": story.ID}, story)
	return err
}

// Delete removes a story permanently
func (r *storyRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// List returns a page of stories matching the filter
func (r *storyRepo) List(ctx context.Context, f StoryListFilter) ([]*models.Story, int64, error) {
	filter := bson.M{}
	if f.IsPublished != nil {
		filter["is_published"] = *f.IsPublished
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "updated_at"
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

	var stories []*models.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, 0, err
	}
	return stories, total, nil
}

// Featured returns the curated front-page stories
func (r *storyRepo) Featured(ctx context.Context, limit int) ([]*models.Story, error) {
	filter := bson.M{"featured": true, "is_published": true}
	opts := options.Find().
		SetSort(bson.D{{Key: "featured_order", Value: 1}, {Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []*models.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// Trending returns recently updated stories ordered by views then likes
func (r *storyRepo) Trending(ctx context.Context, since time.Time, limit int) ([]*models.Story, error) {
	filter := bson.M{
		"is_published": true,
		"updated_at":   bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "view_count", Value: -1}, {Key: "like_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []*models.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// IncViewCount bumps the story view counter
func (r *storyRepo) IncViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"view_count": 1}})
	return err
}

// AdjustBookmarkCount applies delta to bookmark_count with a zero floor
func (r *storyRepo) AdjustBookmarkCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	// Pipeline update so the floor is applied server-side
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"bookmark_count": bson.M{"$max": bson.A{
				0,
				bson.M{"$add": bson.A{"$bookmark_count", delta}},
			}},
		}}},
	}
	_, err := r.coll.UpdateByID(ctx, id, pipeline)
	return err
}

// AdjustTotalChapters applies delta to total_chapters
func (r *storyRepo) AdjustTotalChapters(ctx context.Context, id primitive.ObjectID, delta int, updatedBy primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"total_chapters": delta},
		"$set": bson.M{"last_updated_by": updatedBy, "updated_at": time.Now()},
	}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return err
}

// CountPublished returns the number of published stories
func (r *storyRepo) CountPublished(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"is_published": true})
}

// DistinctAuthors returns the distinct author names of published stories
func (r *storyRepo) DistinctAuthors(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "author", bson.M{"is_published": true})
	if err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			authors = append(authors, s)
		}
	}
	return authors, nil
}

// TotalViews sums view counts across published stories
func (r *storyRepo) TotalViews(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_published": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$view_count"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}
