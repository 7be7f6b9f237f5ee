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

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	coll *mongo.Collection
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{coll: db.Collection(models.CommentCollection)}
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if comment.Likes == nil {
		comment.Likes = []models.CommentLike{}
	}
	if comment.Reports == nil {
		comment.Reports = []models.CommentReport{}
	}
	_, err := r.coll.InsertOne(ctx, comment)
	return err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update replaces the stored document for the comment
func (r *commentRepo) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": comment.ID}, comment)
	return err
}

// Delete removes a comment permanently (admin purge)
func (r *commentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ToggleLike atomically adds or removes the user's like. $pull and the
// guarded $push cannot both apply for the same user, so two concurrent
// toggles never produce a duplicate entry in the like set.
func (r *commentRepo) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (bool, int, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "likes.user_id": userID},
		bson.M{"$pull": bson.M{"likes": bson.M{"user_id": userID}}})
	if err != nil {
		return false, 0, err
	}

	liked := false
	if res.MatchedCount == 0 {
		_, err = r.coll.UpdateOne(ctx,
			bson.M{"_id": id, "likes.user_id": bson.M{"$ne": userID}},
			bson.M{"$push": bson.M{"likes": models.CommentLike{UserID: userID, LikedAt: time.Now()}}})
		if err != nil {
			return false, 0, err
		}
		liked = true
	}

	// like_count is derived from the set size, never incremented
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var comment models.Comment
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{"like_count": bson.M{"$size": "$likes"}}}},
		},
		opts).Decode(&comment)
	if err != nil {
		return false, 0, err
	}

	return liked, comment.LikeCount, nil
}

// AddReport appends a report unless the user already reported the comment
func (r *commentRepo) AddReport(ctx context.Context, id, userID primitive.ObjectID, reason string) (bool, error) {
	report := models.CommentReport{
		UserID:     userID,
		Reason:     reason,
		ReportedAt: time.Now(),
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "reports.user_id": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"reports": report}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// CountReplies counts the non-deleted direct children of a comment
func (r *commentRepo) CountReplies(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{
		"parent_id":  parentID,
		"is_deleted": false,
	})
}

// SetReplyCount stores a freshly recomputed reply count on the parent
func (r *commentRepo) SetReplyCount(ctx context.Context, parentID primitive.ObjectID, count int) error {
	_, err := r.coll.UpdateByID(ctx, parentID, bson.M{"$set": bson.M{"reply_count": count}})
	return err
}

// ListTopLevel returns a page of non-deleted, approved top-level comments
// for one story or chapter scope
func (r *commentRepo) ListTopLevel(ctx context.Context, f CommentListFilter) ([]*models.Comment, int64, error) {
	filter := bson.M{
		"parent_id":   nil,
		"is_deleted":  false,
		"is_approved": true,
	}
	if f.StoryID != nil {
		filter["story_id"] = *f.StoryID
	}
	if f.ChapterID != nil {
		filter["chapter_id"] = *f.ChapterID
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

	var comments []*models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListReplies returns the non-deleted replies of the given parents,
// oldest first
func (r *commentRepo) ListReplies(ctx context.Context, parentIDs []primitive.ObjectID) ([]*models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	filter := bson.M{
		"parent_id":  bson.M{"$in": parentIDs},
		"is_deleted": false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var replies []*models.Comment
	if err := cursor.All(ctx, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// ListByUser returns a page of one user's non-deleted comments, newest first
func (r *commentRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]*models.Comment, int64, error) {
	filter := bson.M{"user_id": userID, "is_deleted": false}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// Latest returns the newest non-deleted top-level comments site-wide
func (r *commentRepo) Latest(ctx context.Context, limit int) ([]*models.Comment, error) {
	filter := bson.M{"parent_id": nil, "is_deleted": false}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AdminList returns a page of comments for moderation, including deleted
// and unapproved ones
func (r *commentRepo) AdminList(ctx context.Context, f CommentAdminFilter) ([]*models.Comment, int64, error) {
	filter := bson.M{}
	if f.Search != "" {
		filter["content"] = bson.M{"$regex": f.Search, "$options": "i"}
	}
	if f.IsApproved != nil {
		filter["is_approved"] = *f.IsApproved
	}
	if f.IsDeleted != nil {
		filter["is_deleted"] = *f.IsDeleted
	}
	if f.HasReports {
		filter["reports.0"] = bson.M{"$exists": true}
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

	var comments []*models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
