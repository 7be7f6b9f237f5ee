package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chapter represents a single chapter of a story
type Chapter struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StoryID       primitive.ObjectID `bson:"story_id" json:"storyId"`
	Number        int                `bson:"number" json:"number"`
	Title         string             `bson:"title" json:"title"`
	Content       string             `bson:"content" json:"content"`
	WordCount     int                `bson:"word_count" json:"wordCount"`
	IsPublished   bool               `bson:"is_published" json:"isPublished"`
	PublishedAt   *time.Time         `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	ViewCount     int64              `bson:"view_count" json:"viewCount"`
	LikeCount     int64              `bson:"like_count" json:"likeCount"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Ratings       []ChapterRating    `bson:"ratings" json:"-"`
	RatingAverage float64            `bson:"rating_average" json:"ratingAverage"`
	RatingCount   int                `bson:"rating_count" json:"ratingCount"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"createdBy"`
	LastUpdatedBy primitive.ObjectID `bson:"last_updated_by,omitempty" json:"lastUpdatedBy,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ChapterRating is one user's rating of a chapter; at most one per user,
// last write wins
type ChapterRating struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"userId"`
	Rating  int                `bson:"rating" json:"rating"`
	RatedAt time.Time          `bson:"rated_at" json:"ratedAt"`
}

// Field limits for chapters
const (
	MaxChapterTitleLen = 200
	MaxChapterNotesLen = 1000
	MinChapterRating   = 1
	MaxChapterRating   = 5
)

// CountWords derives the chapter word count from its content
func CountWords(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}
	return len(strings.Fields(trimmed))
}

// UserRating returns the rating the given user left on the chapter, or 0
func (c *Chapter) UserRating(userID primitive.ObjectID) int {
	for _, r := range c.Ratings {
		if r.UserID == userID {
			return r.Rating
		}
	}
	return 0
}

// ChapterCollection is the MongoDB collection name for chapters
const ChapterCollection = "chapters"
