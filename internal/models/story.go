package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story represents a serialized story in the catalog
type Story struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Slug          string             `bson:"slug" json:"slug"`
	Author        string             `bson:"author" json:"author"`
	Translator    string             `bson:"translator,omitempty" json:"translator,omitempty"`
	Description   string             `bson:"description" json:"description"`
	Cover         string             `bson:"cover,omitempty" json:"cover,omitempty"`
	Tags          []string           `bson:"tags" json:"tags"`
	Status        string             `bson:"status" json:"status"`
	TotalChapters int                `bson:"total_chapters" json:"totalChapters"`
	ViewCount     int64              `bson:"view_count" json:"viewCount"`
	LikeCount     int64              `bson:"like_count" json:"likeCount"`
	BookmarkCount int64              `bson:"bookmark_count" json:"bookmarkCount"`
	Rating        Rating             `bson:"rating" json:"rating"`
	IsPublished   bool               `bson:"is_published" json:"isPublished"`
	PublishedAt   *time.Time         `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	CreatedBy     primitive.ObjectID `bson:"created_by" json:"createdBy"`
	LastUpdatedBy primitive.ObjectID `bson:"last_updated_by,omitempty" json:"lastUpdatedBy,omitempty"`
	Featured      bool               `bson:"featured" json:"featured"`
	FeaturedOrder int                `bson:"featured_order" json:"featuredOrder"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Rating is an aggregate of user ratings
type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Story statuses
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusPaused    = "paused"
	StatusDropped   = "dropped"
)

// ValidStatuses defines allowed story statuses
var ValidStatuses = map[string]bool{
	StatusOngoing:   true,
	StatusCompleted: true,
	StatusPaused:    true,
	StatusDropped:   true,
}

// ValidTags is the closed tag vocabulary stories may use
var ValidTags = map[string]bool{
	"học đường":  true,
	"lãng mạn":   true,
	"hành động":  true,
	"viễn tưởng": true,
	"kinh dị":    true,
	"hài hước":   true,
	"phiêu lưu":  true,
	"drama":      true,
	"khoa học":   true,
	"huyền bí":   true,
}

// Field length limits for stories
const (
	MaxTitleLen       = 200
	MaxAuthorLen      = 100
	MaxDescriptionLen = 2000
)

// StoryCollection is the MongoDB collection name for stories
const StoryCollection = "stories"
