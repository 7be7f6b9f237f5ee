package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment on a story or a chapter. A comment with a
// parent is a reply; the tree is two levels deep (top-level plus replies).
type Comment struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	StoryID    *primitive.ObjectID `bson:"story_id,omitempty" json:"storyId,omitempty"`
	ChapterID  *primitive.ObjectID `bson:"chapter_id,omitempty" json:"chapterId,omitempty"`
	UserID     primitive.ObjectID  `bson:"user_id" json:"userId"`
	Content    string              `bson:"content" json:"content"`
	ParentID   *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	IsReply    bool                `bson:"is_reply" json:"isReply"`
	LikeCount  int                 `bson:"like_count" json:"likeCount"`
	ReplyCount int                 `bson:"reply_count" json:"replyCount"`
	IsDeleted  bool                `bson:"is_deleted" json:"isDeleted"`
	IsApproved bool                `bson:"is_approved" json:"isApproved"`
	DeletedAt  *time.Time          `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	EditedAt   *time.Time          `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
	Likes      []CommentLike       `bson:"likes" json:"-"`
	Reports    []CommentReport     `bson:"reports" json:"-"`
	CreatedAt  time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updated_at" json:"updatedAt"`

	// Populated at read time for top-level listings, never stored
	Replies []*Comment `bson:"-" json:"replies,omitempty"`
	IsLiked bool       `bson:"-" json:"isLiked"`
}

// CommentLike is one user's like on a comment; at most one per user
type CommentLike struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"userId"`
	LikedAt time.Time          `bson:"liked_at" json:"likedAt"`
}

// CommentReport is one user's report of a comment; first report wins,
// duplicates are rejected
type CommentReport struct {
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	Reason     string             `bson:"reason" json:"reason"`
	ReportedAt time.Time          `bson:"reported_at" json:"reportedAt"`
}

// ValidReportReasons is the closed set of accepted report reasons
var ValidReportReasons = map[string]bool{
	"spam":          true,
	"inappropriate": true,
	"harassment":    true,
	"other":         true,
}

// DeletedCommentContent replaces the body of a soft-deleted comment
const DeletedCommentContent = "[Comment has been deleted]"

// MaxCommentLen is the maximum allowed comment length in characters
const MaxCommentLen = 1000

// LikedBy reports whether the given user is in the comment's like set
func (c *Comment) LikedBy(userID primitive.ObjectID) bool {
	for _, l := range c.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// ReportedBy reports whether the given user already reported the comment
func (c *Comment) ReportedBy(userID primitive.ObjectID) bool {
	for _, r := range c.Reports {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// CommentCollection is the MongoDB collection name for comments
const CommentCollection = "comments"
