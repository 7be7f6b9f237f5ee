package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a reader or author account
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"`
	Role           string             `bson:"role" json:"role"`
	Avatar         string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Profile        Profile            `bson:"profile" json:"profile"`
	Preferences    Preferences        `bson:"preferences" json:"preferences"`
	Bookmarks      []Bookmark         `bson:"bookmarks" json:"bookmarks,omitempty"`
	ReadingHistory []ReadingEntry     `bson:"reading_history" json:"readingHistory,omitempty"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	LastLogin      time.Time          `bson:"last_login" json:"lastLogin"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Profile holds public-facing user details
type Profile struct {
	DisplayName    string   `bson:"display_name,omitempty" json:"displayName,omitempty"`
	Bio            string   `bson:"bio,omitempty" json:"bio,omitempty"`
	FavoriteGenres []string `bson:"favorite_genres,omitempty" json:"favoriteGenres,omitempty"`
}

// Preferences holds per-user reading settings
type Preferences struct {
	Theme        string `bson:"theme" json:"theme"`
	FontSize     string `bson:"font_size" json:"fontSize"`
	FontFamily   string `bson:"font_family" json:"fontFamily"`
	AutoBookmark bool   `bson:"auto_bookmark" json:"autoBookmark"`
}

// Bookmark links a user to a saved story
type Bookmark struct {
	StoryID primitive.ObjectID `bson:"story_id" json:"storyId"`
	AddedAt time.Time          `bson:"added_at" json:"addedAt"`
}

// ReadingEntry records the last chapter a user read in a story
type ReadingEntry struct {
	StoryID       primitive.ObjectID `bson:"story_id" json:"storyId"`
	ChapterNumber int                `bson:"chapter_number" json:"chapterNumber"`
	Progress      int                `bson:"progress" json:"progress"`
	ReadAt        time.Time          `bson:"read_at" json:"readAt"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[string]bool{
	RoleUser:  true,
	RoleAdmin: true,
}

// MaxReadingHistory caps the per-user reading history length
const MaxReadingHistory = 100

// DefaultPreferences returns the preferences assigned to new accounts
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        "light",
		FontSize:     "medium",
		FontFamily:   "serif",
		AutoBookmark: true,
	}
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasBookmarked reports whether the user already bookmarked the story
func (u *User) HasBookmarked(storyID primitive.ObjectID) bool {
	for _, b := range u.Bookmarks {
		if b.StoryID == storyID {
			return true
		}
	}
	return false
}

// UserCollection is the MongoDB collection name for users
const UserCollection = "users"
