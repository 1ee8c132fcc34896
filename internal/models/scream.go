package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection names. They double as table names and as the collection field of change events.
const (
	CollectionUsers         = "users"
	CollectionScreams       = "screams"
	CollectionComments      = "comments"
	CollectionLikes         = "likes"
	CollectionNotifications = "notifications"
)

// Scream is a post. Author image and verification flag are snapshots taken at creation
// and refreshed only by the image-change trigger. Counters are derived.
type Scream struct {
	ID             string    `gorm:"primaryKey" json:"screamId"`
	UserHandle     string    `gorm:"not null;index" json:"userHandle"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	UserImage      string    `json:"userImage"`
	IsVerifiedUser bool      `json:"isVerifiedUser"`
	LikeCount      int       `gorm:"not null;default:0" json:"likeCount"`
	CommentCount   int       `gorm:"not null;default:0" json:"commentCount"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

func (s *Scream) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Comment on a scream, with the same author snapshot fields
type Comment struct {
	ID         string    `gorm:"primaryKey" json:"commentId"`
	ScreamID   string    `gorm:"not null;index" json:"screamId"`
	UserHandle string    `gorm:"not null;index" json:"userHandle"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	UserImage  string    `json:"userImage"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Like pairs a handle with a scream. One per pair.
type Like struct {
	ID         string    `gorm:"primaryKey" json:"likeId"`
	UserHandle string    `gorm:"not null;uniqueIndex:idx_likes_user_scream" json:"userHandle"`
	ScreamID   string    `gorm:"not null;uniqueIndex:idx_likes_user_scream;index" json:"screamId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// Notification types
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
)

// Notification shares its ID with the like or comment that produced it
type Notification struct {
	ID        string    `gorm:"primaryKey" json:"notificationId"`
	Recipient string    `gorm:"not null;index" json:"recipient"`
	Sender    string    `gorm:"not null" json:"sender"`
	Type      string    `gorm:"not null" json:"type"`
	ScreamID  string    `gorm:"not null;index" json:"screamId"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
