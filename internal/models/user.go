package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a profile document keyed by its unique handle
type User struct {
	Handle     string `gorm:"primaryKey" json:"handle"`
	UserID     string `gorm:"uniqueIndex;not null" json:"userId"` // identity provider uid
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	ImageURL   string `json:"imageUrl"`
	IsVerified bool   `gorm:"default:false" json:"isVerified"`

	// Optional details, see UserDetails
	Bio      string `gorm:"type:text" json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`
	Location string `json:"location,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// UserDetails is the editable subset of a profile. Empty fields are left untouched.
type UserDetails struct {
	Bio      string `json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`
	Location string `json:"location,omitempty"`
}

// Updates returns the column map for a details update, skipping empty values
func (d UserDetails) Updates() map[string]any {
	updates := make(map[string]any)
	if d.Bio != "" {
		updates["bio"] = d.Bio
	}
	if d.Website != "" {
		updates["website"] = d.Website
	}
	if d.Location != "" {
		updates["location"] = d.Location
	}
	return updates
}

// Identity is an account held by the identity provider.
// Profiles reference it through User.UserID.
type Identity struct {
	UID           string    `gorm:"primaryKey" json:"uid"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	EmailVerified bool      `gorm:"default:false" json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.UID == "" {
		i.UID = uuid.New().String()
	}
	return nil
}

// Action token purposes
const (
	TokenVerifyEmail   = "verify_email"
	TokenResetPassword = "reset_password"
)

// ActionToken is a single-use token mailed to the account owner
type ActionToken struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	UID       string    `gorm:"not null;index" json:"uid"`
	Purpose   string    `gorm:"not null" json:"purpose"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	Used      bool      `gorm:"default:false" json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsValid reports whether the token can still be redeemed
func (t *ActionToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
