package models

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Qauym member account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"`

	// Profile data
	AvatarURL         string `json:"avatar_url"`
	ProfilePictureURL string `json:"profile_picture_url"` // uploaded picture, preferred over AvatarURL

	// Social stats (denormalized, maintained by the follow handlers)
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetAvatarURL returns the best available profile picture URL, falling
// back to a generated placeholder so clients never render a broken image.
func (u *User) GetAvatarURL() string {
	if u.ProfilePictureURL != "" {
		return u.ProfilePictureURL
	}
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s", url.QueryEscape(name))
}

// Follow represents a directed follow edge (follower -> following).
// At most one edge per ordered pair.
type Follow struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID  string `gorm:"not null;index" json:"follower_id"`
	Follower    User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FollowingID string `gorm:"not null;index" json:"following_id"`
	Following   User   `gorm:"foreignKey:FollowingID" json:"following,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// UserBlock represents a user blocking another user. Blocks are
// bidirectional for visibility: neither party sees the other's content.
type UserBlock struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BlockerID string `gorm:"not null;index" json:"blocker_id"`
	Blocker   User   `gorm:"foreignKey:BlockerID" json:"blocker,omitempty"`
	BlockedID string `gorm:"not null;index" json:"blocked_id"`
	Blocked   User   `gorm:"foreignKey:BlockedID" json:"blocked,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserBlock) TableName() string {
	return "user_blocks"
}

// MutedUser represents a one-directional mute: the muting user stops
// seeing the muted user's posts, the muted user is unaffected.
type MutedUser struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID      string `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MutedUserID string `gorm:"not null;index" json:"muted_user_id"`
	MutedUser   User   `gorm:"foreignKey:MutedUserID" json:"muted_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (MutedUser) TableName() string {
	return "muted_users"
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (b *UserBlock) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}

func (m *MutedUser) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
