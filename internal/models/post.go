package models

import (
	"time"

	"gorm.io/gorm"
)

// MusicTrack represents an uploaded track that posts can reference
type MusicTrack struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UploaderID string `gorm:"not null;index" json:"uploader_id"`
	Uploader   User   `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`

	Title    string  `gorm:"not null" json:"title"`
	Artist   string  `json:"artist"`
	AudioURL string  `gorm:"not null" json:"audio_url"`
	Duration float64 `json:"duration"` // seconds

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MusicTrack) TableName() string {
	return "music_tracks"
}

// Post represents a shared post with optional media and music
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text" json:"content"`

	// Legacy single media reference, kept for older clients. New posts
	// attach media through the Media list.
	MediaURL string      `json:"media_url"`
	Media    []PostMedia `gorm:"foreignKey:PostID" json:"media,omitempty"`

	// Optional attached music track
	MusicTrackID *string     `gorm:"type:uuid;index" json:"music_track_id,omitempty"`
	MusicTrack   *MusicTrack `gorm:"foreignKey:MusicTrackID" json:"music_track,omitempty"`

	// Engagement counters, maintained transactionally by the like and
	// comment handlers. The ranking engine trusts them as-is.
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	// GORM fields. CreatedAt is immutable after insert and is the only
	// age signal the scorer uses.
	CreatedAt time.Time      `gorm:"index:idx_posts_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasMedia reports whether the post carries any image or video
func (p *Post) HasMedia() bool {
	return p.MediaURL != "" || len(p.Media) > 0
}

// HasMusic reports whether the post carries an attached music track
func (p *Post) HasMusic() bool {
	return p.MusicTrackID != nil && *p.MusicTrackID != ""
}

// PostMedia is a single image or video attached to a post
type PostMedia struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`

	MediaKey  string `gorm:"not null" json:"media_key"` // storage key, resolved to a URL at read time
	MediaType string `gorm:"not null" json:"media_type"` // "image" or "video"
	SortOrder int    `gorm:"default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
}

func (PostMedia) TableName() string {
	return "post_media"
}

// Like represents a (post, user) like pair. At most one per pair,
// enforced by a unique index.
type Like struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

// Comment represents a comment on a Post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate hooks for GORM

func (t *MusicTrack) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (m *PostMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}
