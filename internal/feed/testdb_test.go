package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
// Tables are created manually with SQLite-compatible syntax because
// GORM AutoMigrate renders PostgreSQL-specific defaults like
// gen_random_uuid(). The shared cache keeps the database visible to
// every pooled connection, which the concurrent viewer-context loads
// rely on.
func setupTestDB(t *testing.T) *gorm.DB {
	logger.InitializeForTests()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL,
			bio TEXT,
			location TEXT,
			avatar_url TEXT,
			profile_picture_url TEXT,
			follower_count INTEGER DEFAULT 0,
			following_count INTEGER DEFAULT 0,
			post_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE follows (
			id TEXT PRIMARY KEY,
			follower_id TEXT NOT NULL,
			following_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE user_blocks (
			id TEXT PRIMARY KEY,
			blocker_id TEXT NOT NULL,
			blocked_id TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE muted_users (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			muted_user_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE music_tracks (
			id TEXT PRIMARY KEY,
			uploader_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			audio_url TEXT NOT NULL,
			duration REAL,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT,
			media_url TEXT,
			music_track_id TEXT,
			like_count INTEGER DEFAULT 0,
			comment_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE post_media (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			media_key TEXT NOT NULL,
			media_type TEXT NOT NULL,
			sort_order INTEGER DEFAULT 0,
			created_at DATETIME
		)`,
		`CREATE TABLE likes (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE comments (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	user := models.User{
		Email:       username + "@test.com",
		Username:    username,
		DisplayName: username,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, authorID string, age time.Duration, likes, comments int) models.Post {
	post := models.Post{
		UserID:       authorID,
		Content:      "post by " + authorID,
		LikeCount:    likes,
		CommentCount: comments,
		CreatedAt:    time.Now().UTC().Add(-age),
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func createFollow(t *testing.T, db *gorm.DB, followerID, followingID string) {
	follow := models.Follow{FollowerID: followerID, FollowingID: followingID}
	require.NoError(t, db.Create(&follow).Error)
}
