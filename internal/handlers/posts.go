package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/models"
	"github.com/qauym-app/backend/internal/util"
	"gorm.io/gorm"
)

type createPostRequest struct {
	Content      string   `json:"content" binding:"max=5000"`
	MediaKeys    []string `json:"media_keys"`
	MusicTrackID *string  `json:"music_track_id"`
}

// CreatePost creates a post with optional media attachments and an
// optional music track reference.
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "content", "post content must be at most 5000 characters")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && len(req.MediaKeys) == 0 && req.MusicTrackID == nil {
		util.RespondValidationError(c, "content", "a post needs content, media or a music track")
		return
	}

	if req.MusicTrackID != nil {
		var track models.MusicTrack
		if err := h.db.First(&track, "id = ?", *req.MusicTrackID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.RespondNotFound(c, "music track")
				return
			}
			util.RespondError(c, err)
			return
		}
	}

	post := models.Post{
		UserID:       userID,
		Content:      req.Content,
		MusicTrackID: req.MusicTrackID,
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		for i, key := range req.MediaKeys {
			media := models.PostMedia{
				PostID:    post.ID,
				MediaKey:  key,
				MediaType: "image",
				SortOrder: i,
			}
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("Post created",
		logger.WithUserID(userID),
		logger.WithPostID(post.ID),
	)

	// Re-read with associations so the response matches feed hydration
	var created models.Post
	err = h.db.Preload("User").Preload("MusicTrack").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_media.sort_order ASC")
		}).
		First(&created, "id = ?", post.ID).Error
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// DeletePost soft-deletes the caller's own post. Soft-deleted posts
// drop out of every feed on the next request; cached trending entries
// are rehydrated from the live table so they disappear there too.
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := h.db.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		util.RespondError(c, err)
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "you can only delete your own posts")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND post_count > 0", userID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("Post deleted",
		logger.WithUserID(userID),
		logger.WithPostID(postID),
	)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetPost returns a single post with its associations hydrated
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	err := h.db.Preload("User").Preload("MusicTrack").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_media.sort_order ASC")
		}).
		First(&post, "id = ?", postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// GetUserPosts lists a user's posts, newest first
func (h *Handlers) GetUserPosts(c *gin.Context) {
	targetID := c.Param("id")

	limit := util.ParseInt(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	offset := util.ParseInt(c.Query("offset"), 0)

	var posts []models.Post
	err := h.db.Preload("User").Preload("MusicTrack").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_media.sort_order ASC")
		}).
		Where("user_id = ?", targetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
