package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qauym-app/backend/internal/models"
	"github.com/qauym-app/backend/internal/util"
	"gorm.io/gorm"
)

type createCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// CreateComment adds a comment and bumps the post's comment counter in
// the same transaction.
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "content", "comment content is required and must be at most 2000 characters")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		util.RespondValidationError(c, "content", "comment content cannot be empty")
		return
	}

	var post models.Post
	if err := h.db.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		util.RespondError(c, err)
		return
	}

	comment := models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteComment removes the caller's own comment and decrements the
// post's counter.
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("id")

	var comment models.Comment
	if err := h.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "comment")
			return
		}
		util.RespondError(c, err)
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "you can only delete your own comments")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetComments lists a post's comments, oldest first
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")

	var comments []models.Comment
	err := h.db.Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
