package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qauym-app/backend/internal/models"
	"github.com/qauym-app/backend/internal/util"
	"gorm.io/gorm"
)

// LikePost records a like and bumps the post's denormalized like
// counter in the same transaction. The ranking layer trusts the
// counter, so it must never drift from the likes table.
func (h *Handlers) LikePost(c *gin.Context) {
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

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if err == nil {
			return nil // already liked, idempotent
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		like := models.Like{PostID: postID, UserID: userID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": true})
}

// UnlikePost removes a like and decrements the counter
func (h *Handlers) UnlikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil // wasn't liked, idempotent
		}
		return tx.Model(&models.Post{}).Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}
