package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/models"
	"github.com/qauym-app/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowUser creates a follow edge and bumps the denormalized follower
// counters in the same transaction.
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == userID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	var target models.User
	if err := h.db.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondError(c, err)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", userID, targetID).First(&existing).Error
		if err == nil {
			return nil // already following, idempotent
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		follow := models.Follow{FollowerID: userID, FollowingID: targetID}
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("User followed",
		logger.WithUserID(userID),
		zap.String("target_id", targetID),
	)
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowUser removes the follow edge and decrements counters
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND following_id = ?", userID, targetID).
			Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil // wasn't following, idempotent
		}
		if err := tx.Model(&models.User{}).Where("id = ? AND follower_count > 0", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND following_count > 0", userID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}

// BlockUser blocks a user. Blocks are symmetric for feed visibility:
// neither side sees the other's posts. Blocking also severs any follow
// edges between the two users.
func (h *Handlers) BlockUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == userID {
		util.RespondBadRequest(c, "cannot block yourself")
		return
	}

	var target models.User
	if err := h.db.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondError(c, err)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserBlock
		err := tx.Where("blocker_id = ? AND blocked_id = ?", userID, targetID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		block := models.UserBlock{BlockerID: userID, BlockedID: targetID}
		if err := tx.Create(&block).Error; err != nil {
			return err
		}
		return severFollows(tx, userID, targetID)
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("User blocked",
		logger.WithUserID(userID),
		zap.String("target_id", targetID),
	)
	c.JSON(http.StatusOK, gin.H{"blocked": true})
}

// severFollows removes follow edges in both directions and fixes the
// counters for each edge actually removed.
func severFollows(tx *gorm.DB, a, b string) error {
	pairs := [][2]string{{a, b}, {b, a}}
	for _, p := range pairs {
		result := tx.Where("follower_id = ? AND following_id = ?", p[0], p[1]).
			Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		if err := tx.Model(&models.User{}).Where("id = ? AND following_count > 0", p[0]).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ? AND follower_count > 0", p[1]).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

// UnblockUser removes a block
func (h *Handlers) UnblockUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	err := h.db.Where("blocker_id = ? AND blocked_id = ?", userID, targetID).
		Delete(&models.UserBlock{}).Error
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": false})
}

// MuteUser mutes a user for the caller. Mutes are one-directional: the
// muted user still sees the caller's posts.
func (h *Handlers) MuteUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == userID {
		util.RespondBadRequest(c, "cannot mute yourself")
		return
	}

	var target models.User
	if err := h.db.First(&target, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondError(c, err)
		return
	}

	var existing models.MutedUser
	err := h.db.Where("user_id = ? AND muted_user_id = ?", userID, targetID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"muted": true})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondError(c, err)
		return
	}

	mute := models.MutedUser{UserID: userID, MutedUserID: targetID}
	if err := h.db.Create(&mute).Error; err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("User muted",
		logger.WithUserID(userID),
		zap.String("target_id", targetID),
	)
	c.JSON(http.StatusOK, gin.H{"muted": true})
}

// UnmuteUser removes a mute
func (h *Handlers) UnmuteUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	err := h.db.Where("user_id = ? AND muted_user_id = ?", userID, targetID).
		Delete(&models.MutedUser{}).Error
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"muted": false})
}

// GetMutedUsers lists the users the caller has muted
func (h *Handlers) GetMutedUsers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var mutedIDs []string
	err := h.db.Model(&models.MutedUser{}).
		Where("user_id = ?", userID).
		Pluck("muted_user_id", &mutedIDs).Error
	if err != nil {
		util.RespondError(c, err)
		return
	}

	var users []models.User
	if len(mutedIDs) > 0 {
		if err := h.db.Where("id IN ?", mutedIDs).Find(&users).Error; err != nil {
			util.RespondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"muted_users": users})
}
