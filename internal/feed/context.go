package feed

import (
	"context"
	"fmt"

	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// interactionHistoryWindow bounds how much of the viewer's own
// like/comment history feeds personalization. Scanning the full history
// would make request cost grow with lifetime activity; a fixed recent
// window keeps latency bounded and forgets old affinities.
const interactionHistoryWindow = 100

// ViewerContext is the ephemeral per-request bundle of relationship and
// affinity sets derived for one caller. A zero ViewerID means anonymous;
// all sets are empty and personalization degrades to engagement/recency.
type ViewerContext struct {
	ViewerID string

	// Following is the set of user ids the viewer follows.
	Following map[string]bool

	// Excluded is the union of blocks in both directions plus the
	// viewer's own mutes. Mute is one-directional: being muted by
	// someone does not hide their content from you.
	Excluded map[string]bool

	// Affinity sets from the bounded interaction history window.
	LikedPostIDs     map[string]bool
	CommentedPostIDs map[string]bool
	LikedAuthorIDs   map[string]bool
}

// IsAnonymous reports whether the context belongs to a signed-out caller
func (vc *ViewerContext) IsAnonymous() bool {
	return vc.ViewerID == ""
}

// BuildViewerContext loads the relationship index, visibility exclusions
// and interaction history for a viewer. The three lookups are
// independent and issued concurrently; the context is complete when all
// have returned.
func BuildViewerContext(ctx context.Context, db *gorm.DB, viewerID string) (*ViewerContext, error) {
	vc := &ViewerContext{
		ViewerID:         viewerID,
		Following:        map[string]bool{},
		Excluded:         map[string]bool{},
		LikedPostIDs:     map[string]bool{},
		CommentedPostIDs: map[string]bool{},
		LikedAuthorIDs:   map[string]bool{},
	}

	if viewerID == "" {
		return vc, nil
	}

	type sourceResult struct {
		source string
		err    error
	}

	resultsChan := make(chan sourceResult, 3)

	go func() {
		err := loadFollowing(db, viewerID, vc)
		resultsChan <- sourceResult{source: "following", err: err}
	}()

	go func() {
		err := loadExclusions(db, viewerID, vc)
		resultsChan <- sourceResult{source: "exclusions", err: err}
	}()

	go func() {
		err := loadInteractionHistory(db, viewerID, vc)
		resultsChan <- sourceResult{source: "history", err: err}
	}()

	for i := 0; i < 3; i++ {
		result := <-resultsChan
		if result.err != nil {
			// The exclusion set is load-bearing for the visibility
			// invariant, so its failure fails the request. The other
			// sources only shape ranking and may degrade.
			if result.source == "exclusions" {
				return nil, fmt.Errorf("failed to load exclusions: %w", result.err)
			}
			logger.Log.Warn("Viewer context source failed",
				zap.String("source", result.source),
				logger.WithUserID(viewerID),
				zap.Error(result.err))
		}
	}

	return vc, nil
}

// loadFollowing fills the viewer's follow set
func loadFollowing(db *gorm.DB, viewerID string, vc *ViewerContext) error {
	var followingIDs []string
	err := db.Model(&models.Follow{}).
		Where("follower_id = ?", viewerID).
		Pluck("following_id", &followingIDs).Error
	if err != nil {
		return err
	}
	for _, id := range followingIDs {
		vc.Following[id] = true
	}
	return nil
}

// loadExclusions fills the combined exclusion set: users the viewer
// blocked, users who blocked the viewer, and users the viewer muted.
func loadExclusions(db *gorm.DB, viewerID string, vc *ViewerContext) error {
	var blockedIDs []string
	if err := db.Model(&models.UserBlock{}).
		Where("blocker_id = ?", viewerID).
		Pluck("blocked_id", &blockedIDs).Error; err != nil {
		return err
	}

	var blockerIDs []string
	if err := db.Model(&models.UserBlock{}).
		Where("blocked_id = ?", viewerID).
		Pluck("blocker_id", &blockerIDs).Error; err != nil {
		return err
	}

	var mutedIDs []string
	if err := db.Model(&models.MutedUser{}).
		Where("user_id = ?", viewerID).
		Pluck("muted_user_id", &mutedIDs).Error; err != nil {
		return err
	}

	for _, id := range blockedIDs {
		vc.Excluded[id] = true
	}
	for _, id := range blockerIDs {
		vc.Excluded[id] = true
	}
	for _, id := range mutedIDs {
		vc.Excluded[id] = true
	}
	return nil
}

// loadInteractionHistory fills the affinity sets from the most recent
// interactionHistoryWindow likes and comments of the viewer.
func loadInteractionHistory(db *gorm.DB, viewerID string, vc *ViewerContext) error {
	var likes []models.Like
	err := db.Where("user_id = ?", viewerID).
		Order("created_at DESC").
		Limit(interactionHistoryWindow).
		Find(&likes).Error
	if err != nil {
		return err
	}

	likedPostIDs := make([]string, 0, len(likes))
	for _, like := range likes {
		vc.LikedPostIDs[like.PostID] = true
		likedPostIDs = append(likedPostIDs, like.PostID)
	}

	// Resolve liked posts to their authors in one query. Posts deleted
	// since the like are simply absent, which is fine.
	if len(likedPostIDs) > 0 {
		var authorIDs []string
		err = db.Model(&models.Post{}).
			Where("id IN ?", likedPostIDs).
			Pluck("user_id", &authorIDs).Error
		if err != nil {
			return err
		}
		for _, id := range authorIDs {
			vc.LikedAuthorIDs[id] = true
		}
	}

	var comments []models.Comment
	err = db.Where("user_id = ?", viewerID).
		Order("created_at DESC").
		Limit(interactionHistoryWindow).
		Find(&comments).Error
	if err != nil {
		return err
	}
	for _, comment := range comments {
		vc.CommentedPostIDs[comment.PostID] = true
	}

	return nil
}
