package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qauym-app/backend/internal/feed"
	"github.com/qauym-app/backend/internal/util"
)

const defaultPageSize = 20

// GetFollowingFeed returns posts from followed users, newest first.
// Anonymous viewers get an empty, terminal page.
func (h *Handlers) GetFollowingFeed(c *gin.Context) {
	h.serveFeed(c, feed.PolicyFollowing)
}

// GetForYouFeed returns the personalized ranked feed
func (h *Handlers) GetForYouFeed(c *gin.Context) {
	h.serveFeed(c, feed.PolicyForYou)
}

// GetTrendingFeed returns posts ranked by collective engagement over
// the trending window
func (h *Handlers) GetTrendingFeed(c *gin.Context) {
	h.serveFeed(c, feed.PolicyTrending)
}

func (h *Handlers) serveFeed(c *gin.Context, policy string) {
	viewerID := util.ViewerIDFromContext(c)
	pageSize := util.ParseInt(c.Query("page_size"), defaultPageSize)
	cursor := c.Query("cursor")

	var (
		page *feed.Page
		err  error
	)
	switch policy {
	case feed.PolicyFollowing:
		page, err = h.feed.FollowingFeed(c.Request.Context(), viewerID, pageSize, cursor)
	case feed.PolicyForYou:
		page, err = h.feed.ForYouFeed(c.Request.Context(), viewerID, pageSize, cursor)
	case feed.PolicyTrending:
		page, err = h.feed.TrendingFeed(c.Request.Context(), viewerID, pageSize, cursor)
	}
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
