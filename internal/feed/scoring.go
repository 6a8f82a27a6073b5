package feed

import (
	"math"
	"time"

	"github.com/qauym-app/backend/internal/models"
)

// Personalized scoring weights. Each factor from the ranking formula is
// a named constant so it can be tested and tuned independently.
const (
	// Author relationship
	weightFollowedAuthor = 2000 // follow dominates every other factor
	weightLikedAuthor    = 800  // affinity from past likes, weaker than a follow

	// Engagement-rate tiers: (likes+comments) per hour of age, highest
	// applicable tier only
	weightEngagementHot  = 300 // ratio > 10
	weightEngagementWarm = 150 // ratio > 5
	weightEngagementMild = 75  // ratio > 2

	// Flat engagement; comments signal stronger intent than likes
	weightPerLike    = 3
	weightPerComment = 5

	// Recency tiers by age, mutually exclusive
	weightRecencyHalfHour = 200 // < 0.5h
	weightRecencyTwoHours = 150 // < 2h
	weightRecencySixHours = 100 // < 6h
	weightRecencyHalfDay  = 60  // < 12h
	weightRecencyDay      = 30  // < 24h
	weightRecencyTwoDays  = 10  // < 48h
	weightRecencyThreeDay = 5   // < 72h

	// Brand-new content that already shows traction
	weightTrendingNew      = 100
	trendingNewMaxAgeHours = 3

	// Diversity suppression: each repeat post from an author already
	// placed in this scoring pass costs step * occurrences_so_far
	diversityPenaltyStep = 150

	// Richer content, modest enough to never beat relationship signals
	weightHasMedia = 50
	weightHasMusic = 30

	// Age penalties, stacking, independent of the recency tiers
	penaltyOlderThreeDays = 30  // > 72h
	penaltyOlderWeek      = 100 // > 168h, additional
	penaltyOlderFortnight = 300 // > 336h, additional

	// Content the viewer already liked or commented on
	penaltyAlreadySeen = 1000
)

// Trending scoring weights
const (
	trendingLikeWeight    = 2
	trendingCommentWeight = 3
)

// TrendingWindow is how far back the trending feed looks
const TrendingWindow = 7 * 24 * time.Hour

// PersonalizedScore computes the for-you score of one candidate post.
// It is a pure function of the post, the viewer context, the request
// time and the number of posts by the same author already placed during
// this scoring pass (candidate-iteration order).
func PersonalizedScore(post *models.Post, vc *ViewerContext, now time.Time, authorOccurrences int) int {
	score := 0

	if vc.Following[post.UserID] {
		score += weightFollowedAuthor
	}
	if vc.LikedAuthorIDs[post.UserID] {
		score += weightLikedAuthor
	}

	ageHours := now.Sub(post.CreatedAt).Hours()
	totalEngagement := post.LikeCount + post.CommentCount

	// Engagement rate, highest applicable tier only
	engagementRatio := float64(totalEngagement) / math.Max(1, ageHours)
	switch {
	case engagementRatio > 10:
		score += weightEngagementHot
	case engagementRatio > 5:
		score += weightEngagementWarm
	case engagementRatio > 2:
		score += weightEngagementMild
	}

	score += post.LikeCount * weightPerLike
	score += post.CommentCount * weightPerComment

	switch {
	case ageHours < 0.5:
		score += weightRecencyHalfHour
	case ageHours < 2:
		score += weightRecencyTwoHours
	case ageHours < 6:
		score += weightRecencySixHours
	case ageHours < 12:
		score += weightRecencyHalfDay
	case ageHours < 24:
		score += weightRecencyDay
	case ageHours < 48:
		score += weightRecencyTwoDays
	case ageHours < 72:
		score += weightRecencyThreeDay
	}

	if ageHours < trendingNewMaxAgeHours && totalEngagement > 0 {
		score += weightTrendingNew
	}

	score -= diversityPenaltyStep * authorOccurrences

	if post.HasMedia() {
		score += weightHasMedia
	}
	if post.HasMusic() {
		score += weightHasMusic
	}

	// Old-content penalties stack, driving very old posts deeply
	// negative regardless of engagement
	if ageHours > 72 {
		score -= penaltyOlderThreeDays
	}
	if ageHours > 168 {
		score -= penaltyOlderWeek
	}
	if ageHours > 336 {
		score -= penaltyOlderFortnight
	}

	if vc.LikedPostIDs[post.ID] || vc.CommentedPostIDs[post.ID] {
		score -= penaltyAlreadySeen
	}

	return score
}

// TrendingScore computes the trending score of a post: raw collective
// engagement with no personalization and no decay inside the window.
func TrendingScore(post *models.Post) int {
	return post.LikeCount*trendingLikeWeight + post.CommentCount*trendingCommentWeight
}
