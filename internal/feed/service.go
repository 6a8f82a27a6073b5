package feed

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/qauym-app/backend/internal/cache"
	apperrors "github.com/qauym-app/backend/internal/errors"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/media"
	"github.com/qauym-app/backend/internal/metrics"
	"github.com/qauym-app/backend/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feed policy names, used for routing, metrics and tracing
const (
	PolicyFollowing = "following"
	PolicyForYou    = "foryou"
	PolicyTrending  = "trending"
)

const (
	// MaxPageSize caps a single page request
	MaxPageSize = 100

	// Candidate scan ceilings. The personalized and trending feeds cap
	// the raw scan to bound request cost; content below the ceiling is
	// never scored at all. The following feed scans the whole posts
	// table filtered by the follow set.
	personalizedScanLimit = 800
	trendingScanLimit     = 1000

	// Shared trending candidates are cached pre-visibility-filter so a
	// viewer's exclusions are always applied fresh at request time.
	trendingCacheKey = "feed:trending:candidates"
	trendingCacheTTL = time.Minute
)

// Service assembles the three ranked feeds. It is stateless per
// request: every page recomputes its candidate list from the current
// snapshot, takes no locks and shares no mutable state across requests.
type Service struct {
	db     *gorm.DB
	redis  *cache.RedisClient
	media  *media.Resolver
	tracer trace.Tracer
}

// NewService creates a feed service. redisClient may be nil; the
// trending cache then degrades to direct queries.
func NewService(db *gorm.DB, redisClient *cache.RedisClient, resolver *media.Resolver) *Service {
	return &Service{
		db:     db,
		redis:  redisClient,
		media:  resolver,
		tracer: otel.Tracer("feed"),
	}
}

// FollowingFeed returns a reverse-chronological page of posts authored
// by users the viewer follows. Anonymous viewers have an empty follow
// set and get an empty, terminal page.
func (s *Service) FollowingFeed(ctx context.Context, viewerID string, pageSize int, cursorToken string) (*Page, error) {
	pageSize, err := validatePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "feed.following")
	defer span.End()
	start := time.Now()

	vc, err := BuildViewerContext(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	if len(vc.Following) > 0 {
		followedIDs := make([]string, 0, len(vc.Following))
		for id := range vc.Following {
			followedIDs = append(followedIDs, id)
		}
		sort.Strings(followedIDs)

		err = s.candidateQuery(ctx).
			Where("user_id IN ?", followedIDs).
			Order("created_at DESC").
			Find(&posts).Error
		if err != nil {
			return nil, err
		}
	}

	// Creation time doubles as the sort key so the shared keyset cursor
	// machinery preserves plain reverse-chronological order.
	ranked := make([]scoredCandidate, 0, len(posts))
	for i := range posts {
		if !visible(&posts[i], vc) {
			continue
		}
		ranked = append(ranked, scoredCandidate{post: posts[i], score: int(posts[i].CreatedAt.Unix())})
	}
	sortByScore(ranked)

	page, err := s.paginate(ctx, vc, ranked, pageSize, cursorToken)
	if err != nil {
		return nil, err
	}
	s.record(span, PolicyFollowing, len(ranked), len(page.Items), time.Since(start))
	return page, nil
}

// ForYouFeed returns a page of the personalized feed: the newest
// candidate window scored by the multi-factor formula.
func (s *Service) ForYouFeed(ctx context.Context, viewerID string, pageSize int, cursorToken string) (*Page, error) {
	pageSize, err := validatePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "feed.foryou")
	defer span.End()
	start := time.Now()

	vc, err := BuildViewerContext(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	err = s.candidateQuery(ctx).
		Order("created_at DESC").
		Limit(personalizedScanLimit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	authorSeen := make(map[string]int)

	ranked := make([]scoredCandidate, 0, len(posts))
	for i := range posts {
		if !visible(&posts[i], vc) {
			continue
		}
		occurrences := authorSeen[posts[i].UserID]
		score := PersonalizedScore(&posts[i], vc, now, occurrences)
		authorSeen[posts[i].UserID] = occurrences + 1
		ranked = append(ranked, scoredCandidate{post: posts[i], score: score})
	}
	sortByScore(ranked)

	page, err := s.paginate(ctx, vc, ranked, pageSize, cursorToken)
	if err != nil {
		return nil, err
	}
	s.record(span, PolicyForYou, len(ranked), len(page.Items), time.Since(start))
	return page, nil
}

// TrendingFeed returns a page of the trending feed: raw collective
// engagement over the last seven days, identical for every viewer up to
// their personal exclusion set.
func (s *Service) TrendingFeed(ctx context.Context, viewerID string, pageSize int, cursorToken string) (*Page, error) {
	pageSize, err := validatePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "feed.trending")
	defer span.End()
	start := time.Now()

	vc, err := BuildViewerContext(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.trendingCandidates(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		if !visible(&candidates[i].post, vc) {
			continue
		}
		ranked = append(ranked, candidates[i])
	}

	page, err := s.paginate(ctx, vc, ranked, pageSize, cursorToken)
	if err != nil {
		return nil, err
	}
	s.record(span, PolicyTrending, len(ranked), len(page.Items), time.Since(start))
	return page, nil
}

// trendingEntry is the cached shape of one scored trending candidate
type trendingEntry struct {
	ID    string `json:"id"`
	Score int    `json:"s"`
}

// trendingCandidates returns the scored, sorted trending candidate
// list, shared across viewers and cached briefly. Cached entries hold
// only (id, score); posts are re-read so deletions never resurface.
func (s *Service) trendingCandidates(ctx context.Context) ([]scoredCandidate, error) {
	m := metrics.Get()

	if s.redis != nil {
		raw, err := s.redis.Get(ctx, trendingCacheKey)
		if err == nil {
			var entries []trendingEntry
			if jsonErr := json.Unmarshal([]byte(raw), &entries); jsonErr == nil {
				m.CacheHitsTotal.WithLabelValues("trending_candidates").Inc()
				return s.loadTrendingEntries(ctx, entries)
			}
		} else if !cache.IsNil(err) {
			logger.WarnWithFields("Trending cache read failed", err)
		}
		m.CacheMissesTotal.WithLabelValues("trending_candidates").Inc()
	}

	cutoff := time.Now().UTC().Add(-TrendingWindow)

	var posts []models.Post
	err := s.candidateQuery(ctx).
		Where("created_at > ?", cutoff).
		Order("created_at DESC").
		Limit(trendingScanLimit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	ranked := make([]scoredCandidate, 0, len(posts))
	for i := range posts {
		ranked = append(ranked, scoredCandidate{post: posts[i], score: TrendingScore(&posts[i])})
	}
	sortByScore(ranked)

	if s.redis != nil {
		entries := make([]trendingEntry, len(ranked))
		for i, c := range ranked {
			entries[i] = trendingEntry{ID: c.post.ID, Score: c.score}
		}
		if raw, jsonErr := json.Marshal(entries); jsonErr == nil {
			if err := s.redis.SetEx(ctx, trendingCacheKey, raw, trendingCacheTTL); err != nil {
				logger.WarnWithFields("Trending cache write failed", err)
			}
		}
	}

	return ranked, nil
}

// loadTrendingEntries rehydrates cached (id, score) entries into full
// candidates, preserving the cached ranking order and dropping posts
// deleted since the cache was written.
func (s *Service) loadTrendingEntries(ctx context.Context, entries []trendingEntry) ([]scoredCandidate, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	var posts []models.Post
	err := s.candidateQuery(ctx).
		Where("id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	ranked := make([]scoredCandidate, 0, len(entries))
	for _, e := range entries {
		post, ok := byID[e.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, scoredCandidate{post: *post, score: e.Score})
	}
	return ranked, nil
}

// candidateQuery is the shared base query for candidate retrieval with
// everything hydration needs preloaded.
func (s *Service) candidateQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("User").
		Preload("MusicTrack").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("post_media.sort_order ASC")
		})
}

// visible applies the visibility filter to one candidate: the combined
// exclusion set plus the missing-author check. A post whose author was
// deleted is filtered, never scored.
func visible(post *models.Post, vc *ViewerContext) bool {
	if vc.Excluded[post.UserID] {
		return false
	}
	// Preload of a soft-deleted author leaves a zero-value User
	return post.User.ID != ""
}

// paginate windows the ranked list at the cursor position and hydrates
// the page. All candidates are already filtered and sorted.
func (s *Service) paginate(ctx context.Context, vc *ViewerContext, ranked []scoredCandidate, pageSize int, cursorToken string) (*Page, error) {
	cur := DecodeCursor(cursorToken)
	start := cur.resume(ranked)
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	window := ranked[start:end]

	liked, err := s.viewerLikeState(ctx, vc.ViewerID, window)
	if err != nil {
		// Like-state is decoration; degrade rather than fail the page
		logger.Log.Warn("Failed to load viewer like-state",
			logger.WithUserID(vc.ViewerID),
			zap.Error(err))
		liked = map[string]bool{}
	}

	items := make([]PostView, 0, len(window))
	for _, c := range window {
		items = append(items, buildPostView(c, liked[c.post.ID], s.media))
	}

	isDone := end >= len(ranked)
	page := &Page{
		Items:  items,
		IsDone: isDone,
	}
	if !isDone {
		last := window[len(window)-1]
		page.NextCursor = EncodeCursor(Cursor{
			Score:  last.score,
			PostID: last.post.ID,
			Offset: end,
		})
	}
	return page, nil
}

// viewerLikeState bulk-loads which posts on the page the viewer liked
func (s *Service) viewerLikeState(ctx context.Context, viewerID string, window []scoredCandidate) (map[string]bool, error) {
	liked := make(map[string]bool)
	if viewerID == "" || len(window) == 0 {
		return liked, nil
	}

	ids := make([]string, len(window))
	for i, c := range window {
		ids[i] = c.post.ID
	}

	var likedIDs []string
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", viewerID, ids).
		Pluck("post_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range likedIDs {
		liked[id] = true
	}
	return liked, nil
}

// sortByScore stable-sorts candidates by score descending; ties keep
// candidate retrieval order.
func sortByScore(ranked []scoredCandidate) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
}

func validatePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return 0, apperrors.ValidationError("page_size", "page size must be a positive integer")
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageSize, nil
}

// record emits metrics and span attributes for one assembled page
func (s *Service) record(span trace.Span, policy string, candidates, served int, elapsed time.Duration) {
	m := metrics.Get()
	m.FeedRequestsTotal.WithLabelValues(policy).Inc()
	m.FeedGenerationTime.WithLabelValues(policy).Observe(elapsed.Seconds())
	m.FeedCandidatesScored.WithLabelValues(policy).Observe(float64(candidates))
	m.FeedCandidatesServed.WithLabelValues(policy).Add(float64(served))

	span.SetAttributes(
		attribute.String("feed.policy", policy),
		attribute.Int("feed.candidates", candidates),
		attribute.Int("feed.items", served),
	)
}
