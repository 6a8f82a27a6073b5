package feed

import (
	"time"

	"github.com/qauym-app/backend/internal/media"
	"github.com/qauym-app/backend/internal/models"
)

// AuthorView is the hydrated author summary attached to a feed item.
// A nil AuthorView on a PostView marks an author deleted between
// scoring and hydration; the page renders with a gap instead of failing.
type AuthorView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// MusicView is the hydrated attached music track
type MusicView struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	AudioURL string  `json:"audio_url"`
	Duration float64 `json:"duration"`
}

// PostView is a fully hydrated feed item ready for presentation
type PostView struct {
	ID            string      `json:"id"`
	Author        *AuthorView `json:"author"`
	Content       string      `json:"content"`
	MediaURL      string      `json:"media_url,omitempty"`
	MediaURLs     []string    `json:"media_urls,omitempty"`
	Music         *MusicView  `json:"music,omitempty"`
	LikeCount     int         `json:"like_count"`
	CommentCount  int         `json:"comment_count"`
	LikedByViewer bool        `json:"liked_by_viewer"`
	CreatedAt     string      `json:"created_at"`
}

// Page is one window of a ranked feed
type Page struct {
	Items      []PostView `json:"items"`
	IsDone     bool       `json:"is_done"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// buildPostView hydrates one scored candidate into its view-model
func buildPostView(c scoredCandidate, liked bool, resolver *media.Resolver) PostView {
	post := c.post

	view := PostView{
		ID:            post.ID,
		Content:       post.Content,
		LikeCount:     post.LikeCount,
		CommentCount:  post.CommentCount,
		LikedByViewer: liked,
		CreatedAt:     post.CreatedAt.UTC().Format(time.RFC3339),
	}

	if post.User.ID != "" {
		view.Author = &AuthorView{
			ID:          post.User.ID,
			Username:    post.User.Username,
			DisplayName: post.User.DisplayName,
			AvatarURL:   post.User.GetAvatarURL(),
		}
	}

	if post.MediaURL != "" {
		view.MediaURL = resolver.URL(post.MediaURL)
	}
	if len(post.Media) > 0 {
		view.MediaURLs = make([]string, 0, len(post.Media))
		for _, m := range post.Media {
			view.MediaURLs = append(view.MediaURLs, resolver.URL(m.MediaKey))
		}
	}

	if post.MusicTrack != nil && post.MusicTrack.ID != "" {
		view.Music = &MusicView{
			ID:       post.MusicTrack.ID,
			Title:    post.MusicTrack.Title,
			Artist:   post.MusicTrack.Artist,
			AudioURL: resolver.URL(post.MusicTrack.AudioURL),
			Duration: post.MusicTrack.Duration,
		}
	}

	return view
}

// scoredCandidate pairs a candidate post with its computed score for
// the requested policy
type scoredCandidate struct {
	post  models.Post
	score int
}
