package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var (
	feedPageSize int
	feedCursor   string
	feedAll      bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Feed commands",
	Long:  "View the following, for-you and trending feeds",
}

var feedFollowingCmd = &cobra.Command{
	Use:   "following",
	Short: "View posts from people you follow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewFeed("following")
	},
}

var feedForYouCmd = &cobra.Command{
	Use:   "foryou",
	Short: "View your personalized feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewFeed("foryou")
	},
}

var feedTrendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "View trending posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewFeed("trending")
	},
}

type feedItem struct {
	ID     string `json:"id"`
	Author *struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"author"`
	Content      string `json:"content"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	CreatedAt    string `json:"created_at"`
}

type feedPage struct {
	Items      []feedItem `json:"items"`
	IsDone     bool       `json:"is_done"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// viewFeed fetches pages from one feed endpoint and prints them,
// following next_cursor to exhaustion when --all is set.
func viewFeed(policy string) error {
	client := &http.Client{Timeout: 15 * time.Second}
	cursor := feedCursor

	for {
		page, err := fetchFeedPage(client, policy, cursor)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			printItem(item)
		}

		if page.IsDone || !feedAll {
			if !page.IsDone && page.NextCursor != "" {
				fmt.Printf("\nnext cursor: %s\n", page.NextCursor)
			}
			return nil
		}
		cursor = page.NextCursor
	}
}

func fetchFeedPage(client *http.Client, policy, cursor string) (*feedPage, error) {
	endpoint := fmt.Sprintf("%s/api/v1/feed/%s", apiBaseURL, policy)
	query := url.Values{}
	query.Set("page_size", fmt.Sprintf("%d", feedPageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var page feedPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode feed page: %w", err)
	}
	return &page, nil
}

func printItem(item feedItem) {
	author := "[deleted]"
	if item.Author != nil {
		author = "@" + item.Author.Username
	}
	fmt.Printf("%s  %s\n", author, item.CreatedAt)
	if item.Content != "" {
		fmt.Printf("  %s\n", item.Content)
	}
	fmt.Printf("  ♥ %d   💬 %d\n\n", item.LikeCount, item.CommentCount)
}

func init() {
	for _, c := range []*cobra.Command{feedFollowingCmd, feedForYouCmd, feedTrendingCmd} {
		c.Flags().IntVar(&feedPageSize, "page-size", 20, "Results per page")
		c.Flags().StringVar(&feedCursor, "cursor", "", "Resume from an opaque page cursor")
		c.Flags().BoolVar(&feedAll, "all", false, "Keep fetching pages until the feed is exhausted")
	}

	feedCmd.AddCommand(feedFollowingCmd)
	feedCmd.AddCommand(feedForYouCmd)
	feedCmd.AddCommand(feedTrendingCmd)
}
