package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedPageResponse struct {
	Items []struct {
		ID     string `json:"id"`
		Author *struct {
			Username string `json:"username"`
		} `json:"author"`
		LikedByViewer bool `json:"liked_by_viewer"`
	} `json:"items"`
	IsDone     bool   `json:"is_done"`
	NextCursor string `json:"next_cursor"`
}

func (suite *HandlersTestSuite) getFeed(path, token string) (*httptest.ResponseRecorder, feedPageResponse) {
	req, _ := http.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var page feedPageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	return w, page
}

func (suite *HandlersTestSuite) TestTrendingFeedAnonymous() {
	t := suite.T()
	author := suite.createUser("author")
	post := suite.createPost(author.ID, time.Hour)
	require.NoError(t, suite.db.Model(&post).Update("like_count", 3).Error)

	w, page := suite.getFeed("/api/v1/feed/trending", "")

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, page.Items, 1)
	assert.Equal(t, post.ID, page.Items[0].ID)
	assert.True(t, page.IsDone)
}

func (suite *HandlersTestSuite) TestFollowingFeedAnonymousIsEmpty() {
	t := suite.T()
	author := suite.createUser("author")
	suite.createPost(author.ID, time.Hour)

	w, page := suite.getFeed("/api/v1/feed/following", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, page.Items)
	assert.True(t, page.IsDone)
}

func (suite *HandlersTestSuite) TestFollowingFeedWithViewer() {
	t := suite.T()
	viewer := suite.createUser("viewer")
	alice := suite.createUser("alice")
	bob := suite.createUser("bob")
	suite.followViaAPI(viewer.ID, alice.ID)

	alicePost := suite.createPost(alice.ID, time.Hour)
	suite.createPost(bob.ID, time.Minute)

	w, page := suite.getFeed("/api/v1/feed/following", tokenFor(t, viewer.ID))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, page.Items, 1)
	assert.Equal(t, alicePost.ID, page.Items[0].ID)
	assert.Equal(t, "alice", page.Items[0].Author.Username)
}

func (suite *HandlersTestSuite) TestForYouFeedInvalidPageSize() {
	t := suite.T()

	w, _ := suite.getFeed("/api/v1/feed/foryou?page_size=-1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "VALIDATION_ERROR", errResp["code"])
	assert.Equal(t, "page_size", errResp["field"])
}

func (suite *HandlersTestSuite) TestForYouFeedGarbagePageSizeUsesDefault() {
	t := suite.T()
	author := suite.createUser("author")
	suite.createPost(author.ID, time.Hour)

	// Non-numeric page_size falls back to the default instead of erroring
	w, page := suite.getFeed("/api/v1/feed/foryou?page_size=banana", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, page.Items, 1)
}

func (suite *HandlersTestSuite) TestFeedPaginationViaCursor() {
	t := suite.T()
	viewer := suite.createUser("viewer")
	alice := suite.createUser("alice")
	suite.followViaAPI(viewer.ID, alice.ID)

	ids := make(map[string]bool)
	for i := 0; i < 5; i++ {
		post := suite.createPost(alice.ID, time.Duration(i+1)*time.Minute)
		ids[post.ID] = true
	}

	token := tokenFor(t, viewer.ID)
	seen := make(map[string]bool)
	cursor := ""
	pages := 0
	for {
		path := "/api/v1/feed/following?page_size=2"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		w, page := suite.getFeed(path, token)
		require.Equal(t, http.StatusOK, w.Code)

		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "item repeated across pages")
			seen[item.ID] = true
		}
		pages++
		if page.IsDone {
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, len(ids))
}

func (suite *HandlersTestSuite) TestBlockedAuthorInvisibleInFeed() {
	t := suite.T()
	viewer := suite.createUser("viewer")
	enemy := suite.createUser("enemy")
	post := suite.createPost(enemy.ID, time.Hour)
	require.NoError(t, suite.db.Model(&post).Update("like_count", 50).Error)

	token := tokenFor(t, viewer.ID)

	// Visible before the block
	_, page := suite.getFeed("/api/v1/feed/trending", token)
	require.Len(t, page.Items, 1)

	req, _ := http.NewRequest("POST", "/api/v1/users/"+enemy.ID+"/block", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	_, page = suite.getFeed("/api/v1/feed/trending", token)
	assert.Empty(t, page.Items, "blocking must take effect on the next feed request")
}

// followViaAPI creates a follow through the handler so the
// denormalized counters stay consistent with production writes
func (suite *HandlersTestSuite) followViaAPI(followerID, followingID string) {
	t := suite.T()
	req, _ := http.NewRequest("POST", "/api/v1/users/"+followingID+"/follow", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, followerID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
