package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/qauym-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) postJSON(path, userID string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(suite.T(), err)

	req, _ := http.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(suite.T(), userID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) TestCreatePostWithMedia() {
	t := suite.T()
	author := suite.createUser("author")

	w := suite.postJSON("/api/v1/posts", author.ID, map[string]interface{}{
		"content":    "look at this",
		"media_keys": []string{"images/one.jpg", "images/two.jpg"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "look at this", created.Content)
	require.Len(t, created.Media, 2)
	assert.Equal(t, "images/one.jpg", created.Media[0].MediaKey)

	assert.Equal(t, 1, suite.reloadUser(author.ID).PostCount)
}

func (suite *HandlersTestSuite) TestCreatePostWithMusicTrack() {
	t := suite.T()
	author := suite.createUser("author")
	track := models.MusicTrack{UploaderID: author.ID, Title: "Track", AudioURL: "audio/t.mp3"}
	require.NoError(t, suite.db.Create(&track).Error)

	w := suite.postJSON("/api/v1/posts", author.ID, map[string]interface{}{
		"music_track_id": track.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.MusicTrack)
	assert.Equal(t, "Track", created.MusicTrack.Title)
}

func (suite *HandlersTestSuite) TestCreatePostRejectsEmpty() {
	t := suite.T()
	author := suite.createUser("author")

	w := suite.postJSON("/api/v1/posts", author.ID, map[string]interface{}{
		"content": "   ",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostUnknownTrack() {
	t := suite.T()
	author := suite.createUser("author")

	w := suite.postJSON("/api/v1/posts", author.ID, map[string]interface{}{
		"music_track_id": "no-such-track",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDeletePostOwnerOnly() {
	t := suite.T()
	author := suite.createUser("author")
	intruder := suite.createUser("intruder")
	post := suite.createPost(author.ID, time.Hour)

	w := suite.doAuthed("DELETE", "/api/v1/posts/"+post.ID, intruder.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.doAuthed("DELETE", "/api/v1/posts/"+post.ID, author.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	// Soft-deleted: gone from normal queries, recoverable with Unscoped
	var count int64
	require.NoError(t, suite.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, suite.db.Unscoped().Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestDeletedPostLeavesFeeds() {
	t := suite.T()
	author := suite.createUser("author")
	post := suite.createPost(author.ID, time.Hour)
	require.NoError(t, suite.db.Model(&post).Update("like_count", 10).Error)

	_, page := suite.getFeed("/api/v1/feed/trending", "")
	require.Len(t, page.Items, 1)

	w := suite.doAuthed("DELETE", "/api/v1/posts/"+post.ID, author.ID)
	require.Equal(t, http.StatusOK, w.Code)

	_, page = suite.getFeed("/api/v1/feed/trending", "")
	assert.Empty(t, page.Items)
}

func (suite *HandlersTestSuite) TestGetUserPosts() {
	t := suite.T()
	author := suite.createUser("author")
	old := suite.createPost(author.ID, 2*time.Hour)
	recent := suite.createPost(author.ID, time.Hour)

	req, _ := http.NewRequest("GET", "/api/v1/users/"+author.ID+"/posts", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts []models.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, recent.ID, resp.Posts[0].ID)
	assert.Equal(t, old.ID, resp.Posts[1].ID)
}
