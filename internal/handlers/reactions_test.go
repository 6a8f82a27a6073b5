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

func (suite *HandlersTestSuite) reloadPost(id string) models.Post {
	var post models.Post
	require.NoError(suite.T(), suite.db.First(&post, "id = ?", id).Error)
	return post
}

func (suite *HandlersTestSuite) TestLikeMaintainsCounter() {
	t := suite.T()
	author := suite.createUser("author")
	fan := suite.createUser("fan")
	post := suite.createPost(author.ID, time.Hour)

	w := suite.doAuthed("POST", "/api/v1/posts/"+post.ID+"/like", fan.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, suite.reloadPost(post.ID).LikeCount)

	// Double like is idempotent
	w = suite.doAuthed("POST", "/api/v1/posts/"+post.ID+"/like", fan.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, suite.reloadPost(post.ID).LikeCount)

	var likeCount int64
	require.NoError(t, suite.db.Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", post.ID, fan.ID).
		Count(&likeCount).Error)
	assert.Equal(t, int64(1), likeCount, "counter and likes table must agree")

	w = suite.doAuthed("DELETE", "/api/v1/posts/"+post.ID+"/like", fan.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, suite.reloadPost(post.ID).LikeCount)

	// Unliking something never liked is a no-op
	w = suite.doAuthed("DELETE", "/api/v1/posts/"+post.ID+"/like", fan.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, suite.reloadPost(post.ID).LikeCount)
}

func (suite *HandlersTestSuite) TestLikeUnknownPost() {
	t := suite.T()
	fan := suite.createUser("fan")

	w := suite.doAuthed("POST", "/api/v1/posts/no-such-post/like", fan.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCommentMaintainsCounter() {
	t := suite.T()
	author := suite.createUser("author")
	reader := suite.createUser("reader")
	post := suite.createPost(author.ID, time.Hour)

	body, _ := json.Marshal(map[string]string{"content": "great post"})
	req, _ := http.NewRequest("POST", "/api/v1/posts/"+post.ID+"/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, reader.ID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, suite.reloadPost(post.ID).CommentCount)

	var comment models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, "great post", comment.Content)

	// Deleting the comment decrements the counter
	w2 := suite.doAuthed("DELETE", "/api/v1/comments/"+comment.ID, reader.ID)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, 0, suite.reloadPost(post.ID).CommentCount)
}

func (suite *HandlersTestSuite) TestCommentValidation() {
	t := suite.T()
	author := suite.createUser("author")
	reader := suite.createUser("reader")
	post := suite.createPost(author.ID, time.Hour)

	for _, payload := range []string{`{}`, `{"content":"   "}`} {
		req, _ := http.NewRequest("POST", "/api/v1/posts/"+post.ID+"/comments", bytes.NewReader([]byte(payload)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, reader.ID))
		w := httptest.NewRecorder()
		suite.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "payload %s", payload)
	}
	assert.Equal(t, 0, suite.reloadPost(post.ID).CommentCount)
}

func (suite *HandlersTestSuite) TestDeleteSomeoneElsesComment() {
	t := suite.T()
	author := suite.createUser("author")
	commenter := suite.createUser("commenter")
	intruder := suite.createUser("intruder")
	post := suite.createPost(author.ID, time.Hour)

	comment := models.Comment{PostID: post.ID, UserID: commenter.ID, Content: "mine"}
	require.NoError(t, suite.db.Create(&comment).Error)

	w := suite.doAuthed("DELETE", "/api/v1/comments/"+comment.ID, intruder.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
