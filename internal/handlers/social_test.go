package handlers

import (
	"net/http"
	"net/http/httptest"

	"github.com/qauym-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) doAuthed(method, path, userID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(suite.T(), userID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) reloadUser(id string) models.User {
	var user models.User
	require.NoError(suite.T(), suite.db.First(&user, "id = ?", id).Error)
	return user
}

func (suite *HandlersTestSuite) TestFollowUpdatesCounters() {
	t := suite.T()
	follower := suite.createUser("follower")
	followee := suite.createUser("followee")

	w := suite.doAuthed("POST", "/api/v1/users/"+followee.ID+"/follow", follower.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, suite.reloadUser(followee.ID).FollowerCount)
	assert.Equal(t, 1, suite.reloadUser(follower.ID).FollowingCount)

	// Following twice is idempotent, counters stay put
	w = suite.doAuthed("POST", "/api/v1/users/"+followee.ID+"/follow", follower.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, suite.reloadUser(followee.ID).FollowerCount)

	w = suite.doAuthed("DELETE", "/api/v1/users/"+followee.ID+"/follow", follower.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, suite.reloadUser(followee.ID).FollowerCount)
	assert.Equal(t, 0, suite.reloadUser(follower.ID).FollowingCount)
}

func (suite *HandlersTestSuite) TestFollowSelfRejected() {
	t := suite.T()
	user := suite.createUser("narcissist")

	w := suite.doAuthed("POST", "/api/v1/users/"+user.ID+"/follow", user.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestFollowUnknownUser() {
	t := suite.T()
	user := suite.createUser("user")

	w := suite.doAuthed("POST", "/api/v1/users/no-such-user/follow", user.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestFollowRequiresAuth() {
	t := suite.T()
	followee := suite.createUser("followee")

	req, _ := http.NewRequest("POST", "/api/v1/users/"+followee.ID+"/follow", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestBlockSeversFollowsBothWays() {
	t := suite.T()
	a := suite.createUser("usera")
	b := suite.createUser("userb")

	suite.followViaAPI(a.ID, b.ID)
	suite.followViaAPI(b.ID, a.ID)

	w := suite.doAuthed("POST", "/api/v1/users/"+b.ID+"/block", a.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	var followCount int64
	require.NoError(t, suite.db.Model(&models.Follow{}).
		Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
			a.ID, b.ID, b.ID, a.ID).
		Count(&followCount).Error)
	assert.Zero(t, followCount, "blocking removes follow edges in both directions")

	assert.Equal(t, 0, suite.reloadUser(a.ID).FollowerCount)
	assert.Equal(t, 0, suite.reloadUser(a.ID).FollowingCount)
	assert.Equal(t, 0, suite.reloadUser(b.ID).FollowerCount)
	assert.Equal(t, 0, suite.reloadUser(b.ID).FollowingCount)
}

func (suite *HandlersTestSuite) TestUnblockRestoresVisibility() {
	t := suite.T()
	viewer := suite.createUser("viewer")
	other := suite.createUser("other")
	post := suite.createPost(other.ID, 0)
	require.NoError(t, suite.db.Model(&post).Update("like_count", 5).Error)

	w := suite.doAuthed("POST", "/api/v1/users/"+other.ID+"/block", viewer.ID)
	require.Equal(t, http.StatusOK, w.Code)

	_, page := suite.getFeed("/api/v1/feed/trending", tokenFor(t, viewer.ID))
	require.Empty(t, page.Items)

	w = suite.doAuthed("DELETE", "/api/v1/users/"+other.ID+"/block", viewer.ID)
	require.Equal(t, http.StatusOK, w.Code)

	_, page = suite.getFeed("/api/v1/feed/trending", tokenFor(t, viewer.ID))
	assert.Len(t, page.Items, 1)
}

func (suite *HandlersTestSuite) TestMuteAndListMuted() {
	t := suite.T()
	viewer := suite.createUser("viewer")
	noisy := suite.createUser("noisy")

	w := suite.doAuthed("POST", "/api/v1/users/"+noisy.ID+"/mute", viewer.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.doAuthed("GET", "/api/v1/social/muted", viewer.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), noisy.Username)

	w = suite.doAuthed("DELETE", "/api/v1/users/"+noisy.ID+"/mute", viewer.ID)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.doAuthed("GET", "/api/v1/social/muted", viewer.ID)
	assert.NotContains(t, w.Body.String(), noisy.Username)
}

func (suite *HandlersTestSuite) TestMuteHidesOnlyForMuter() {
	t := suite.T()
	muter := suite.createUser("muter")
	muted := suite.createUser("muted")
	bystander := suite.createUser("bystander")

	post := suite.createPost(muted.ID, 0)
	require.NoError(t, suite.db.Model(&post).Update("like_count", 5).Error)
	muterPost := suite.createPost(muter.ID, 0)
	require.NoError(t, suite.db.Model(&muterPost).Update("like_count", 5).Error)

	w := suite.doAuthed("POST", "/api/v1/users/"+muted.ID+"/mute", muter.ID)
	require.Equal(t, http.StatusOK, w.Code)

	// Muter no longer sees the muted user's post
	_, page := suite.getFeed("/api/v1/feed/trending", tokenFor(t, muter.ID))
	require.Len(t, page.Items, 1)
	assert.Equal(t, muterPost.ID, page.Items[0].ID)

	// The muted user still sees the muter's post
	_, page = suite.getFeed("/api/v1/feed/trending", tokenFor(t, muted.ID))
	assert.Len(t, page.Items, 2)

	// Bystanders are unaffected
	_, page = suite.getFeed("/api/v1/feed/trending", tokenFor(t, bystander.ID))
	assert.Len(t, page.Items, 2)
}
