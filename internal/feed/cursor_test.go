package feed

import (
	"encoding/base64"
	"testing"

	"github.com/qauym-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func rankedFixture(ids []string, scores []int) []scoredCandidate {
	ranked := make([]scoredCandidate, len(ids))
	for i := range ids {
		ranked[i] = scoredCandidate{post: models.Post{ID: ids[i]}, score: scores[i]}
	}
	return ranked
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{Score: 1234, PostID: "post-7", Offset: 40}
	token := EncodeCursor(original)
	assert.NotEmpty(t, token)

	decoded := DecodeCursor(token)
	assert.Equal(t, original, decoded)
}

func TestDecodeCursorEmptyTokenIsFirstPage(t *testing.T) {
	assert.Equal(t, Cursor{}, DecodeCursor(""))
}

func TestDecodeCursorMalformedTokensAreFirstPage(t *testing.T) {
	cases := []string{
		"not-base64!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"s":"string-score"}`)),
	}
	for _, token := range cases {
		assert.Equal(t, Cursor{}, DecodeCursor(token), "token %q should restart pagination", token)
	}
}

func TestDecodeCursorNegativeOffsetIsFirstPage(t *testing.T) {
	token := EncodeCursor(Cursor{Score: 10, PostID: "p", Offset: -5})
	assert.Equal(t, Cursor{}, DecodeCursor(token))
}

func TestResumeFirstPage(t *testing.T) {
	ranked := rankedFixture([]string{"a", "b", "c"}, []int{30, 20, 10})
	assert.Equal(t, 0, Cursor{}.resume(ranked))
}

func TestResumeByPostID(t *testing.T) {
	ranked := rankedFixture([]string{"a", "b", "c", "d"}, []int{40, 30, 20, 10})

	cur := Cursor{Score: 30, PostID: "b", Offset: 2}
	assert.Equal(t, 2, cur.resume(ranked), "resume right after the last-seen post")
}

func TestResumeByPostIDIgnoresShiftedOffset(t *testing.T) {
	// A new high-scoring post arrived; "b" moved from index 1 to 2. The
	// id match wins over the stale offset.
	ranked := rankedFixture([]string{"new", "a", "b", "c"}, []int{50, 40, 30, 20})

	cur := Cursor{Score: 30, PostID: "b", Offset: 2}
	assert.Equal(t, 3, cur.resume(ranked))
}

func TestResumeByScoreWhenPostVanished(t *testing.T) {
	// "b" (score 30) was deleted. Everything scoring >= 30 was already
	// served, so resume at the first item strictly below.
	ranked := rankedFixture([]string{"a", "c", "d"}, []int{40, 20, 10})

	cur := Cursor{Score: 30, PostID: "b", Offset: 2}
	assert.Equal(t, 1, cur.resume(ranked))
}

func TestResumeFallsBackToOffset(t *testing.T) {
	// Post gone and every remaining item scores >= the cursor score
	ranked := rankedFixture([]string{"a", "c", "d"}, []int{90, 80, 70})

	cur := Cursor{Score: 30, PostID: "gone", Offset: 2}
	assert.Equal(t, 2, cur.resume(ranked))
}

func TestResumeOffsetClamped(t *testing.T) {
	ranked := rankedFixture([]string{"a", "b"}, []int{20, 10})

	cur := Cursor{Offset: 50}
	assert.Equal(t, 2, cur.resume(ranked), "offset past the end clamps to a terminal empty page")
}

func TestResumeExhaustedWithoutOffset(t *testing.T) {
	// Vanished post, nothing scores below it, no offset recorded: the
	// feed is exhausted rather than restarted.
	ranked := rankedFixture([]string{"a"}, []int{50})

	cur := Cursor{Score: 10, PostID: "gone", Offset: 0}
	assert.Equal(t, 1, cur.resume(ranked))
}
