package feed

import (
	"encoding/base64"
	"encoding/json"
)

// Cursor is the decoded pagination token. It is a keyset cursor over
// the scored, re-derived candidate list: the last item's (score, id)
// pair locates the resume point even when concurrent writes or the
// passage of time have shifted items around, with the raw offset kept
// as a final fallback. An empty token means first page.
type Cursor struct {
	Score  int    `json:"s"`
	PostID string `json:"id,omitempty"`
	Offset int    `json:"o"`
}

// EncodeCursor serializes a cursor into an opaque URL-safe token
func EncodeCursor(c Cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque token. Malformed or hand-mangled tokens
// restart pagination at the first page rather than erroring: cursors go
// stale after long idle periods and are never hand-constructed.
func DecodeCursor(token string) Cursor {
	if token == "" {
		return Cursor{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}
	}
	if c.Offset < 0 {
		return Cursor{}
	}
	return c
}

// resume locates the index in the freshly ranked list where the next
// page starts. Resolution order:
//  1. the last-seen post id, if still present: resume right after it;
//  2. the first item scoring strictly below the last-seen score
//     (the item vanished; everything at or above its score was served);
//  3. the positional offset, clamped.
// Under a static snapshot this yields exact, gap-free pagination; under
// concurrent mutation it degrades far more gracefully than a bare
// offset.
func (c Cursor) resume(ranked []scoredCandidate) int {
	if c.PostID == "" {
		return clamp(c.Offset, len(ranked))
	}
	for i := range ranked {
		if ranked[i].post.ID == c.PostID {
			return i + 1
		}
	}
	for i := range ranked {
		if ranked[i].score < c.Score {
			return i
		}
	}
	if c.Offset > 0 {
		return clamp(c.Offset, len(ranked))
	}
	return len(ranked)
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}
