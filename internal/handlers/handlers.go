package handlers

import (
	"github.com/qauym-app/backend/internal/cache"
	"github.com/qauym-app/backend/internal/feed"
	"github.com/qauym-app/backend/internal/media"
	"gorm.io/gorm"
)

// Handlers holds the request handlers and their shared dependencies
type Handlers struct {
	db    *gorm.DB
	feed  *feed.Service
	media *media.Resolver
}

// New creates the handler set. redisClient may be nil in tests.
func New(db *gorm.DB, redisClient *cache.RedisClient, resolver *media.Resolver) *Handlers {
	return &Handlers{
		db:    db,
		feed:  feed.NewService(db, redisClient, resolver),
		media: resolver,
	}
}
