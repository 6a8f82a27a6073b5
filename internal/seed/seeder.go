package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/qauym-app/backend/internal/logger"
	"github.com/qauym-app/backend/internal/models"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data: a dense
// follow graph and enough engagement spread that every feed policy has
// meaningful ranking work to do.
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(100)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follow graph...")
	if err := s.seedFollows(users, 8); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating music tracks...")
	tracks, err := s.seedMusicTracks(users, 40)
	if err != nil {
		return fmt.Errorf("failed to seed music tracks: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, tracks, 600)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating likes...")
	if err := s.seedLikes(users, posts, 3000); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 1200); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating blocks and mutes...")
	if err := s.seedBlocksAndMutes(users); err != nil {
		return fmt.Errorf("failed to seed blocks and mutes: %w", err)
	}

	return nil
}

// SeedTest seeds a small, predictable dataset for integration tests
func (s *Seeder) SeedTest() error {
	users, err := s.seedUsers(10)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if err := s.seedFollows(users, 3); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}
	posts, err := s.seedPosts(users, nil, 50)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}
	if err := s.seedLikes(users, posts, 100); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}
	return s.seedComments(users, posts, 40)
}

// Clean removes all seeded data
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.Comment{},
		&models.Like{},
		&models.PostMedia{},
		&models.Post{},
		&models.MusicTrack{},
		&models.MutedUser{},
		&models.UserBlock{},
		&models.Follow{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Email:       fmt.Sprintf("seed%d_%s", i, gofakeit.Email()),
			Username:    fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName: gofakeit.Name(),
			Bio:         gofakeit.Sentence(8),
			Location:    gofakeit.City(),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// seedFollows gives each user roughly avgFollows outgoing edges,
// keeping the denormalized counters consistent as the real handlers do.
func (s *Seeder) seedFollows(users []models.User, avgFollows int) error {
	for i := range users {
		n := rand.Intn(avgFollows*2) + 1
		seen := map[int]bool{i: true}
		for j := 0; j < n; j++ {
			target := rand.Intn(len(users))
			if seen[target] {
				continue
			}
			seen[target] = true

			err := s.db.Transaction(func(tx *gorm.DB) error {
				follow := models.Follow{
					FollowerID:  users[i].ID,
					FollowingID: users[target].ID,
				}
				if err := tx.Create(&follow).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Where("id = ?", users[target].ID).
					UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
					return err
				}
				return tx.Model(&models.User{}).Where("id = ?", users[i].ID).
					UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedMusicTracks(users []models.User, count int) ([]models.MusicTrack, error) {
	tracks := make([]models.MusicTrack, 0, count)
	for i := 0; i < count; i++ {
		uploader := users[rand.Intn(len(users))]
		track := models.MusicTrack{
			UploaderID: uploader.ID,
			Title:      gofakeit.HipsterSentence(3),
			Artist:     gofakeit.Name(),
			AudioURL:   fmt.Sprintf("audio/%s.mp3", gofakeit.UUID()),
			Duration:   float64(gofakeit.Number(45, 360)),
		}
		if err := s.db.Create(&track).Error; err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// seedPosts spreads creation times over the last two weeks so the
// recency tiers, age penalties and the trending window all have posts
// on both sides of their boundaries.
func (s *Seeder) seedPosts(users []models.User, tracks []models.MusicTrack, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	now := time.Now().UTC()

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		createdAt := now.Add(-time.Duration(rand.Intn(14*24*60)) * time.Minute)

		post := models.Post{
			UserID:    author.ID,
			Content:   gofakeit.Sentence(rand.Intn(20) + 3),
			CreatedAt: createdAt,
		}
		if len(tracks) > 0 && rand.Float64() < 0.25 {
			trackID := tracks[rand.Intn(len(tracks))].ID
			post.MusicTrackID = &trackID
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}

		if rand.Float64() < 0.35 {
			mediaCount := rand.Intn(3) + 1
			for m := 0; m < mediaCount; m++ {
				media := models.PostMedia{
					PostID:    post.ID,
					MediaKey:  fmt.Sprintf("images/%s.jpg", gofakeit.UUID()),
					MediaType: "image",
					SortOrder: m,
				}
				if err := s.db.Create(&media).Error; err != nil {
					return nil, err
				}
			}
		}

		if err := s.db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		// Bias likes toward newer posts so trending has a gradient
		post := posts[rand.Intn(len(posts))]
		if rand.Float64() < 0.5 {
			post = posts[rand.Intn(len(posts)/2+1)]
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			var existing models.Like
			if err := tx.Where("post_id = ? AND user_id = ?", post.ID, user.ID).
				First(&existing).Error; err == nil {
				return nil
			}
			like := models.Like{PostID: post.ID, UserID: user.ID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		err := s.db.Transaction(func(tx *gorm.DB) error {
			comment := models.Comment{
				PostID:  post.ID,
				UserID:  user.ID,
				Content: gofakeit.Sentence(rand.Intn(12) + 2),
			}
			if err := tx.Create(&comment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// seedBlocksAndMutes adds a handful of each so the visibility filter is
// exercised in development, not just in tests.
func (s *Seeder) seedBlocksAndMutes(users []models.User) error {
	if len(users) < 10 {
		return nil
	}
	for i := 0; i < 5; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		block := models.UserBlock{BlockerID: a.ID, BlockedID: b.ID}
		if err := s.db.Create(&block).Error; err != nil {
			return err
		}
	}
	for i := 0; i < 10; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		mute := models.MutedUser{UserID: a.ID, MutedUserID: b.ID}
		if err := s.db.Create(&mute).Error; err != nil {
			return err
		}
	}
	return nil
}
