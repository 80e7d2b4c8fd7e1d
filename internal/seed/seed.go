package seed

import (
	"context"
	"fmt"
	"log"

	"fitcraft/internal/cache"
	"fitcraft/internal/models"
	"fitcraft/internal/storage"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	PostsPerUser int
	ShouldClean  bool
	// SkipBcrypt hashes the shared password at the minimum cost.
	SkipBcrypt bool
	DryRun     bool
	MaxDays    int
	RandomSeed int64
}

// Seeder fills the database with demo accounts and posts.
type Seeder struct {
	db      *gorm.DB
	blobs   storage.BlobStore
	factory *Factory
	opts    Options
}

// Result summarises a seeding run.
type Result struct {
	Users []*models.User
	Posts []*models.Post
}

func NewSeeder(db *gorm.DB, blobs storage.BlobStore, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		blobs:   blobs,
		factory: NewFactory(db, blobs, opts),
		opts:    opts,
	}
}

// Run creates NumUsers accounts with up to PostsPerUser posts each.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	log.Printf("🌱 Seeding %d users with up to %d posts each...", s.opts.NumUsers, s.opts.PostsPerUser)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return res, fmt.Errorf("failed to create user: %w", err)
		}
		res.Users = append(res.Users, user)

		n := s.opts.PostsPerUser
		if n > 1 {
			n = s.factory.rng.Intn(n) + 1
		}
		for j := 0; j < n; j++ {
			post, err := s.factory.CreatePost(ctx, user)
			if err != nil {
				return res, fmt.Errorf("failed to create post: %w", err)
			}
			res.Posts = append(res.Posts, post)
		}
	}

	if !s.opts.DryRun {
		cache.Invalidate(ctx, cache.FeedKey)
	}
	log.Printf("✓ %d users and %d posts created", len(res.Users), len(res.Posts))
	return res, nil
}

// ClearAll removes every post, profile and user along with uploaded images.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")

	var keys []string
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Pluck("image", &keys).Error; err != nil {
		return fmt.Errorf("list post images: %w", err)
	}
	var avatars []string
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Where("avatar <> ''").Pluck("avatar", &avatars).Error; err != nil {
		return fmt.Errorf("list avatars: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Post{}, &models.Profile{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	for _, key := range append(keys, avatars...) {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Printf("⚠️  could not delete %s: %v", key, err)
		}
	}
	cache.Invalidate(ctx, cache.FeedKey)
	return nil
}
