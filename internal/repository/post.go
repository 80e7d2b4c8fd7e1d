package repository

import (
	"context"
	"errors"

	"fitcraft/internal/cache"
	"fitcraft/internal/database"
	"fitcraft/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, post *models.Post) error
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	replica *gorm.DB
}

// NewPostRepository creates a new post repository. Reads go to the read replica
// when one is configured.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, replica: database.GetReadDB()}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Preload("User.Profile").Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.Hashtags == nil {
		post.Hashtags = []string{}
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx, post.UserID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := reader(ctx, r.db, r.replica).Preload("User.Profile").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// List returns posts newest first. limit <= 0 returns every post; that full listing is
// cached and always read from the primary.
func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	cached := limit <= 0 && offset <= 0
	fetch := func(dest *[]*models.Post) error {
		db := reader(ctx, r.db, r.replica)
		if cached {
			db = r.db.WithContext(ctx)
		}
		q := newestFirst(db)
		if limit > 0 {
			q = q.Limit(limit)
		}
		if offset > 0 {
			q = q.Offset(offset)
		}
		if err := q.Find(dest).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	posts := make([]*models.Post, 0)
	if cached {
		if err := cache.Aside(ctx, cache.FeedKey, &posts, cache.FeedTTL, func() error { return fetch(&posts) }); err != nil {
			return nil, err
		}
		return posts, nil
	}
	if err := fetch(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	posts := make([]*models.Post, 0)
	err := cache.Aside(ctx, cache.UserPostsKey(userID), &posts, cache.FeedTTL, func() error {
		if err := newestFirst(r.db.WithContext(ctx)).Where("posts.user_id = ?", userID).Find(&posts).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if post.Hashtags == nil {
		post.Hashtags = []string{}
	}
	if err := r.db.WithContext(ctx).Omit("User").Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx, post.UserID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, post.ID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	cache.InvalidateFeed(ctx, post.UserID)
	return nil
}
