package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"fitcraft/internal/models"
	"fitcraft/internal/observability"
	"fitcraft/internal/repository"
	"fitcraft/internal/storage"
	"fitcraft/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MaxPageSize     = 100
	msgNoPermission = "You do not have permission to perform this action."
)

type PostService struct {
	posts         repository.PostRepository
	blobs         storage.BlobStore
	maxImageBytes int64
}

type ListPostsInput struct {
	Limit  int
	Offset int
}

type CreatePostInput struct {
	UserID   uint
	Caption  string
	Hashtags validation.HashtagInput
	Image    *FileUpload
}

// UpdatePostInput carries a post update. Nil fields are left unchanged.
// RequireAll makes caption and image mandatory, as for a full replacement.
type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Caption    *string
	Hashtags   *validation.HashtagInput
	Image      *FileUpload
	RequireAll bool
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(posts repository.PostRepository, blobs storage.BlobStore, maxImageBytes int64) *PostService {
	return &PostService{
		posts:         posts,
		blobs:         blobs,
		maxImageBytes: maxImageBytes,
	}
}

// ListPosts returns posts newest first. A zero Limit returns everything; larger limits are clamped.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := in.Limit, in.Offset
	if limit < 0 {
		limit = 0
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 0 && limit == 0 {
		limit = MaxPageSize
	}
	return s.posts.List(ctx, limit, offset)
}

func (s *PostService) ListUserPosts(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.posts.ListByUser(ctx, userID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost",
		attribute.Int("user.id", int(in.UserID)),
	)
	defer span.End()

	problems := map[string][]string{}
	caption, msg := cleanCaption(in.Caption)
	if msg != "" {
		problems["caption"] = []string{msg}
	}
	hashtags, err := in.Hashtags.Parse()
	if err != nil {
		problems["hashtags"] = []string{err.Error()}
	}
	if msg := imageProblem(in.Image, s.maxImageBytes); msg != "" {
		problems["image"] = []string{msg}
	}
	if fieldErr := models.NewFieldValidationError(problems); fieldErr != nil {
		return nil, fieldErr
	}

	key, err := s.blobs.Save(ctx, storage.PostDir(in.UserID), in.Image.Filename, in.Image.Content)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}

	post := &models.Post{
		UserID:   in.UserID,
		Image:    key,
		Caption:  caption,
		Hashtags: hashtags,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		span.SetError(err)
		discardBlob(ctx, s.blobs, key)
		return nil, err
	}
	observability.PostsCreatedTotal.Inc()
	span.AddAttributes(attribute.Int("post.id", int(post.ID)))

	return s.posts.GetByID(repository.WithPrimary(ctx), post.ID)
}

// UpdatePost checks existence, then ownership, then field validity.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost",
		attribute.Int("user.id", int(in.UserID)),
		attribute.Int("post.id", int(in.PostID)),
	)
	defer span.End()
	ctx = repository.WithPrimary(ctx)

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError(msgNoPermission)
	}

	problems := map[string][]string{}
	caption := post.Caption
	switch {
	case in.Caption != nil:
		var msg string
		caption, msg = cleanCaption(*in.Caption)
		if msg != "" {
			problems["caption"] = []string{msg}
		}
	case in.RequireAll:
		problems["caption"] = []string{msgRequired}
	}

	hashtags := post.Hashtags
	if in.Hashtags != nil {
		parsed, err := in.Hashtags.Parse()
		if err != nil {
			problems["hashtags"] = []string{err.Error()}
		}
		hashtags = parsed
	}

	if in.Image != nil || in.RequireAll {
		if msg := imageProblem(in.Image, s.maxImageBytes); msg != "" {
			problems["image"] = []string{msg}
		}
	}
	if fieldErr := models.NewFieldValidationError(problems); fieldErr != nil {
		return nil, fieldErr
	}

	oldImage := post.Image
	newImage := ""
	if in.Image != nil {
		newImage, err = s.blobs.Save(ctx, storage.PostDir(post.UserID), in.Image.Filename, in.Image.Content)
		if err != nil {
			span.SetError(err)
			return nil, models.NewInternalError(err)
		}
		post.Image = newImage
	}
	post.Caption = caption
	post.Hashtags = hashtags

	if err := s.posts.Update(ctx, post); err != nil {
		span.SetError(err)
		discardBlob(ctx, s.blobs, newImage)
		return nil, err
	}
	if newImage != "" && oldImage != newImage {
		discardBlob(ctx, s.blobs, oldImage)
	}

	return s.posts.GetByID(ctx, post.ID)
}

// DeletePost removes the post, then its image. A failed blob delete does not fail the request.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost",
		attribute.Int("user.id", int(in.UserID)),
		attribute.Int("post.id", int(in.PostID)),
	)
	defer span.End()
	ctx = repository.WithPrimary(ctx)

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.UserID != in.UserID {
		return models.NewForbiddenError(msgNoPermission)
	}

	if err := s.posts.Delete(ctx, post); err != nil {
		span.SetError(err)
		return err
	}
	discardBlob(ctx, s.blobs, post.Image)
	return nil
}

func cleanCaption(raw string) (string, string) {
	caption := strings.TrimSpace(raw)
	if caption == "" {
		return "", msgRequired
	}
	if utf8.RuneCountInString(caption) > models.MaxCaptionLength {
		return "", maxLengthMessage(models.MaxCaptionLength)
	}
	return caption, ""
}
