package server

import (
	"fitcraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description All posts newest first. limit (max 100) and offset are optional.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} PostResponse
// @Router /posts/ [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(s.postResponses(c, posts))
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary List a user's posts
// @Tags posts
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} PostResponse
// @Router /users/{id}/posts/ [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.ListUserPosts(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(s.postResponses(c, posts))
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(s.postResponse(c, post))
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description hashtags may be repeated fields, a JSON array string or free text split on spaces and commas
// @Tags posts
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param caption formData string true "Caption"
// @Param hashtags formData string false "Hashtags"
// @Param image formData file true "Image"
// @Success 201 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req PostRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}
	image, err := uploadedFile(c, "image", s.maxUploadBytes())
	if err != nil {
		return respondError(c, err)
	}

	in := service.CreatePostInput{
		UserID:  currentUserID(c),
		Caption: req.Caption.String(),
		Image:   image,
	}
	if tags := req.hashtags(); tags != nil {
		in.Hashtags = *tags
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(s.postResponse(c, post))
}

// ReplacePost handles PUT /api/posts/:id. Caption and image are required.
// @Summary Replace a post
// @Tags posts
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param caption formData string true "Caption"
// @Param hashtags formData string false "Hashtags"
// @Param image formData file true "Image"
// @Success 200 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [put]
func (s *Server) ReplacePost(c *fiber.Ctx) error {
	return s.updatePost(c, true)
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Update a post
// @Description Only the fields sent are changed
// @Tags posts
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param caption formData string false "Caption"
// @Param hashtags formData string false "Hashtags"
// @Param image formData file false "Image"
// @Success 200 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	return s.updatePost(c, false)
}

func (s *Server) updatePost(c *fiber.Ctx, requireAll bool) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req PostRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	in := service.UpdatePostInput{
		UserID:     currentUserID(c),
		PostID:     postID,
		Caption:    req.Caption.ptr(),
		Hashtags:   req.hashtags(),
		RequireAll: requireAll,
	}
	in.Image, err = uploadedFile(c, "image", s.maxUploadBytes())
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(s.postResponse(c, post))
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: postID,
	}); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
