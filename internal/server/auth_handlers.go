package server

import (
	"errors"

	"fitcraft/internal/middleware"
	"fitcraft/internal/models"
	"fitcraft/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/signup
// @Summary User signup
// @Description Register a new account with its profile and start a session
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{full_name=string,email=string,password=string} true "Signup request"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := s.accountService.Signup(c.UserContext(), service.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookie(c, result.Token)
	return c.Status(fiber.StatusCreated).JSON(MessageResponse{
		Message: "Signup successful",
		Token:   result.Token,
	})
}

// Login handles POST /api/login
// @Summary User login
// @Description Authenticate with email and password and start a session
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := s.accountService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookie(c, result.Token)
	return c.JSON(MessageResponse{
		Message: "Login successful",
		Token:   result.Token,
	})
}

// Logout handles POST /api/logout
// @Summary User logout
// @Description End the current session. Succeeds without a session.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalSessionToken).(string)
	if err := s.accountService.Logout(c.UserContext(), token); err != nil {
		return respondError(c, err)
	}

	s.clearSessionCookie(c)
	return c.JSON(MessageResponse{Message: "Logged out"})
}

// GetSession handles GET /api/session
// @Summary Session status
// @Description Report whether the request carries an active session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} SessionResponse
// @Router /session/ [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(SessionResponse{Authenticated: false})
	}

	user, err := s.accountService.GetProfile(c.UserContext(), userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return c.Status(fiber.StatusUnauthorized).JSON(SessionResponse{Authenticated: false})
		}
		return respondError(c, err)
	}
	if !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(SessionResponse{Authenticated: false})
	}

	return c.JSON(SessionResponse{
		Authenticated: true,
		Profile:       s.profileResponse(c, user),
	})
}

// GetProfile handles GET /api/profile
// @Summary Get my profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/ [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.accountService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.profileResponse(c, user))
}

// UpdateProfile handles PATCH /api/profile
// @Summary Update my profile
// @Description Partial update; only the fields sent are changed. An empty avatar value clears the avatar.
// @Tags profile
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param full_name formData string false "Full name"
// @Param bio formData string false "Bio"
// @Param gender formData string false "Gender"
// @Param age formData integer false "Age"
// @Param height_cm formData integer false "Height in centimetres"
// @Param weight_kg formData integer false "Weight in kilograms"
// @Param avatar formData file false "Avatar image"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/ [patch]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	in := service.UpdateProfileInput{
		UserID:   currentUserID(c),
		FullName: req.FullName.ptr(),
		Bio:      req.Bio.ptr(),
		Gender:   req.Gender.ptr(),
		Age:      req.Age.ptr(),
		HeightCm: req.HeightCm.ptr(),
		WeightKg: req.WeightKg.ptr(),
	}

	avatar, err := uploadedFile(c, "avatar", s.maxUploadBytes())
	if err != nil {
		return respondError(c, err)
	}
	switch {
	case avatar != nil:
		in.Avatar = avatar
	case req.Avatar.ptr() != nil && req.Avatar.String() == "":
		in.ClearAvatar = true
	}

	user, err := s.accountService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.profileResponse(c, user))
}

func (s *Server) maxUploadBytes() int64 {
	return int64(s.config.ImageMaxUploadSizeMB) * bytesPerMB
}
