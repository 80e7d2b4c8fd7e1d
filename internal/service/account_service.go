package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"fitcraft/internal/auth"
	"fitcraft/internal/models"
	"fitcraft/internal/observability"
	"fitcraft/internal/repository"
	"fitcraft/internal/session"
	"fitcraft/internal/storage"
	"fitcraft/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	msgRequired           = "This field is required."
	msgInvalidCredentials = "Invalid credentials"
)

// AccountService handles signup, login and profile management.
type AccountService struct {
	users         repository.UserRepository
	profiles      repository.ProfileRepository
	sessions      session.Store
	hasher        auth.PasswordHasher
	blobs         storage.BlobStore
	maxImageBytes int64
	now           func() time.Time
}

type SignupInput struct {
	FullName string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is a freshly established session.
type AuthResult struct {
	User  *models.User
	Token string
}

// UpdateProfileInput carries a partial profile update. Nil fields are left unchanged.
// Numeric fields arrive as raw strings; an empty string clears the value.
type UpdateProfileInput struct {
	UserID      uint
	FullName    *string
	Bio         *string
	Gender      *string
	Age         *string
	HeightCm    *string
	WeightKg    *string
	Avatar      *FileUpload
	ClearAvatar bool
}

func NewAccountService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	sessions session.Store,
	hasher auth.PasswordHasher,
	blobs storage.BlobStore,
	maxImageBytes int64,
) *AccountService {
	return &AccountService{
		users:         users,
		profiles:      profiles,
		sessions:      sessions,
		hasher:        hasher,
		blobs:         blobs,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	ctx, span := observability.StartSpan(ctx, "AccountService.Signup")
	defer span.End()

	fullName := strings.TrimSpace(in.FullName)
	email := validation.NormalizeEmail(in.Email)

	problems := map[string][]string{}
	switch {
	case fullName == "":
		problems["full_name"] = []string{msgRequired}
	case utf8.RuneCountInString(fullName) > models.MaxFullNameLength:
		problems["full_name"] = []string{maxLengthMessage(models.MaxFullNameLength)}
	}

	if email == "" {
		problems["email"] = []string{msgRequired}
	} else if err := validation.ValidateEmail(email); err != nil {
		problems["email"] = []string{err.Error()}
	} else {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		if existing != nil {
			problems["email"] = []string{"Email already registered."}
		}
	}

	if in.Password == "" {
		problems["password"] = []string{msgRequired}
	} else if msgs := validation.ValidatePassword(in.Password,
		validation.UserAttribute{Name: "email", Value: validation.EmailLocalPart(email)},
		validation.UserAttribute{Name: "full name", Value: fullName},
	); len(msgs) > 0 {
		problems["password"] = msgs
	}

	if fieldErr := models.NewFieldValidationError(problems); fieldErr != nil {
		return nil, fieldErr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  email,
		Email:     email,
		Password:  hash,
		FirstName: fullName,
		IsActive:  true,
	}
	if err := s.users.CreateWithProfile(ctx, user, &models.Profile{FullName: fullName}); err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("user.id", int(user.ID)))
	observability.SignupsTotal.Inc()

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials. Unknown emails still run a hash comparison so
// timing does not reveal whether an account exists.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	ctx, span := observability.StartSpan(ctx, "AccountService.Login")
	defer span.End()

	email := validation.NormalizeEmail(in.Email)
	problems := map[string][]string{}
	if email == "" {
		problems["email"] = []string{msgRequired}
	}
	if in.Password == "" {
		problems["password"] = []string{msgRequired}
	}
	if fieldErr := models.NewFieldValidationError(problems); fieldErr != nil {
		return nil, fieldErr
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if user == nil {
		s.hasher.CompareDummy(in.Password)
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, models.NewAuthenticationError(msgInvalidCredentials)
	}

	if err := s.hasher.Compare(user.Password, in.Password); err != nil {
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		if !errors.Is(err, auth.ErrMismatch) {
			span.SetError(err)
		}
		return nil, models.NewAuthenticationError(msgInvalidCredentials)
	}
	if !user.IsActive {
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, models.NewAuthenticationError(msgInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		span.SetError(err)
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	observability.LoginsTotal.WithLabelValues("success").Inc()
	span.AddAttributes(attribute.Int("user.id", int(user.ID)))
	return &AuthResult{User: user, Token: token}, nil
}

// Logout destroys the session named by token. It is safe to call without a session.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetProfile returns the user together with its profile.
func (s *AccountService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, models.NewNotFoundError("Profile", userID)
	}
	return user, nil
}

// UpdateProfile validates every supplied field first; nothing is written if any field fails.
func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	ctx, span := observability.StartSpan(ctx, "AccountService.UpdateProfile",
		attribute.Int("user.id", int(in.UserID)),
	)
	defer span.End()
	ctx = repository.WithPrimary(ctx)

	user, err := s.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	problems := map[string][]string{}

	setText := func(field string, value *string, max int) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if utf8.RuneCountInString(v) > max {
			problems[field] = []string{maxLengthMessage(max)}
			return
		}
		changes[field] = v
	}
	setText("full_name", in.FullName, models.MaxFullNameLength)
	setText("bio", in.Bio, models.MaxBioLength)
	setText("gender", in.Gender, models.MaxGenderLength)

	setMetric := func(field string, raw *string) {
		if raw == nil {
			return
		}
		value, msg := parseBodyMetric(*raw)
		if msg != "" {
			problems[field] = []string{msg}
			return
		}
		changes[field] = value
	}
	setMetric("age", in.Age)
	setMetric("height_cm", in.HeightCm)
	setMetric("weight_kg", in.WeightKg)

	if in.Avatar != nil {
		if msg := imageProblem(in.Avatar, s.maxImageBytes); msg != "" {
			problems["avatar"] = []string{msg}
		}
	}

	if fieldErr := models.NewFieldValidationError(problems); fieldErr != nil {
		return nil, fieldErr
	}

	oldAvatar := user.Profile.Avatar
	newAvatar := ""
	switch {
	case in.Avatar != nil:
		newAvatar, err = s.blobs.Save(ctx, storage.ProfileDir(in.UserID), in.Avatar.Filename, in.Avatar.Content)
		if err != nil {
			span.SetError(err)
			return nil, models.NewInternalError(err)
		}
		changes["avatar"] = newAvatar
	case in.ClearAvatar:
		changes["avatar"] = ""
	}

	profile, err := s.profiles.Update(ctx, in.UserID, changes)
	if err != nil {
		span.SetError(err)
		discardBlob(ctx, s.blobs, newAvatar)
		return nil, err
	}

	if _, replaced := changes["avatar"]; replaced && oldAvatar != "" && oldAvatar != profile.Avatar {
		discardBlob(ctx, s.blobs, oldAvatar)
	}

	user.Profile = profile
	return user, nil
}

// parseBodyMetric parses age, height or weight. Blank input clears the value.
func parseBodyMetric(raw string) (*uint, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, "A valid integer is required."
	}
	if n < 0 {
		return nil, "Ensure this value is greater than or equal to 0."
	}
	if n > models.MaxBodyMetric {
		return nil, fmt.Sprintf("Ensure this value is less than or equal to %d.", models.MaxBodyMetric)
	}
	v := uint(n)
	return &v, ""
}

func maxLengthMessage(max int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", max)
}
