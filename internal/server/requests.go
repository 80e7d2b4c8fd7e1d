package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"fitcraft/internal/models"
	"fitcraft/internal/service"
	"fitcraft/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// UpdateProfileRequest is the body of PATCH /api/profile. Fields left out are unchanged.
// An empty or null avatar clears it; an avatar file part replaces it.
type UpdateProfileRequest struct {
	FullName optionalValue `json:"full_name" form:"full_name"`
	Bio      optionalValue `json:"bio" form:"bio"`
	Gender   optionalValue `json:"gender" form:"gender"`
	Age      optionalValue `json:"age" form:"age"`
	HeightCm optionalValue `json:"height_cm" form:"height_cm"`
	WeightKg optionalValue `json:"weight_kg" form:"weight_kg"`
	Avatar   optionalValue `json:"avatar" form:"avatar"`
}

// PostRequest is the body of POST, PUT and PATCH on /api/posts. Hashtags arrive
// as a JSON array (or string) in JSON bodies and as form values otherwise.
type PostRequest struct {
	Caption      optionalValue `json:"caption" form:"caption"`
	Hashtags     jsonHashtags  `json:"hashtags" form:"-"`
	FormHashtags []string      `json:"-" form:"hashtags"`
}

// hashtags returns the hashtags input, or nil when the field was not sent.
func (r *PostRequest) hashtags() *validation.HashtagInput {
	switch {
	case r.Hashtags.sent:
		return &r.Hashtags.input
	case r.FormHashtags != nil:
		return &validation.HashtagInput{Values: r.FormHashtags}
	default:
		return nil
	}
}

// optionalValue is a scalar field that records whether it was sent. Form decoding
// collects every submitted value; JSON accepts a string, a number or null (sent as "").
type optionalValue []string

func (v *optionalValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = optionalValue{""}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = optionalValue{s}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected a string or number, got %s", b)
		}
		*v = optionalValue{n.String()}
	}
	return nil
}

// ptr returns the last submitted value, or nil when the field was not sent.
func (v optionalValue) ptr() *string {
	if v == nil {
		return nil
	}
	s := ""
	if len(v) > 0 {
		s = v[len(v)-1]
	}
	return &s
}

func (v optionalValue) String() string {
	if p := v.ptr(); p != nil {
		return *p
	}
	return ""
}

// jsonHashtags accepts a JSON array of strings, or a single string that is split like a form value.
type jsonHashtags struct {
	sent  bool
	input validation.HashtagInput
}

func (h *jsonHashtags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	h.sent = true
	switch {
	case bytes.Equal(b, []byte("null")):
		h.input = validation.HashtagInput{List: true}
	case len(b) > 0 && b[0] == '[':
		var tags []string
		if err := json.Unmarshal(b, &tags); err != nil {
			return errors.New("hashtags must be a list of strings")
		}
		h.input = validation.HashtagInput{Values: tags, List: true}
	default:
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.New("hashtags must be a list of strings")
		}
		h.input = validation.HashtagInput{Values: []string{s}}
	}
	return nil
}

// bindBody parses the request body into out. An empty body leaves out untouched.
func bindBody(c *fiber.Ctx, out any) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		appErr := models.NewValidationError("Invalid request body")
		appErr.Err = err
		return appErr
	}
	return nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEMultipartForm)
}

// uploadedFile reads the first upload under key. It returns nil when no file was sent.
// Reads stop one byte past maxBytes so oversized uploads are still detected.
func uploadedFile(c *fiber.Ctx, key string, maxBytes int64) (*service.FileUpload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		appErr := models.NewValidationError("Multipart form parse error")
		appErr.Err = err
		return nil, appErr
	}
	headers := form.File[key]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", key, err)
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", key, err)
	}

	return &service.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
