package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitcraft/internal/auth"
	"fitcraft/internal/config"
	"fitcraft/internal/models"
	"fitcraft/internal/service"
	"fitcraft/internal/session"
	"fitcraft/internal/storage"
	"fitcraft/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	args := m.Called(ctx, user, profile)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProfileRepository is a mock of the ProfileRepository interface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, userID uint, changes map[string]any) (*models.Profile, error) {
	args := m.Called(ctx, userID, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		SessionSecret:        "test-session-secret-0123456789abcdef",
		SessionTTLHours:      1,
		SessionCookieName:    "sessionid",
		AllowedOrigins:       "http://localhost:3000",
		MediaRoot:            t.TempDir(),
		ImageMaxUploadSizeMB: 1,
	}
}

type mockedServer struct {
	*Server
	app      *fiber.App
	users    *MockUserRepository
	profiles *MockProfileRepository
	posts    *MockPostRepository
}

// newMockedServer wires real services over mocked repositories, a miniredis
// session store and a temp-dir blob store.
func newMockedServer(t *testing.T) *mockedServer {
	t.Helper()

	cfg := testConfig(t)
	_, rdb := testutil.NewTestRedis(t)
	blobs := storage.NewLocalStore(cfg.MediaRoot, "")
	sessions := session.NewRedisStore(rdb, cfg.SessionSecret, time.Hour)

	m := &mockedServer{
		users:    new(MockUserRepository),
		profiles: new(MockProfileRepository),
		posts:    new(MockPostRepository),
	}
	maxBytes := int64(cfg.ImageMaxUploadSizeMB) * bytesPerMB
	m.Server = &Server{
		config:   cfg,
		redis:    rdb,
		blobs:    blobs,
		sessions: sessions,
		accountService: service.NewAccountService(m.users, m.profiles, sessions,
			auth.NewBcryptHasher(bcrypt.MinCost), blobs, maxBytes),
		postService: service.NewPostService(m.posts, blobs, maxBytes),
	}
	m.app = m.NewApp()
	return m
}

// login issues a session for userID and returns its bearer header value.
func (m *mockedServer) login(t *testing.T, userID uint) string {
	t.Helper()
	token, err := m.sessions.Create(context.Background(), userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string][]string, files ...formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeError(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func uintPtr(v uint) *uint {
	return &v
}
