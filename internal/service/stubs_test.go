package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"fitcraft/internal/auth"
	"fitcraft/internal/models"

	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	createWithProfileFn func(context.Context, *models.User, *models.Profile) error
	updateLastLoginFn   func(context.Context, uint, time.Time) error
	deleteFn            func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, u *models.User, p *models.Profile) error {
	return s.createWithProfileFn(ctx, u, p)
}
func (s *userRepoStub) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.updateLastLoginFn(ctx, id, at)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(context.Context, uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", 0)
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createWithProfileFn: func(_ context.Context, u *models.User, p *models.Profile) error {
			u.ID = 1
			p.ID = 1
			p.UserID = 1
			u.Profile = p
			return nil
		},
		updateLastLoginFn: func(context.Context, uint, time.Time) error { return nil },
		deleteFn:          func(context.Context, uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByUserIDFn func(context.Context, uint) (*models.Profile, error)
	updateFn      func(context.Context, uint, map[string]any) (*models.Profile, error)
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) Update(ctx context.Context, userID uint, changes map[string]any) (*models.Profile, error) {
	return s.updateFn(ctx, userID, changes)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	listFn       func(context.Context, int, int) ([]*models.Post, error)
	listByUserFn func(context.Context, uint) ([]*models.Post, error)
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, post *models.Post) error {
	return s.deleteFn(ctx, post)
}

// sessionStoreStub hands out sequential tokens.
type sessionStoreStub struct {
	mu        sync.Mutex
	sessions  map[string]uint
	next      int
	createErr error
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: map[string]uint{}}
}

func (s *sessionStoreStub) Create(_ context.Context, userID uint) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	token := fmt.Sprintf("token-%d", s.next)
	s.sessions[token] = userID
	return token, nil
}
func (s *sessionStoreStub) Lookup(_ context.Context, token string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	return id, ok, nil
}
func (s *sessionStoreStub) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// plainHasher "hashes" by prefixing, keeping tests fast.
type plainHasher struct {
	dummyCalls int
}

func (h *plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (h *plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return auth.ErrMismatch
	}
	return nil
}
func (h *plainHasher) CompareDummy(string) { h.dummyCalls++ }

// memBlobStore keeps blobs in memory.
type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saveErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (m *memBlobStore) Save(_ context.Context, dir, filename string, content []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dir + "/" + filename
	if _, exists := m.blobs[key]; exists {
		key = fmt.Sprintf("%s/%d_%s", dir, len(m.blobs), filename)
	}
	m.blobs[key] = content
	return key, nil
}
func (m *memBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}
func (m *memBlobStore) URL(key string) string { return "/media/" + key }

func (m *memBlobStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func assertFieldError(t *testing.T, err error, field string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, models.CodeValidation, appErr.Code)
	require.Contains(t, appErr.Fields, field)
	return appErr
}

func strPtr(s string) *string { return &s }
