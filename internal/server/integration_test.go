package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitcraft/internal/models"
	"fitcraft/internal/storage"
	"fitcraft/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type liveServer struct {
	app *fiber.App
	db  *gorm.DB
}

// newLiveServer wires the full stack over SQLite, miniredis and a temp-dir blob store.
func newLiveServer(t *testing.T) *liveServer {
	t.Helper()

	cfg := testConfig(t)
	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewTestRedis(t)

	srv, err := NewServerWithDeps(cfg, db, rdb, storage.NewLocalStore(cfg.MediaRoot, ""))
	require.NoError(t, err)
	return &liveServer{app: srv.NewApp(), db: db}
}

func (l *liveServer) signup(t *testing.T, fullName, email string) string {
	t.Helper()
	resp, body := doRequest(t, l.app, jsonRequest(t, http.MethodPost, "/api/signup/", map[string]string{
		"full_name": fullName,
		"email":     email,
		"password":  "Str0ngPass!",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out MessageResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return "Bearer " + out.Token
}

func (l *liveServer) createPost(t *testing.T, bearer, caption string, hashtags ...string) PostResponse {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/posts/",
		map[string][]string{"caption": {caption}, "hashtags": hashtags},
		formFile{field: "image", filename: "photo.png", content: testutil.PNG(t)})
	req.Header.Set("Authorization", bearer)

	resp, body := doRequest(t, l.app, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out PostResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func authed(req *http.Request, bearer string) *http.Request {
	req.Header.Set("Authorization", bearer)
	return req
}

func TestIntegration_SignupThenPost(t *testing.T) {
	l := newLiveServer(t)
	jane := l.signup(t, "Jane", "jane@x.com")

	resp, body := doRequest(t, l.app, authed(httptest.NewRequest(http.MethodGet, "/api/session/", nil), jane))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(body, &sess))
	assert.True(t, sess.Authenticated)
	require.NotNil(t, sess.Profile)
	assert.Equal(t, "Jane", sess.Profile.FullName)
	assert.Equal(t, "jane@x.com", sess.Profile.Email)

	l.createPost(t, jane, "Rest day", "recovery")
	created := l.createPost(t, jane, "Leg day", "fitness")
	assert.Equal(t, []string{"fitness"}, created.Hashtags)
	assert.Equal(t, "Jane", created.Author)
	require.NotNil(t, created.Image)

	resp, body = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/api/posts/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed []PostResponse
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, created.ID, feed[0].ID)
	assert.Equal(t, "Leg day", feed[0].Caption)

	// The uploaded image is served back from the media route.
	imagePath := (*created.Image)[len("http://example.com"):]
	resp, _ = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, imagePath, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/api/posts/?limit=1&offset=1", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "Rest day", feed[0].Caption)
}

func TestIntegration_Accounts(t *testing.T) {
	l := newLiveServer(t)
	l.signup(t, "Jane", "jane@x.com")

	t.Run("Login Is Case Insensitive", func(t *testing.T) {
		resp, body := doRequest(t, l.app, jsonRequest(t, http.MethodPost, "/api/login/", map[string]string{
			"email":    "JANE@X.COM",
			"password": "Str0ngPass!",
		}))
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.NotNil(t, sessionCookie(resp))
	})

	t.Run("Duplicate Signup Leaves Store Unchanged", func(t *testing.T) {
		resp, body := doRequest(t, l.app, jsonRequest(t, http.MethodPost, "/api/signup/", map[string]string{
			"full_name": "Impostor",
			"email":     "Jane@X.com",
			"password":  "Str0ngPass!",
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeError(t, body).Errors, "email")

		var users, profiles int64
		require.NoError(t, l.db.Model(&models.User{}).Count(&users).Error)
		require.NoError(t, l.db.Model(&models.Profile{}).Count(&profiles).Error)
		assert.Equal(t, int64(1), users)
		assert.Equal(t, int64(1), profiles)
	})

	t.Run("Logout Ends Session", func(t *testing.T) {
		bearer := l.signup(t, "Sam", "sam@x.com")

		resp, _ := doRequest(t, l.app, authed(httptest.NewRequest(http.MethodPost, "/api/logout/", nil), bearer))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doRequest(t, l.app, authed(httptest.NewRequest(http.MethodGet, "/api/profile/", nil), bearer))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestIntegration_ProfileAvatar(t *testing.T) {
	l := newLiveServer(t)
	jane := l.signup(t, "Jane", "jane@x.com")

	req := multipartRequest(t, http.MethodPatch, "/api/profile/",
		map[string][]string{"bio": {"Lifter"}, "height_cm": {"170"}},
		formFile{field: "avatar", filename: "me.png", content: testutil.PNG(t)})
	resp, body := doRequest(t, l.app, authed(req, jane))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, "Lifter", profile.Bio)
	require.NotNil(t, profile.HeightCm)
	assert.Equal(t, uint(170), *profile.HeightCm)
	require.NotNil(t, profile.Avatar)
	assert.Contains(t, *profile.Avatar, "/media/profiles/")

	// Posts pick up the new avatar.
	post := l.createPost(t, jane, "Leg day")
	require.NotNil(t, post.Avatar)
	assert.Equal(t, *profile.Avatar, *post.Avatar)

	resp, body = doRequest(t, l.app, authed(jsonRequest(t, http.MethodPatch, "/api/profile/", map[string]any{"avatar": nil}), jane))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Nil(t, profile.Avatar)
	assert.Equal(t, "Lifter", profile.Bio)
}

func TestIntegration_Ownership(t *testing.T) {
	l := newLiveServer(t)
	jane := l.signup(t, "Jane", "jane@x.com")
	sam := l.signup(t, "Sam", "sam@x.com")
	post := l.createPost(t, jane, "Leg day", "fitness")
	path := "/api/posts/" + jsonNumber(post.ID) + "/"

	resp, _ := doRequest(t, l.app, authed(jsonRequest(t, http.MethodPatch, path, map[string]any{"caption": "stolen"}), sam))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, l.app, authed(httptest.NewRequest(http.MethodDelete, path, nil), sam))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := doRequest(t, l.app, authed(jsonRequest(t, http.MethodPatch, path, map[string]any{"hashtags": []string{"legs", "squats"}}), jane))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated PostResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Leg day", updated.Caption)
	assert.Equal(t, []string{"legs", "squats"}, updated.Hashtags)

	resp, body = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/api/users/"+jsonNumber(post.UserID)+"/posts/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []PostResponse
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)

	resp, _ = doRequest(t, l.app, authed(httptest.NewRequest(http.MethodDelete, path, nil), jane))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_HealthAndUnknownRoutes(t *testing.T) {
	l := newLiveServer(t)

	resp, _ := doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found.", decodeError(t, body).Detail)

	resp, _ = doRequest(t, l.app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func jsonNumber(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
