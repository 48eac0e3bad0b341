package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"homestead/internal/cache"
	"homestead/internal/config"
	"homestead/internal/models"
	"homestead/internal/storage"
	"homestead/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testPassword = "Secret123!"
	testBaseURL  = "http://localhost:3000"
	gateUser     = "gate"
	gatePassword = "open-sesame"
)

// testEnv is a fully wired app backed by SQLite, miniredis and an in-memory
// media store.
type testEnv struct {
	t     *testing.T
	app   *fiber.App
	srv   *Server
	db    *gorm.DB
	redis *miniredis.Miniredis
	fs    afero.Fs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	prev := cache.GetClient()
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(prev) })

	cfg := &config.Config{
		Env:              "test",
		Port:             "0",
		BaseURL:          testBaseURL,
		SessionSecret:    "test-session-secret-with-32-chars!",
		SiteGateEnabled:  true,
		SiteGateUser:     gateUser,
		SiteGatePassword: gatePassword,
		AllowedOrigins:   testBaseURL,
		UploadMaxMB:      1,
	}

	db := testutil.NewDB(t)
	fsys := afero.NewMemMapFs()
	srv, err := NewServerWithDeps(cfg, db, rdb, storage.NewLocalStoreFs(fsys))
	require.NoError(t, err)

	return &testEnv{t: t, app: srv.NewApp(), srv: srv, db: db, redis: mr, fs: fsys}
}

// request sends method/path with an optional JSON body and bearer token.
func (e *testEnv) request(method, path string, body any, token string) *http.Response {
	e.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return e.do(req)
}

func (e *testEnv) do(req *http.Request) *http.Response {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// signIn creates a user of the given role and returns it with a session token.
func (e *testEnv) signIn(role models.Role) (*models.User, string) {
	e.t.Helper()

	u := testutil.CreateUser(e.t, e.db, "Sara", testPassword)
	if role == models.RoleAdmin {
		require.NoError(e.t, e.db.Model(u).Update("role", models.RoleAdmin).Error)
		u.Role = models.RoleAdmin
	}

	resp := e.request(http.MethodPost, "/api/auth/signin", fiber.Map{
		"email":    u.Email,
		"password": testPassword,
	}, "")
	require.Equal(e.t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeJSON(e.t, resp, &body)
	require.NotEmpty(e.t, body.Token)
	return u, body.Token
}

func decodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body models.ErrorResponse
	decodeJSON(t, resp, &body)
	return body.Code
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
