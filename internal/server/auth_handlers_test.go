package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"homestead/internal/cache"
	"homestead/internal/config"
	"homestead/internal/models"
	"homestead/internal/service"
	"homestead/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) CountRelations(ctx context.Context, id uint) (models.RelationCounts, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.RelationCounts), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestSignup(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)

	s := &Server{
		config:      &config.Config{BaseURL: testBaseURL},
		userRepo:    mockRepo,
		authService: service.NewAuthService(mockRepo),
	}

	app.Post("/signup", s.Signup)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"name":     "Sara",
				"email":    "sara@example.com",
				"password": testPassword,
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "sara@example.com").Return(nil, nil)
				mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate User",
			body: map[string]string{
				"name":     "Sara",
				"email":    "exists@example.com",
				"password": testPassword,
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "exists@example.com").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Missing Password",
			body:           map[string]string{"name": "Sara", "email": "nopass@example.com"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Short Password",
			body:           map[string]string{"name": "Sara", "email": "short@example.com", "password": "abc"},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req, -1)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	mockRepo.AssertExpectations(t)
}

func TestSignup_ResponseOmitsPassword(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(http.MethodPost, "/api/auth/signup", fiber.Map{
		"name":     "Reza",
		"email":    "Reza@Example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "User created successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "reza@example.com", user["email"])
	assert.Equal(t, string(models.RoleUser), user["role"])
	assert.NotContains(t, user, "password")
}

func TestSignin(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "Sara", testPassword)

	t.Run("valid credentials issue token and cookie", func(t *testing.T) {
		resp := env.request(http.MethodPost, "/api/auth/signin", fiber.Map{
			"email":       u.Email,
			"password":    testPassword,
			"callbackUrl": "/properties/3",
		}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, true, body["ok"])
		assert.NotEmpty(t, body["token"])
		assert.Equal(t, testBaseURL+"/properties/3", body["url"])

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "session-token" {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, body["token"], cookie.Value)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := env.request(http.MethodPost, "/api/auth/signin", fiber.Map{
			"email":    u.Email,
			"password": "not-the-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "Invalid email or password", body["error"])
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		resp := env.request(http.MethodPost, "/api/auth/signin", fiber.Map{
			"email":    "nobody@example.com",
			"password": testPassword,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(http.MethodGet, "/api/auth/session", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty map[string]any
	decodeJSON(t, resp, &empty)
	assert.Empty(t, empty)

	u, token := env.signIn(models.RoleUser)
	resp = env.request(http.MethodGet, "/api/auth/session", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User    models.Identity `json:"user"`
		Expires string          `json:"expires"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, u.ID, body.User.ID)
	assert.Equal(t, u.Email, body.User.Email)
	assert.NotEmpty(t, body.Expires)
}

func TestSession_CookieIsAccepted(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.signIn(models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.AddCookie(&http.Cookie{Name: "session-token", Value: token})
	resp := env.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.Profile
	decodeJSON(t, resp, &profile)
	assert.Equal(t, u.ID, profile.ID)
}

func TestSignout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(models.RoleUser)

	resp := env.request(http.MethodGet, "/api/users/profile", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(http.MethodPost, "/api/auth/signout", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, testBaseURL+"/", body["url"])

	var revoked []string
	for _, k := range env.redis.Keys() {
		if strings.HasPrefix(k, cache.SessionBlacklistKey("")) {
			revoked = append(revoked, k)
		}
	}
	require.Len(t, revoked, 1)
	assert.Positive(t, env.redis.TTL(revoked[0]))

	resp = env.request(http.MethodGet, "/api/users/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignout_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(http.MethodPost, "/api/auth/signout", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, env.redis.Keys())
}

func TestTamperedTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(models.RoleUser)

	tampered := token[:len(token)-2] + "xx"
	resp := env.request(http.MethodGet, "/api/users/profile", nil, tampered)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeletedUserSessionRejected(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.signIn(models.RoleUser)
	require.NoError(t, env.db.Delete(&models.User{}, u.ID).Error)

	resp := env.request(http.MethodGet, "/api/users/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeUnauthorized, errorCode(t, resp))
}

func TestRedirect(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		callback string
		want     string
	}{
		{"empty", "", testBaseURL},
		{"relative", "/properties/7", testBaseURL + "/properties/7"},
		{"same origin", testBaseURL + "/dashboard", testBaseURL + "/dashboard"},
		{"other origin", "https://evil.example/phish", testBaseURL},
		{"protocol relative", "//evil.example", testBaseURL},
		{"signout", "/api/auth/signout", testBaseURL + "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/auth/redirect?callbackUrl=" + url.QueryEscape(tt.callback)
			resp := env.request(http.MethodGet, path, nil, "")
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get(fiber.HeaderLocation))
		})
	}
}
