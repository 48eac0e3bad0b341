package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"testing"

	"homestead/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uploadedName = regexp.MustCompile(`^profile-\d+-[0-9a-z]{6}\.png$`)

func multipartUpload(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func (e *testEnv) upload(token, filename, contentType string, content []byte) *http.Response {
	e.t.Helper()
	body, ct := multipartUpload(e.t, "file", filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return e.do(req)
}

func TestUploadAndServeImage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(models.RoleUser)
	content := []byte("\x89PNG\r\n\x1a\nfake image bytes")

	resp := env.upload(token, "Living Room.PNG", "image/png", content)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploaded struct {
		Success  bool   `json:"success"`
		FileName string `json:"fileName"`
	}
	decodeJSON(t, resp, &uploaded)
	assert.True(t, uploaded.Success)
	assert.Regexp(t, uploadedName, uploaded.FileName)

	exists, err := afero.Exists(env.fs, "profiles/"+uploaded.FileName)
	require.NoError(t, err)
	assert.True(t, exists)

	resp = env.request(http.MethodGet, "/api/images/profiles/"+uploaded.FileName, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "public, max-age=31536000", resp.Header.Get(fiber.HeaderCacheControl))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestUpload_Rejections(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(models.RoleUser)

	resp := env.upload("", "a.png", "image/png", []byte("x"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.upload(token, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// UploadMaxMB is 1 in the test config.
	resp = env.upload(token, "huge.png", "image/png", bytes.Repeat([]byte{0}, 1<<20+1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, errorCode(t, resp))

	body, ct := multipartUpload(t, "image", "a.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp = env.do(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeImage_NotFound(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.fs.MkdirAll("profiles", 0o755))

	for _, path := range []string{
		"/api/images/profiles/missing.png",
		"/api/images/profiles",
		"/api/images/..%2F..%2Fetc%2Fpasswd",
		"/api/images/profiles/%2E%2E/%2E%2E/secret.png",
	} {
		resp := env.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
