package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"path"
	"strings"
	"time"

	"homestead/internal/middleware"
	"homestead/internal/models"
	"homestead/internal/observability"
	"homestead/internal/storage"
)

const (
	DefaultMaxUploadBytes = 5 << 20
	ProfilesDir           = "profiles"

	suffixLen      = 6
	maxExtLen      = 10
	fallbackExt    = "bin"
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var contentTypesByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// UploadInput describes one uploaded file. Size is the size declared by the
// multipart header.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Media is an opened stored file ready to be streamed. Callers close Body.
type Media struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

type MediaService struct {
	store    storage.Store
	maxBytes int64
	now      func() time.Time
}

func NewMediaService(store storage.Store, maxBytes int64) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MediaService{store: store, maxBytes: maxBytes, now: time.Now}
}

// Upload stores an image under profiles/ and returns its generated file name.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (_ string, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "MediaService", "Upload")
	defer func() { observability.EndSpan(span, err) }()

	if in.Content == nil {
		observability.Uploads.WithLabelValues("rejected").Inc()
		return "", models.NewValidationError("No file uploaded")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(in.ContentType)), "image/") {
		observability.Uploads.WithLabelValues("rejected").Inc()
		return "", models.NewValidationError("File must be an image")
	}
	if in.Size > s.maxBytes {
		observability.Uploads.WithLabelValues("rejected").Inc()
		return "", s.tooLarge()
	}

	// The declared size is client supplied, so cap the read as well.
	data, err := io.ReadAll(io.LimitReader(in.Content, s.maxBytes+1))
	if err != nil {
		observability.Uploads.WithLabelValues("error").Inc()
		return "", models.NewInternalError(err)
	}
	if int64(len(data)) > s.maxBytes {
		observability.Uploads.WithLabelValues("rejected").Inc()
		return "", s.tooLarge()
	}

	name, err := s.newFileName(in.Filename)
	if err != nil {
		observability.Uploads.WithLabelValues("error").Inc()
		return "", models.NewInternalError(err)
	}

	key := path.Join(ProfilesDir, name)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), in.ContentType); err != nil {
		observability.Uploads.WithLabelValues("error").Inc()
		middleware.Logger.ErrorContext(ctx, "failed to store upload", "key", key, "error", err)
		return "", models.NewInternalError(err)
	}

	observability.Uploads.WithLabelValues("stored").Inc()
	observability.UploadBytes.Observe(float64(len(data)))
	return name, nil
}

func (s *MediaService) tooLarge() error {
	return models.NewValidationError(fmt.Sprintf("File must not exceed %dMB", s.maxBytes>>20))
}

// Open resolves a client-supplied relative path. Anything outside the store
// or not a regular file is NotFound.
func (s *MediaService) Open(ctx context.Context, rel string) (*Media, error) {
	key, err := storage.CleanKey(rel)
	if err != nil {
		return nil, imageNotFound(rel)
	}

	obj, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, imageNotFound(rel)
		}
		return nil, models.NewInternalError(err)
	}

	return &Media{
		Body:        obj.Body,
		Size:        obj.Size,
		ContentType: ContentTypeFor(key),
		ModTime:     obj.ModTime,
	}, nil
}

func imageNotFound(rel string) error {
	return &models.AppError{Code: models.CodeNotFound, Message: "Image not found: " + rel}
}

// ContentTypeFor picks the response content type from the file extension.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypesByExt[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// newFileName returns profile-<unixMillis>-<6 base36 chars>.<ext>.
func (s *MediaService) newFileName(original string) (string, error) {
	suffix, err := randomBase36(suffixLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("profile-%d-%s.%s", s.now().UnixMilli(), suffix, fileExt(original)), nil
}

// fileExt returns the lowercased last dot segment of name reduced to
// [a-z0-9], or "bin".
func fileExt(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return fallbackExt
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name[i+1:]) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == maxExtLen {
			break
		}
	}
	if b.Len() == 0 {
		return fallbackExt
	}
	return b.String()
}

func randomBase36(n int) (string, error) {
	limit := big.NewInt(int64(len(base36Alphabet)))
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = base36Alphabet[v.Int64()]
	}
	return string(out), nil
}
