package service

import (
	"testing"

	"homestead/internal/cache"
	"homestead/internal/models"
	"homestead/internal/repository"
	"homestead/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type repos struct {
	db         *gorm.DB
	users      repository.UserRepository
	properties repository.PropertyRepository
	posts      repository.PostRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewDB(t)
	return repos{
		db:         db,
		users:      repository.NewUserRepository(db),
		properties: repository.NewPropertyRepository(db),
		posts:      repository.NewPostRepository(db),
	}
}

// withRedis installs a miniredis-backed cache client for the test.
func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = client.Close()
	})
	return mr
}

func actorFor(u *models.User) *Actor {
	return &Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}

func f64(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
