package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"homestead/internal/cache"
	"homestead/internal/models"
	"homestead/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	cache.SetClient(c)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = c.Close()
	})
	return mr
}

func TestUserRepository_GetByEmailMissingIsNil(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	u, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_CreateDuplicateEmailIsConflict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "dup@example.com", Role: models.RoleUser}))
	err := repo.Create(ctx, &models.User{Email: "dup@example.com", Role: models.RoleUser})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
}

func TestUserRepository_UpdateFieldsPhoneConflict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "Ali", "")
	b := testutil.CreateUser(t, db, "Bita", "")

	require.NoError(t, repo.UpdateFields(ctx, a.ID, map[string]interface{}{"phone": "09120000000"}))
	err := repo.UpdateFields(ctx, b.ID, map[string]interface{}{"phone": "09120000000"})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	err = repo.UpdateFields(ctx, 9999, map[string]interface{}{"bio": "x"})
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_DeleteRestrictedByDependents(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "")
	testutil.CreateProperty(t, db, owner.ID, "Villa")

	err := repo.Delete(ctx, owner.ID)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	counts, err := repo.CountRelations(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RelationCounts{Properties: 1}, counts)

	assert.True(t, models.IsNotFound(repo.Delete(ctx, 4242)))
}

func TestUserRepository_ListNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	first := testutil.CreateUser(t, db, "First", "")
	second := testutil.CreateUser(t, db, "Second", "")

	users, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, second.ID, users[0].ID)
	assert.Equal(t, first.ID, users[1].ID)
}

func TestPropertyRepository_CreateDefaultsAndOwner(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "")

	p := &models.Property{
		Title: "Flat", Description: "Nice", PropertyType: "apartment", DealType: "rent",
		Area: 80, Location: "Shiraz", OwnerID: owner.ID,
	}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyStatusActive, got.Status)
	assert.False(t, got.Parking)
	assert.Equal(t, models.StringList{}, got.Images)
	require.NotNil(t, got.Owner)
	assert.Equal(t, owner.Email, got.Owner.Email)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsNotFound(err))
}

func TestPropertyRepository_CreateUnknownOwner(t *testing.T) {
	db := testutil.NewDB(t)
	err := NewPropertyRepository(db).Create(context.Background(), &models.Property{
		Title: "Flat", Description: "Nice", PropertyType: "apartment", DealType: "rent",
		Area: 80, Location: "Shiraz", OwnerID: 777,
	})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestPropertyRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "")

	cheap := testutil.CreateProperty(t, db, owner.ID, "Cheap")
	price := 100.0
	require.NoError(t, db.Model(cheap).Updates(map[string]interface{}{"price": price, "location": "North Tehran"}).Error)
	dear := testutil.CreateProperty(t, db, owner.ID, "Dear")
	require.NoError(t, db.Model(dear).Updates(map[string]interface{}{"price": 900.0, "deal_type": "rent"}).Error)

	all, err := repo.List(ctx, PropertyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, dear.ID, all[0].ID, "newest first")

	max := 500.0
	got, err := repo.List(ctx, PropertyFilter{MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cheap.ID, got[0].ID)

	got, err = repo.List(ctx, PropertyFilter{Location: "north"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.List(ctx, PropertyFilter{DealType: "rent"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dear.ID, got[0].ID)
}

func TestPropertyRepository_UpdateDeleteInvalidateCache(t *testing.T) {
	mr := withMiniredis(t)
	db := testutil.NewDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "")
	p := testutil.CreateProperty(t, db, owner.ID, "Before")

	_, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PropertyKey(p.ID)))

	loaded, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	loaded.Title = "After"
	loaded.Owner = nil
	require.NoError(t, repo.Update(ctx, loaded))
	assert.False(t, mr.Exists(cache.PropertyKey(p.ID)))

	again, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", again.Title)
	assert.Equal(t, owner.ID, again.OwnerID)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.False(t, mr.Exists(cache.PropertyKey(p.ID)))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, p.ID)))
	assert.True(t, models.IsNotFound(repo.Update(ctx, loaded)), "update must not resurrect a deleted row")
}

func TestPropertyRepository_Count(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPropertyRepository(db)
	owner := testutil.CreateUser(t, db, "Owner", "")
	testutil.CreateProperty(t, db, owner.ID, "A")
	sold := testutil.CreateProperty(t, db, owner.ID, "B")
	require.NoError(t, db.Model(sold).Update("status", "sold").Error)

	total, err := repo.Count(context.Background(), "")
	require.NoError(t, err)
	active, err := repo.Count(context.Background(), models.PropertyStatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), active)
}

func TestPostRepository_ListPublishedHidesDraftsAndEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "Writer", "")
	testutil.CreatePost(t, db, author.ID, "Draft", false)
	live := testutil.CreatePost(t, db, author.ID, "Live", true)

	posts, err := repo.ListPublished(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, live.ID, posts[0].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "Writer", *posts[0].Author.Name)
	assert.Empty(t, posts[0].Author.Email)

	all, err := repo.ListAll(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostRepository_FeedCacheInvalidatedOnWrite(t *testing.T) {
	mr := withMiniredis(t)
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "Writer", "")
	post := testutil.CreatePost(t, db, author.ID, "Live", true)

	_, err := repo.ListPublished(ctx, DefaultFeedSize, 0)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.PublishedPostsKey(DefaultFeedSize)))

	require.NoError(t, repo.Delete(ctx, post.ID))
	assert.False(t, mr.Exists(cache.PublishedPostsKey(DefaultFeedSize)))

	posts, err := repo.ListPublished(ctx, DefaultFeedSize, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostRepository_GetByIDIncludesAuthorEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "Writer", "")
	post := testutil.CreatePost(t, db, author.ID, "Live", true)

	got, err := repo.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, author.Email, got.Author.Email)

	_, err = repo.GetByID(context.Background(), 404)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_PostgresErrorMapping(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs(5, 1).
		WillReturnError(errors.New("connection reset"))
	_, err := repo.GetByID(ctx, 5)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`))
	mock.ExpectRollback()
	err = repo.Create(ctx, &models.User{Email: "dup@example.com", Role: models.RoleUser, CreatedAt: time.Now()})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(3).
		WillReturnError(errors.New(`ERROR: update or delete on table "users" violates foreign key constraint "fk_users_properties" (SQLSTATE 23503)`))
	mock.ExpectRollback()
	err = repo.Delete(ctx, 3)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintErrorClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate"}
	fk := &pgconn.PgError{Code: "23503", Message: "fk"}

	assert.True(t, isUniqueConstraintError(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isUniqueConstraintError(fk))
	assert.True(t, isForeignKeyError(fk))
	assert.False(t, isForeignKeyError(unique))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.False(t, isUniqueConstraintError(nil))
	assert.False(t, isForeignKeyError(errors.New("connection reset")))
}
