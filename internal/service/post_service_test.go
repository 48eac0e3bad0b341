package service

import (
	"context"
	"strings"
	"testing"

	"homestead/internal/cache"
	"homestead/internal/models"
	"homestead/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create(t *testing.T) {
	r := newRepos(t)
	svc := NewPostService(r.posts, r.users)
	ctx := context.Background()
	author := testutil.CreateUser(t, r.db, "Author", "")

	view, err := svc.Create(ctx, actorFor(author), CreatePostInput{
		Title:     "  Market update  ",
		Content:   "  Prices rose in spring.  ",
		Category:  testutil.StrPtr(" news "),
		ImageURL:  testutil.StrPtr("   "),
		VideoURL:  testutil.StrPtr("https://example.com/v.mp4"),
		Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Market update", view.Title)
	assert.Equal(t, "Prices rose in spring.", view.Content)
	require.NotNil(t, view.Category)
	assert.Equal(t, "news", *view.Category)
	assert.Nil(t, view.ImageURL)
	assert.Nil(t, view.EmbedCode)
	assert.Equal(t, "https://example.com/v.mp4", *view.VideoURL)
	assert.True(t, view.Published)

	stored, err := r.posts.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, stored.AuthorID)
}

func TestPostService_CreateValidation(t *testing.T) {
	r := newRepos(t)
	svc := NewPostService(r.posts, r.users)
	ctx := context.Background()
	author := testutil.CreateUser(t, r.db, "Author", "")

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"short title", CreatePostInput{Title: " a ", Content: "long enough content"}},
		{"long title", CreatePostInput{Title: strings.Repeat("t", 201), Content: "long enough content"}},
		{"short content", CreatePostInput{Title: "Title", Content: "  too short  "}},
		{"long category", CreatePostInput{Title: "Title", Content: "long enough content", Category: testutil.StrPtr(strings.Repeat("c", 51))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, actorFor(author), tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}

	_, err := svc.Create(ctx, nil, CreatePostInput{Title: "Title", Content: "long enough content"})
	assertCode(t, err, models.CodeUnauthorized)

	ghost := &Actor{UserID: 4242, Email: "ghost@example.com", Role: models.RoleUser}
	_, err = svc.Create(ctx, ghost, CreatePostInput{Title: "Title", Content: "long enough content"})
	assertCode(t, err, models.CodeNotFound)

	n, err := r.posts.Count(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostService_DraftVisibility(t *testing.T) {
	r := newRepos(t)
	svc := NewPostService(r.posts, r.users)
	ctx := context.Background()
	author := testutil.CreateUser(t, r.db, "Author", "")
	reader := testutil.CreateUser(t, r.db, "Reader", "")
	admin := testutil.CreateAdmin(t, r.db)
	draft := testutil.CreatePost(t, r.db, author.ID, "Draft", false)
	live := testutil.CreatePost(t, r.db, author.ID, "Live", true)

	_, err := svc.Get(ctx, nil, draft.ID)
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.Get(ctx, actorFor(reader), draft.ID)
	assertCode(t, err, models.CodeNotFound)

	got, err := svc.Get(ctx, actorFor(author), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)
	_, err = svc.Get(ctx, actorFor(admin), draft.ID)
	require.NoError(t, err)

	got, err = svc.Get(ctx, nil, live.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, author.Email, got.Author.Email)

	feed, err := svc.ListPublished(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, live.ID, feed[0].ID)
	assert.Empty(t, feed[0].Author.Email)
}

func TestPostService_PublishIsOneWay(t *testing.T) {
	r := newRepos(t)
	svc := NewPostService(r.posts, r.users)
	ctx := context.Background()
	author := testutil.CreateUser(t, r.db, "Author", "")
	post := testutil.CreatePost(t, r.db, author.ID, "Draft", false)

	updated, err := svc.Update(ctx, actorFor(author), post.ID, PostPatch{Published: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Published)

	_, err = svc.Update(ctx, actorFor(author), post.ID, PostPatch{Published: boolPtr(false)})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Update(ctx, actorFor(author), post.ID, PostPatch{Published: boolPtr(true)})
	require.NoError(t, err)
}

func TestPostService_UpdateAndDeleteOwnership(t *testing.T) {
	r := newRepos(t)
	svc := NewPostService(r.posts, r.users)
	ctx := context.Background()
	author := testutil.CreateUser(t, r.db, "Author", "")
	stranger := testutil.CreateUser(t, r.db, "Stranger", "")
	admin := testutil.CreateAdmin(t, r.db)
	post := testutil.CreatePost(t, r.db, author.ID, "Original", true)

	title := "Edited"
	_, err := svc.Update(ctx, actorFor(stranger), post.ID, PostPatch{Title: &title})
	assertCode(t, err, models.CodeForbidden)

	updated, err := svc.Update(ctx, actorFor(admin), post.ID, PostPatch{Title: &title, Category: testutil.StrPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Nil(t, updated.Category)
	assert.Equal(t, author.ID, updated.AuthorID)

	short := "x"
	_, err = svc.Update(ctx, actorFor(author), post.ID, PostPatch{Title: &short})
	assertCode(t, err, models.CodeValidation)

	assertCode(t, svc.Delete(ctx, nil, post.ID), models.CodeUnauthorized)
	assertCode(t, svc.Delete(ctx, actorFor(stranger), post.ID), models.CodeForbidden)
	require.NoError(t, svc.Delete(ctx, actorFor(author), post.ID))
	assertCode(t, svc.Delete(ctx, actorFor(author), post.ID), models.CodeNotFound)
}

func TestPostService_FeedCacheInvalidation(t *testing.T) {
	mr := withRedis(t)
	r := newRepos(t)
	svc := NewPostService(r.posts, r.users)
	ctx := context.Background()
	author := testutil.CreateUser(t, r.db, "Author", "")
	testutil.CreatePost(t, r.db, author.ID, "First", true)

	feed, err := svc.ListPublished(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, mr.Exists(cache.PublishedPostsKey(9)))

	_, err = svc.Create(ctx, actorFor(author), CreatePostInput{Title: "Second", Content: "Another long post body", Published: true})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PublishedPostsKey(9)))

	feed, err = svc.ListPublished(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}
