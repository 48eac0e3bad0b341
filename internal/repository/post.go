package repository

import (
	"context"

	"homestead/internal/cache"
	"homestead/internal/models"

	"gorm.io/gorm"
)

// DefaultFeedSize is the number of posts on the home page feed.
const DefaultFeedSize = 9

// PostRepository defines persistence operations for blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, publishedOnly bool) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewValidationError("Author does not exist")
		}
		return models.NewInternalError(err)
	}
	if post.Published {
		cache.InvalidatePublishedPosts(ctx)
	}
	return nil
}

// GetByID loads a post with its author projection including email.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, mapLookupError(err, "Post", id)
	}
	if err := r.attachAuthors(ctx, []*models.Post{&post}, true); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPublished returns the public feed, newest first. The first page is
// cached per page size.
func (r *postRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset, DefaultFeedSize)

	var posts []models.Post
	fetch := func() error {
		var err error
		posts, err = r.list(ctx, r.db.WithContext(ctx).Where("published = ?", true), limit, offset, false)
		return err
	}

	if offset != 0 {
		if err := fetch(); err != nil {
			return nil, err
		}
		return posts, nil
	}
	if err := cache.Aside(ctx, cache.PublishedPostsKey(limit), &posts, cache.PublishedPostsTTL, fetch); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListAll returns every post including drafts, for the dashboard.
func (r *postRepository) ListAll(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset, DefaultPageSize)
	return r.list(ctx, r.db.WithContext(ctx), limit, offset, true)
}

func (r *postRepository) list(ctx context.Context, q *gorm.DB, limit, offset int, withEmail bool) ([]models.Post, error) {
	posts := []models.Post{}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	if err := r.attachAuthors(ctx, ptrs, withEmail); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).
		Select("*").
		Omit("ID", "AuthorID", "CreatedAt").
		Updates(post)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	cache.InvalidatePublishedPosts(ctx)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePublishedPosts(ctx)
	return nil
}

func (r *postRepository) Count(ctx context.Context, publishedOnly bool) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *postRepository) attachAuthors(ctx context.Context, posts []*models.Post, withEmail bool) error {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	authors, err := loadUserSummaries(r.db.WithContext(ctx), ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	for _, p := range posts {
		a, ok := authors[p.AuthorID]
		if !ok {
			continue
		}
		summary := *a
		if !withEmail {
			summary.Email = ""
		}
		p.Author = &summary
	}
	return nil
}
