package service

import (
	"context"
	"strings"

	"homestead/internal/cache"
	"homestead/internal/models"
	"homestead/internal/repository"
	"homestead/internal/validation"
)

type CreatePostInput struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Category  *string `json:"category"`
	Published bool    `json:"published"`
	ImageURL  *string `json:"imageUrl"`
	VideoURL  *string `json:"videoUrl"`
	EmbedCode *string `json:"embedCode"`
}

// PostPatch lists the fields a post update may touch. Nil fields are left
// unchanged; an empty string clears an optional field.
type PostPatch struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Category  *string `json:"category"`
	Published *bool   `json:"published"`
	ImageURL  *string `json:"imageUrl"`
	VideoURL  *string `json:"videoUrl"`
	EmbedCode *string `json:"embedCode"`
}

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

// Create stores a post authored by the session user, resolved by email.
func (s *PostService) Create(ctx context.Context, actor *Actor, in CreatePostInput) (*models.PostView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	author, err := s.resolveAuthor(ctx, actor)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Category:  validation.TrimOptional(in.Category),
		Published: in.Published,
		ImageURL:  validation.TrimOptional(in.ImageURL),
		VideoURL:  validation.TrimOptional(in.VideoURL),
		EmbedCode: validation.TrimOptional(in.EmbedCode),
		AuthorID:  author.ID,
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, author.ID)
	return models.ViewOf(post), nil
}

func (s *PostService) resolveAuthor(ctx context.Context, actor *Actor) (*models.User, error) {
	if actor.Email == "" {
		return s.userRepo.GetByID(ctx, actor.UserID)
	}
	user, err := s.userRepo.GetByEmail(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", actor.UserID)
	}
	return user, nil
}

// Get returns post id. Drafts are only visible to their author and admins;
// everyone else gets NotFound.
func (s *PostService) Get(ctx context.Context, viewer *Actor, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Published && !viewer.CanModify(post.AuthorID) {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.postRepo.ListPublished(ctx, limit, offset)
}

// Update applies patch to post id. Published can only move from false to true.
func (s *PostService) Update(ctx context.Context, actor *Actor, id uint, patch PostPatch) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(post.AuthorID) {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if patch.Published != nil && post.Published && !*patch.Published {
		return nil, models.NewValidationError("A published post cannot be unpublished")
	}

	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		post.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Category != nil {
		post.Category = validation.TrimOptional(patch.Category)
	}
	if patch.Published != nil {
		post.Published = *patch.Published
	}
	if patch.ImageURL != nil {
		post.ImageURL = validation.TrimOptional(patch.ImageURL)
	}
	if patch.VideoURL != nil {
		post.VideoURL = validation.TrimOptional(patch.VideoURL)
	}
	if patch.EmbedCode != nil {
		post.EmbedCode = validation.TrimOptional(patch.EmbedCode)
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, actor *Actor, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(post.AuthorID) {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, post.AuthorID)
	return nil
}

func validatePost(p *models.Post) error {
	if err := validation.ValidatePostTitle(p.Title); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(p.Content); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCategory(p.Category); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}
