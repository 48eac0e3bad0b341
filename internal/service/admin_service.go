package service

import (
	"context"

	"homestead/internal/models"
	"homestead/internal/repository"
)

// DashboardStats are the headline counts of the admin dashboard.
type DashboardStats struct {
	Users            int64 `json:"users"`
	Properties       int64 `json:"properties"`
	ActiveProperties int64 `json:"activeProperties"`
	Posts            int64 `json:"posts"`
	PublishedPosts   int64 `json:"publishedPosts"`
}

type AdminService struct {
	userRepo     repository.UserRepository
	propertyRepo repository.PropertyRepository
	postRepo     repository.PostRepository
}

func NewAdminService(userRepo repository.UserRepository, propertyRepo repository.PropertyRepository, postRepo repository.PostRepository) *AdminService {
	return &AdminService{userRepo: userRepo, propertyRepo: propertyRepo, postRepo: postRepo}
}

func (s *AdminService) Stats(ctx context.Context, actor *Actor) (*DashboardStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		stats DashboardStats
		err   error
	)
	if stats.Users, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Properties, err = s.propertyRepo.Count(ctx, ""); err != nil {
		return nil, err
	}
	if stats.ActiveProperties, err = s.propertyRepo.Count(ctx, models.PropertyStatusActive); err != nil {
		return nil, err
	}
	if stats.Posts, err = s.postRepo.Count(ctx, false); err != nil {
		return nil, err
	}
	if stats.PublishedPosts, err = s.postRepo.Count(ctx, true); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListProperties returns the dashboard listing rows, newest first.
func (s *AdminService) ListProperties(ctx context.Context, actor *Actor, limit, offset int) ([]models.PropertyListItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	props, err := s.propertyRepo.List(ctx, repository.PropertyFilter{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	out := make([]models.PropertyListItem, 0, len(props))
	for _, p := range props {
		out = append(out, models.PropertyListItem{
			ID:        p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Location:  p.Location,
			CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}

// ListPosts returns every post including drafts, newest first.
func (s *AdminService) ListPosts(ctx context.Context, actor *Actor, limit, offset int) ([]models.Post, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.postRepo.ListAll(ctx, limit, offset)
}
