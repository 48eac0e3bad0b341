package service

import (
	"context"
	"fmt"
	"strings"

	"homestead/internal/cache"
	"homestead/internal/middleware"
	"homestead/internal/models"
	"homestead/internal/repository"
	"homestead/internal/validation"
)

// ProfileUpdate carries the only profile fields a user may change. Empty
// name, phone and image are ignored; bio may be cleared.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Bio   *string `json:"bio"`
	Image *string `json:"image"`
}

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile returns the actor's profile with relation counts.
func (s *UserService) GetProfile(ctx context.Context, actor *Actor) (*models.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var profile models.Profile
	err := cache.Aside(ctx, cache.UserKey(actor.UserID), &profile, cache.UserTTL, func() error {
		user, err := s.userRepo.GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		counts, err := s.userRepo.CountRelations(ctx, user.ID)
		if err != nil {
			return err
		}
		profile = *models.ProfileOf(user)
		profile.Count = &counts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *Actor, in ProfileUpdate) (*models.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			if err := validation.ValidateName(name); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			fields["name"] = name
		}
	}
	if in.Phone != nil {
		if phone := strings.TrimSpace(*in.Phone); phone != "" {
			if err := validation.ValidatePhone(phone); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
			fields["phone"] = phone
		}
	}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Image != nil {
		if image := strings.TrimSpace(*in.Image); image != "" {
			fields["image"] = image
		}
	}

	if err := s.userRepo.UpdateFields(ctx, actor.UserID, fields); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			if _, ok := fields["phone"]; ok {
				return nil, models.NewPhoneAlreadyUsedError()
			}
		}
		return nil, err
	}
	cache.InvalidateUser(ctx, actor.UserID)

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return models.ProfileOf(user), nil
}

// ListUsers returns the dashboard user list, newest first.
func (s *UserService) ListUsers(ctx context.Context, actor *Actor, limit, offset int) ([]models.UserListItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserListItem, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserListItem{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	return out, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: fmt.Sprintf("User with email %s not found", email)}
	}
	return user, nil
}

// SetRole changes the role of user id. A nil actor is the operator CLI.
// Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor *Actor, id uint, role string) (*models.UserListItem, error) {
	if actor != nil {
		if err := requireAdmin(actor); err != nil {
			return nil, err
		}
	}
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, models.NewValidationError("role must be USER or ADMIN")
	}
	if actor != nil && actor.UserID == id && r != models.RoleAdmin {
		return nil, models.NewValidationError("You cannot remove your own admin role")
	}

	if err := s.userRepo.UpdateFields(ctx, id, map[string]interface{}{"role": r}); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, id)

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user role changed", "target_user_id", id, "role", string(r))
	return &models.UserListItem{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, CreatedAt: user.CreatedAt}, nil
}

// DeleteUser removes a user that owns no listings or posts.
func (s *UserService) DeleteUser(ctx context.Context, actor *Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return models.NewValidationError("You cannot delete your own account")
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}
	counts, err := s.userRepo.CountRelations(ctx, id)
	if err != nil {
		return err
	}
	if counts.Properties > 0 || counts.Posts > 0 {
		return models.NewConflictError(fmt.Sprintf(
			"User still owns %d properties and %d posts", counts.Properties, counts.Posts))
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
