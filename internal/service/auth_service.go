package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"homestead/internal/middleware"
	"homestead/internal/models"
	"homestead/internal/observability"
	"homestead/internal/repository"
	"homestead/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SignupInput is the body of a credential sign-up.
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	compare    func(hash, password []byte) error

	placeholderOnce sync.Once
	placeholder     []byte
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		bcryptCost: bcrypt.DefaultCost,
		compare:    bcrypt.CompareHashAndPassword,
	}
}

// placeholderHash is compared against when an account has no usable hash, so
// every rejected sign-in pays the same bcrypt cost.
func (s *AuthService) placeholderHash() []byte {
	s.placeholderOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("no-account-placeholder"), s.bcryptCost)
		if err != nil {
			middleware.Logger.Error("placeholder hash generation failed", "error", err)
			return
		}
		s.placeholder = h
	})
	return s.placeholder
}

// VerifyCredentials returns the identity for a matching email/password pair.
// Unknown emails, accounts without a password and wrong passwords all yield
// (nil, nil) so callers cannot tell them apart.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (_ *models.Identity, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "VerifyCredentials")
	defer func() { observability.EndSpan(span, err) }()

	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		observability.SignIns.WithLabelValues("rejected").Inc()
		return nil, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		observability.SignIns.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil || user.Password == nil || *user.Password == "" {
		_ = s.compare(s.placeholderHash(), []byte(password))
		observability.SignIns.WithLabelValues("rejected").Inc()
		return nil, nil
	}

	if cmpErr := s.compare([]byte(*user.Password), []byte(password)); cmpErr != nil {
		if !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			middleware.Logger.WarnContext(ctx, "stored password hash is unusable", "user_id", user.ID, "error", cmpErr)
		}
		observability.SignIns.WithLabelValues("rejected").Inc()
		return nil, nil
	}

	observability.SignIns.WithLabelValues("success").Inc()
	id := models.IdentityOf(user)
	return &id, nil
}

// Signup registers a USER account.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.Identity, error) {
	return s.register(ctx, in, models.RoleUser)
}

// CreateAdmin registers an ADMIN account. Used by the admin CLI and the dev
// bootstrap.
func (s *AuthService) CreateAdmin(ctx context.Context, in SignupInput) (*models.Identity, error) {
	return s.register(ctx, in, models.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, in SignupInput, role models.Role) (*models.Identity, error) {
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("Name, email and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, models.NewValidationError(err.Error())
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	hashed := string(hash)

	user := &models.User{
		Name:       &name,
		Email:      email,
		Password:   &hashed,
		IsVerified: false,
		Role:       role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", string(role))
	id := models.IdentityOf(user)
	return &id, nil
}
