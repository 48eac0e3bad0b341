// Package bootstrap wires the process-wide runtime: database, schema, Redis
// and the optional development admin.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"homestead/internal/cache"
	"homestead/internal/config"
	"homestead/internal/database"
	"homestead/internal/middleware"
	"homestead/internal/models"
	"homestead/internal/observability"
	"homestead/internal/repository"
	"homestead/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs ApplySchema after connecting.
	ApplySchema bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := observability.InstrumentGorm(db); err != nil {
		return nil, nil, fmt.Errorf("instrument database: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	r := cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, r, nil
}

// EnsureDevAdmin makes DEV_ADMIN_EMAIL an admin in development when
// DEV_BOOTSTRAP_ADMIN is set, creating the account if needed.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@homestead.local"
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo)

	existing, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing == nil {
		admin, err := service.NewAuthService(userRepo).CreateAdmin(ctx, service.SignupInput{
			Name:     "Admin",
			Email:    email,
			Password: cfg.DevAdminPassword,
		})
		if err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "development admin created", "user_id", admin.ID, "email", email)
		return nil
	}

	if existing.Role != models.RoleAdmin {
		if _, err := users.SetRole(ctx, nil, existing.ID, string(models.RoleAdmin)); err != nil {
			return err
		}
	}
	middleware.Logger.InfoContext(ctx, "development admin ensured", "user_id", existing.ID, "email", email)
	return nil
}
