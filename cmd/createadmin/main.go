// Command createadmin makes sure an active admin account exists.
// It reads ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME and is safe to rerun.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/internal/config"
	"github.com/aldoetobex/glojourn-backend/internal/logging"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/database"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	u, created, err := ensureAdmin(context.Background(), store.NewGorm(db), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		slog.Error("create admin failed", "error", err)
		os.Exit(1)
	}
	slog.Info("admin ready", "user_id", u.ID, "email", u.Email, "created", created)
}

// ensureAdmin creates the admin, or promotes and reactivates an existing
// account with that email. The password of an existing account is kept.
func ensureAdmin(ctx context.Context, users store.UserStore, email, password, name string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New("ADMIN_EMAIL is required")
	}

	existing, err := users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin && existing.IsActive {
			return existing, false, nil
		}
		existing.Role = models.RoleAdmin
		existing.IsActive = true
		if err := users.SaveUser(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, false, err
	}

	if len(password) < 6 {
		return nil, false, errors.New("ADMIN_PASSWORD must be at least 6 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Name:         strings.TrimSpace(name),
		IsActive:     true,
	}
	if err := users.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}
