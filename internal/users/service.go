// Package users manages staff accounts and the admin dashboard counters.
package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

type Service struct {
	store  store.Store
	access *access.Evaluator
}

func NewService(st store.Store, ev *access.Evaluator) *Service {
	return &Service{store: st, access: ev}
}

// CreateInput describes a new staff account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

// CreateStaff adds a coordinator, manager or admin. Admin only.
func (s *Service) CreateStaff(ctx context.Context, p models.Principal, in CreateInput) (*models.User, error) {
	if p.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("Only admins can create staff accounts")
	}
	if !in.Role.IsStaff() {
		return nil, apperr.Validation("Role must be coordinator, manager or admin")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u := models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         in.Role,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	slog.Info("staff account created", "user_id", u.ID, "role", u.Role, "by", p.ID)
	return &u, nil
}

// List returns users, optionally of one role. Admins and managers only.
func (s *Service) List(ctx context.Context, p models.Principal, role models.Role) ([]models.User, error) {
	if p.Role != models.RoleAdmin && p.Role != models.RoleManager {
		return nil, apperr.Forbidden("Only admins and managers can list users")
	}
	if role != "" && !role.Valid() {
		return nil, apperr.Validation("Invalid role")
	}
	return s.store.ListUsers(ctx, store.UserFilter{Role: role})
}

// SetActive activates or deactivates an account. Admins may change anyone;
// managers only clients and coordinators. Nobody changes themselves.
func (s *Service) SetActive(ctx context.Context, p models.Principal, id uuid.UUID, active bool) (*models.User, error) {
	if id == p.ID {
		return nil, apperr.Validation("You cannot change your own status")
	}
	if p.Role != models.RoleAdmin && p.Role != models.RoleManager {
		return nil, apperr.Forbidden("Only admins and managers can change account status")
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role == models.RoleManager && u.Role != models.RoleClient && u.Role != models.RoleCoordinator {
		return nil, apperr.Forbidden("Managers can only change clients and coordinators")
	}

	u.IsActive = active
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("account status changed", "user_id", u.ID, "active", active, "by", p.ID)
	return u, nil
}

// ChangeRole moves a user to another role. Admin only, never on oneself.
func (s *Service) ChangeRole(ctx context.Context, p models.Principal, id uuid.UUID, role models.Role) (*models.User, error) {
	if p.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("Only admins can change roles")
	}
	if id == p.ID {
		return nil, apperr.Validation("You cannot change your own role")
	}
	if !role.Valid() {
		return nil, apperr.Validation("Invalid role")
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	from := u.Role
	u.Role = role
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("role changed", "user_id", u.ID, "from", from, "to", role, "by", p.ID)
	return u, nil
}

// Delete removes an account. Admin only, never on oneself.
func (s *Service) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	if p.Role != models.RoleAdmin {
		return apperr.Forbidden("Only admins can delete users")
	}
	if id == p.ID {
		return apperr.Validation("You cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	slog.Info("user deleted", "user_id", id, "by", p.ID)
	return nil
}
