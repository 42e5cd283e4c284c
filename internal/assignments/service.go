// Package assignments attaches managers to cases and reports who is
// available to take work.
package assignments

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/internal/workflow"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// openStatuses count towards a coordinator's workload.
var openStatuses = []models.CaseStatus{models.CaseDraft, models.CaseSubmitted, models.CaseUnderReview}

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// AssignManager sets or clears the manager on a case. A coordinator acting on
// a case with no coordinator also becomes its coordinator.
func (s *Service) AssignManager(ctx context.Context, p models.Principal, caseID uuid.UUID, managerID *uuid.UUID) (*models.Case, error) {
	if !p.Role.IsStaff() {
		return nil, apperr.Forbidden("Only staff can assign managers")
	}
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	var manager *models.User
	if managerID != nil {
		manager, err = s.store.GetUser(ctx, *managerID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.NotFound("manager")
			}
			return nil, err
		}
		if manager.Role != models.RoleManager {
			return nil, apperr.NotFound("manager")
		}
	}

	now := s.now()
	if c.AssignedCoordinatorID == nil && p.Role == models.RoleCoordinator {
		id := p.ID
		c.AssignedCoordinatorID = &id
	}
	if manager != nil {
		id := manager.ID
		c.AssignedManagerID = &id
		workflow.AppendTimeline(c, c.Status, p.ID, "Assigned to manager: "+manager.Name, now)
	} else {
		c.AssignedManagerID = nil
	}
	c.UpdatedAt = now

	if err := s.store.SaveCase(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("case manager assigned", "case_id", c.ID, "manager_id", c.AssignedManagerID, "user_id", p.ID)
	return c, nil
}

func canSeeTeam(p models.Principal) bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleManager
}

// Coordinators lists active coordinators.
func (s *Service) Coordinators(ctx context.Context, p models.Principal) ([]models.User, error) {
	if !canSeeTeam(p) {
		return nil, apperr.Forbidden("Only admins and managers can list coordinators")
	}
	return s.store.ListUsers(ctx, store.UserFilter{Role: models.RoleCoordinator, ActiveOnly: true})
}

// Managers lists active managers.
func (s *Service) Managers(ctx context.Context, p models.Principal) ([]models.User, error) {
	if !p.Role.IsStaff() {
		return nil, apperr.Forbidden("Only staff can list managers")
	}
	return s.store.ListUsers(ctx, store.UserFilter{Role: models.RoleManager, ActiveOnly: true})
}

// Load is one coordinator's count of open cases.
type Load struct {
	Coordinator models.UserSummary `json:"coordinator"`
	OpenCases   int64              `json:"open_cases"`
}

// Workload counts draft, submitted and under-review cases per active
// coordinator, busiest first.
func (s *Service) Workload(ctx context.Context, p models.Principal) ([]Load, error) {
	if !canSeeTeam(p) {
		return nil, apperr.Forbidden("Only admins and managers can view workload")
	}
	coords, err := s.store.ListUsers(ctx, store.UserFilter{Role: models.RoleCoordinator, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	counts, err := s.store.OpenCasesByCoordinator(ctx, openStatuses)
	if err != nil {
		return nil, err
	}

	out := make([]Load, 0, len(coords))
	for i := range coords {
		out = append(out, Load{Coordinator: *coords[i].Summary(), OpenCases: counts[coords[i].ID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OpenCases > out[j].OpenCases })
	return out, nil
}
