package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

const recentCases = 10

type RecentCase struct {
	ID         uuid.UUID         `json:"id"`
	CaseNumber string            `json:"case_number"`
	Status     models.CaseStatus `json:"status"`
	VisaType   models.VisaType   `json:"visa_type"`
	Priority   models.Priority   `json:"priority"`
}

// Stats is the dashboard summary. Case figures follow the caller's listing scope.
type Stats struct {
	CasesByStatus map[models.CaseStatus]int64 `json:"cases_by_status"`
	TotalCases    int64                       `json:"total_cases"`
	UsersByRole   map[models.Role]int64       `json:"users_by_role"`
	ActiveUsers   int64                       `json:"active_users"`
	RecentCases   []RecentCase                `json:"recent_cases"`
}

func (s *Service) Stats(ctx context.Context, p models.Principal) (*Stats, error) {
	if !p.Role.IsStaff() {
		return nil, apperr.Forbidden("Only staff can view stats")
	}
	scope := s.access.Scope(p)

	byStatus, err := s.store.CountByStatus(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := &Stats{CasesByStatus: make(map[models.CaseStatus]int64, len(models.CaseStatuses))}
	for _, st := range models.CaseStatuses {
		out.CasesByStatus[st] = byStatus[st]
		out.TotalCases += byStatus[st]
	}

	byRole, err := s.store.CountUsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	out.UsersByRole = make(map[models.Role]int64, len(models.Roles))
	for _, r := range models.Roles {
		out.UsersByRole[r] = byRole[r]
	}

	if out.ActiveUsers, err = s.store.CountActiveUsers(ctx); err != nil {
		return nil, err
	}

	recent, _, err := s.store.ListCases(ctx, store.CaseQuery{Scope: scope, Page: 1, Limit: recentCases})
	if err != nil {
		return nil, err
	}
	out.RecentCases = make([]RecentCase, 0, len(recent))
	for _, c := range recent {
		out.RecentCases = append(out.RecentCases, RecentCase{
			ID:         c.ID,
			CaseNumber: c.CaseNumber,
			Status:     c.Status,
			VisaType:   c.VisaType,
			Priority:   c.Priority,
		})
	}
	return out, nil
}
