// Package store persists cases, documents, users and automation rules.
// Gorm backs production; Memory backs tests and local runs without a database.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// CaseQuery narrows a case listing. Scope always applies.
type CaseQuery struct {
	Scope      access.Filter
	Status     *models.CaseStatus
	Priority   *models.Priority
	AssignedTo *uuid.UUID // coordinator or manager
	Page       int
	Limit      int
}

type CaseStore interface {
	CreateCase(ctx context.Context, c *models.Case) error
	// GetCase loads a case with documents, notes and timeline in order.
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	// CaseByClient returns nil without error when the client has no case.
	CaseByClient(ctx context.Context, clientID uuid.UUID) (*models.Case, error)
	ListCases(ctx context.Context, q CaseQuery) ([]models.Case, int64, error)
	// SaveCase writes scalar columns and inserts any timeline entries or
	// notes not yet stored. Existing entries are never rewritten.
	SaveCase(ctx context.Context, c *models.Case) error
	DeleteCase(ctx context.Context, id uuid.UUID) error
	CountCases(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, scope access.Filter) (map[models.CaseStatus]int64, error)
	// OpenCasesByCoordinator counts cases per assigned coordinator in the given statuses.
	OpenCasesByCoordinator(ctx context.Context, statuses []models.CaseStatus) (map[uuid.UUID]int64, error)
}

type DocumentStore interface {
	ListDocuments(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	// ReplaceDocument removes every document of doc's (case, type) and inserts
	// doc, atomically. The removed rows are returned so their objects can be
	// cleaned up.
	ReplaceDocument(ctx context.Context, doc *models.Document) ([]models.Document, error)
}

type RequestStore interface {
	CreateRequest(ctx context.Context, r *models.DocumentRequest) error
	ListRequests(ctx context.Context, caseID uuid.UUID) ([]models.DocumentRequest, error)
	// FulfillRequests stamps open requests of docType on the case.
	FulfillRequests(ctx context.Context, caseID uuid.UUID, docType models.DocumentType, at time.Time) (int64, error)
}

// UserFilter narrows ListUsers. Zero values mean no constraint.
type UserFilter struct {
	Role       models.Role
	ActiveOnly bool
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UsersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CountUsersByRole(ctx context.Context) (map[models.Role]int64, error)
	CountActiveUsers(ctx context.Context) (int64, error)
}

type RuleStore interface {
	ActiveRules(ctx context.Context, triggerType string) ([]models.AutomationRule, error)
}

// Store is every repository the services need.
type Store interface {
	CaseStore
	DocumentStore
	RequestStore
	UserStore
	RuleStore
}
