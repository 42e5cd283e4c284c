package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm { return &Gorm{db: db} }

var _ Store = (*Gorm)(nil)

var scopeColumns = map[string]bool{
	access.FieldClient:      true,
	access.FieldCoordinator: true,
	access.FieldManager:     true,
}

// ScopeCases turns an access filter into a WHERE clause.
func ScopeCases(f access.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Unrestricted {
			return db
		}
		if len(f.AnyOf) == 0 {
			return db.Where("1 = 0")
		}
		parts := make([]string, 0, len(f.AnyOf))
		args := make([]any, 0, len(f.AnyOf))
		for _, cl := range f.AnyOf {
			if !scopeColumns[cl.Field] {
				continue
			}
			if cl.Value == nil {
				parts = append(parts, cl.Field+" IS NULL")
				continue
			}
			parts = append(parts, cl.Field+" = ?")
			args = append(args, *cl.Value)
		}
		if len(parts) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}
	return err
}

/* ================================ Cases ================================= */

// CreateCase inserts c with its notes and timeline. A taken case number is
// reported as apperr.ErrConflict so the caller can pick another.
func (s *Gorm) CreateCase(ctx context.Context, c *models.Case) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		return appendChildren(tx, c)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("case number already used")
	}
	return err
}

func (s *Gorm) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var c models.Case
	err := s.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "case")
	}
	return &c, nil
}

func (s *Gorm) CaseByClient(ctx context.Context, clientID uuid.UUID) (*models.Case, error) {
	var c models.Case
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at ASC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetCase(ctx, c.ID)
}

func (s *Gorm) ListCases(ctx context.Context, q CaseQuery) ([]models.Case, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Case{}).Scopes(ScopeCases(q.Scope))
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.Priority != nil {
		tx = tx.Where("priority = ?", *q.Priority)
	}
	if q.AssignedTo != nil {
		tx = tx.Where("(assigned_coordinator_id = ? OR assigned_manager_id = ?)", *q.AssignedTo, *q.AssignedTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Case
	if q.Limit > 0 {
		tx = tx.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Gorm) SaveCase(ctx context.Context, c *models.Case) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Case{}).Where("id = ?", c.ID).Updates(map[string]any{
			"visa_type":               c.VisaType,
			"status":                  c.Status,
			"priority":                c.Priority,
			"application_details":     c.ApplicationDetails,
			"intake_form":             c.IntakeForm,
			"assigned_coordinator_id": c.AssignedCoordinatorID,
			"assigned_manager_id":     c.AssignedManagerID,
			"deadline_submission":     c.Deadlines.Submission,
			"deadline_review":         c.Deadlines.Review,
			"deadline_approval":       c.Deadlines.Approval,
			"updated_at":              c.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("case")
		}
		return appendChildren(tx, c)
	})
}

// appendChildren inserts timeline entries and notes; rows already present are skipped.
func appendChildren(tx *gorm.DB, c *models.Case) error {
	if len(c.Timeline) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c.Timeline).Error; err != nil {
			return err
		}
	}
	if len(c.Notes) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c.Notes).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Gorm) DeleteCase(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Document{}, &models.Note{}, &models.TimelineEntry{}, &models.DocumentRequest{}} {
			if err := tx.Where("case_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Case{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("case")
		}
		return nil
	})
}

func (s *Gorm) CountCases(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Case{}).Count(&n).Error
	return n, err
}

func (s *Gorm) CountByStatus(ctx context.Context, scope access.Filter) (map[models.CaseStatus]int64, error) {
	var rows []struct {
		Status models.CaseStatus
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Case{}).Scopes(ScopeCases(scope)).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.CaseStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func (s *Gorm) OpenCasesByCoordinator(ctx context.Context, statuses []models.CaseStatus) (map[uuid.UUID]int64, error) {
	var rows []struct {
		AssignedCoordinatorID uuid.UUID
		N                     int64
	}
	err := s.db.WithContext(ctx).Model(&models.Case{}).
		Select("assigned_coordinator_id, COUNT(*) AS n").
		Where("assigned_coordinator_id IS NOT NULL AND status IN ?", statuses).
		Group("assigned_coordinator_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.AssignedCoordinatorID] = r.N
	}
	return out, nil
}

/* ============================== Documents =============================== */

func (s *Gorm) ListDocuments(ctx context.Context, caseID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

func (s *Gorm) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "document")
	}
	return &d, nil
}

func (s *Gorm) ReplaceDocument(ctx context.Context, doc *models.Document) ([]models.Document, error) {
	var removed []models.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize replacements per case.
		var cs models.Case
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&cs, "id = ?", doc.CaseID).Error; err != nil {
			return notFound(err, "case")
		}
		if err := tx.Where("case_id = ? AND document_type = ?", doc.CaseID, doc.DocumentType).
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) > 0 {
			if err := tx.Delete(&removed).Error; err != nil {
				return err
			}
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

/* ========================== Document requests =========================== */

func (s *Gorm) CreateRequest(ctx context.Context, r *models.DocumentRequest) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *Gorm) ListRequests(ctx context.Context, caseID uuid.UUID) ([]models.DocumentRequest, error) {
	var out []models.DocumentRequest
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Gorm) FulfillRequests(ctx context.Context, caseID uuid.UUID, docType models.DocumentType, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.DocumentRequest{}).
		Where("case_id = ? AND document_type = ? AND fulfilled_at IS NULL", caseID, docType).
		Update("fulfilled_at", at)
	return res.RowsAffected, res.Error
}

/* ================================ Users ================================= */

func (s *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("Email already registered")
	}
	return err
}

func (s *Gorm) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Gorm) UsersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	out := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *Gorm) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	tx := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		tx = tx.Where("role = ?", f.Role)
	}
	if f.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var users []models.User
	err := tx.Order("name ASC").Find(&users).Error
	return users, err
}

func (s *Gorm) SaveUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *Gorm) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (s *Gorm) CountUsersByRole(ctx context.Context) (map[models.Role]int64, error) {
	var rows []struct {
		Role models.Role
		N    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS n").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.Role]int64, len(rows))
	for _, r := range rows {
		out[r.Role] = r.N
	}
	return out, nil
}

func (s *Gorm) CountActiveUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

/* ============================= Automation =============================== */

func (s *Gorm) ActiveRules(ctx context.Context, triggerType string) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	err := s.db.WithContext(ctx).
		Where("trigger_type = ? AND is_active = ?", triggerType, true).
		Order("created_at ASC").Find(&rules).Error
	return rules, err
}
