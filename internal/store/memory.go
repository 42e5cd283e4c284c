package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// Memory is an in-process Store. Values are copied in and out so callers
// never share state with it.
type Memory struct {
	mu       sync.Mutex
	cases    map[uuid.UUID]models.Case
	docs     map[uuid.UUID]models.Document
	requests map[uuid.UUID]models.DocumentRequest
	users    map[uuid.UUID]models.User
	rules    []models.AutomationRule
}

func NewMemory() *Memory {
	return &Memory{
		cases:    map[uuid.UUID]models.Case{},
		docs:     map[uuid.UUID]models.Document{},
		requests: map[uuid.UUID]models.DocumentRequest{},
		users:    map[uuid.UUID]models.User{},
	}
}

var _ Store = (*Memory)(nil)

// AddRule seeds an automation rule.
func (m *Memory) AddRule(r models.AutomationRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.rules = append(m.rules, r)
}

/* ================================ Cases ================================= */

func (m *Memory) CreateCase(_ context.Context, c *models.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for _, existing := range m.cases {
		if existing.CaseNumber == c.CaseNumber {
			return apperr.Conflict("case number already used")
		}
	}
	stored := *c
	stored.Documents = nil
	stored.Notes = append([]models.Note(nil), c.Notes...)
	stored.Timeline = append([]models.TimelineEntry(nil), c.Timeline...)
	m.cases[c.ID] = stored
	return nil
}

func (m *Memory) GetCase(_ context.Context, id uuid.UUID) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, apperr.NotFound("case")
	}
	out := m.loadLocked(c)
	return &out, nil
}

func (m *Memory) loadLocked(c models.Case) models.Case {
	c.Notes = append([]models.Note(nil), c.Notes...)
	c.Timeline = append([]models.TimelineEntry(nil), c.Timeline...)
	c.Documents = m.docsLocked(c.ID)
	return c
}

func (m *Memory) docsLocked(caseID uuid.UUID) []models.Document {
	var out []models.Document
	for _, d := range m.docs {
		if d.CaseID == caseID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Memory) CaseByClient(_ context.Context, clientID uuid.UUID) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cases {
		if c.ClientID == clientID {
			out := m.loadLocked(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListCases(_ context.Context, q CaseQuery) ([]models.Case, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []models.Case
	for _, c := range m.cases {
		if !q.Scope.Matches(&c) {
			continue
		}
		if q.Status != nil && c.Status != *q.Status {
			continue
		}
		if q.Priority != nil && c.Priority != *q.Priority {
			continue
		}
		if q.AssignedTo != nil && !assignedTo(&c, *q.AssignedTo) {
			continue
		}
		hits = append(hits, c)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })

	total := int64(len(hits))
	if q.Limit > 0 {
		start := (q.Page - 1) * q.Limit
		if start < 0 {
			start = 0
		}
		if start > len(hits) {
			start = len(hits)
		}
		end := start + q.Limit
		if end > len(hits) {
			end = len(hits)
		}
		hits = hits[start:end]
	}
	out := make([]models.Case, len(hits))
	for i, c := range hits {
		c.Notes, c.Timeline, c.Documents = nil, nil, nil
		out[i] = c
	}
	return out, total, nil
}

func assignedTo(c *models.Case, id uuid.UUID) bool {
	return (c.AssignedCoordinatorID != nil && *c.AssignedCoordinatorID == id) ||
		(c.AssignedManagerID != nil && *c.AssignedManagerID == id)
}

func (m *Memory) SaveCase(_ context.Context, c *models.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.cases[c.ID]
	if !ok {
		return apperr.NotFound("case")
	}
	next := *c
	next.CaseNumber = cur.CaseNumber
	next.CreatedAt = cur.CreatedAt
	next.Documents = nil
	next.Timeline = appendNew(cur.Timeline, c.Timeline, func(e models.TimelineEntry) uuid.UUID { return e.ID })
	next.Notes = appendNew(cur.Notes, c.Notes, func(n models.Note) uuid.UUID { return n.ID })
	m.cases[c.ID] = next
	return nil
}

// appendNew keeps have as stored and adds entries from want whose ids are unseen.
func appendNew[T any](have, want []T, id func(T) uuid.UUID) []T {
	seen := make(map[uuid.UUID]bool, len(have))
	out := append([]T(nil), have...)
	for _, h := range have {
		seen[id(h)] = true
	}
	for _, w := range want {
		if !seen[id(w)] {
			out = append(out, w)
			seen[id(w)] = true
		}
	}
	return out
}

func (m *Memory) DeleteCase(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[id]; !ok {
		return apperr.NotFound("case")
	}
	delete(m.cases, id)
	for k, d := range m.docs {
		if d.CaseID == id {
			delete(m.docs, k)
		}
	}
	for k, r := range m.requests {
		if r.CaseID == id {
			delete(m.requests, k)
		}
	}
	return nil
}

func (m *Memory) CountCases(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.cases)), nil
}

func (m *Memory) CountByStatus(_ context.Context, scope access.Filter) (map[models.CaseStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.CaseStatus]int64{}
	for _, c := range m.cases {
		if scope.Matches(&c) {
			out[c.Status]++
		}
	}
	return out, nil
}

func (m *Memory) OpenCasesByCoordinator(_ context.Context, statuses []models.CaseStatus) (map[uuid.UUID]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[models.CaseStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	out := map[uuid.UUID]int64{}
	for _, c := range m.cases {
		if c.AssignedCoordinatorID != nil && want[c.Status] {
			out[*c.AssignedCoordinatorID]++
		}
	}
	return out, nil
}

/* ============================== Documents =============================== */

func (m *Memory) ListDocuments(_ context.Context, caseID uuid.UUID) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docsLocked(caseID), nil
}

func (m *Memory) GetDocument(_ context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, apperr.NotFound("document")
	}
	return &d, nil
}

func (m *Memory) ReplaceDocument(_ context.Context, doc *models.Document) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[doc.CaseID]; !ok {
		return nil, apperr.NotFound("case")
	}
	var removed []models.Document
	for k, d := range m.docs {
		if d.CaseID == doc.CaseID && d.DocumentType == doc.DocumentType {
			removed = append(removed, d)
			delete(m.docs, k)
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	m.docs[doc.ID] = *doc
	return removed, nil
}

/* ========================== Document requests =========================== */

func (m *Memory) CreateRequest(_ context.Context, r *models.DocumentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.requests[r.ID] = *r
	return nil
}

func (m *Memory) ListRequests(_ context.Context, caseID uuid.UUID) ([]models.DocumentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DocumentRequest
	for _, r := range m.requests {
		if r.CaseID == caseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) FulfillRequests(_ context.Context, caseID uuid.UUID, docType models.DocumentType, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.requests {
		if r.CaseID == caseID && r.DocumentType == docType && r.FulfilledAt == nil {
			t := at
			r.FulfilledAt = &t
			m.requests[k] = r
			n++
		}
	}
	return n, nil
}

/* ================================ Users ================================= */

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("Email already registered")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.TrimSpace(email)
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *Memory) UsersByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (m *Memory) ListUsers(_ context.Context, f UserFilter) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFound("user")
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CountUsersByRole(context.Context) (map[models.Role]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.Role]int64{}
	for _, u := range m.users {
		out[u.Role]++
	}
	return out, nil
}

func (m *Memory) CountActiveUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

/* ============================= Automation =============================== */

func (m *Memory) ActiveRules(_ context.Context, triggerType string) ([]models.AutomationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AutomationRule
	for _, r := range m.rules {
		if r.TriggerType == triggerType && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}
