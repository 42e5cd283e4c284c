package cases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/internal/automation"
	"github.com/aldoetobex/glojourn-backend/internal/metrics"
	"github.com/aldoetobex/glojourn-backend/internal/storage"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/internal/workflow"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// createAttempts bounds retries when two creates race for the same case number.
const createAttempts = 3

// Service owns case reads and mutations on behalf of a principal.
type Service struct {
	store   store.Store
	access  *access.Evaluator
	files   storage.Store
	trigger automation.Trigger
	now     func() time.Time
}

func NewService(st store.Store, ev *access.Evaluator, files storage.Store, trigger automation.Trigger) *Service {
	return &Service{store: st, access: ev, files: files, trigger: trigger, now: time.Now}
}

// CreateInput opens a case. ClientID is only honoured for admins.
type CreateInput struct {
	ClientID           *uuid.UUID
	VisaType           models.VisaType
	Priority           models.Priority
	ApplicationDetails *models.ApplicationDetails
	IntakeForm         *models.IntakeForm
}

func (s *Service) Create(ctx context.Context, p models.Principal, in CreateInput) (*models.Case, error) {
	if !in.VisaType.Valid() {
		return nil, apperr.Validation("Invalid visa type")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, apperr.Validation("Invalid priority")
	}

	clientID, err := s.resolveClient(p, in.ClientID)
	if err != nil {
		return nil, err
	}
	client, err := s.store.GetUser(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Role != models.RoleClient {
		return nil, apperr.Validation("Cases can only be opened for clients")
	}

	existing, err := s.store.CaseByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("Client already has a case")
	}

	ci := workflow.NewCaseInput{
		ClientID: clientID,
		VisaType: in.VisaType,
		Priority: in.Priority,
	}
	if in.ApplicationDetails != nil {
		ci.ApplicationDetails = *in.ApplicationDetails
	}
	if in.IntakeForm != nil {
		ci.IntakeForm = *in.IntakeForm
	} else {
		ci.IntakeForm = workflow.DefaultIntake(client)
	}

	var c models.Case
	for attempt := 0; ; attempt++ {
		seq, err := s.store.CountCases(ctx)
		if err != nil {
			return nil, err
		}
		c = workflow.NewCase(ci, seq+int64(attempt), s.now())
		err = s.store.CreateCase(ctx, &c)
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt+1 >= createAttempts {
			return nil, err
		}
	}

	slog.Info("case created", "case_id", c.ID, "case_number", c.CaseNumber, "user_id", p.ID)
	metrics.CaseCreated(string(c.VisaType))
	automation.Fire(ctx, s.trigger, automation.EventCaseCreated, &c, automation.EventContext{ActorID: p.ID})
	return &c, nil
}

func (s *Service) resolveClient(p models.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	switch p.Role {
	case models.RoleClient:
		return p.ID, nil
	case models.RoleAdmin:
		if requested == nil {
			return uuid.Nil, apperr.Validation("clientId is required")
		}
		return *requested, nil
	}
	return uuid.Nil, apperr.Forbidden("Only clients or admins can create cases")
}

// Get returns a case with its documents, notes and timeline.
func (s *Service) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccess(p, c) {
		return nil, apperr.Forbidden("You do not have access to this case")
	}
	return c, nil
}

// ListInput holds the optional listing filters.
type ListInput struct {
	Status       *models.CaseStatus
	Priority     *models.Priority
	AssignedToMe bool
	Page         int
	Limit        int
}

func (s *Service) List(ctx context.Context, p models.Principal, in ListInput) ([]models.Case, int64, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, 0, apperr.Validation("Invalid status")
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, 0, apperr.Validation("Invalid priority")
	}
	q := store.CaseQuery{
		Scope:    s.access.Scope(p),
		Status:   in.Status,
		Priority: in.Priority,
		Page:     in.Page,
		Limit:    in.Limit,
	}
	if in.AssignedToMe && p.Role.IsStaff() {
		id := p.ID
		q.AssignedTo = &id
	}
	return s.store.ListCases(ctx, q)
}

// Mine returns the caller's own case, or nil when they have none.
func (s *Service) Mine(ctx context.Context, p models.Principal) (*models.Case, error) {
	if p.Role != models.RoleClient {
		return nil, apperr.Forbidden("Only clients have their own case")
	}
	c, err := s.store.CaseByClient(ctx, p.ID)
	if err != nil || c == nil {
		return nil, err
	}
	return s.store.GetCase(ctx, c.ID)
}

// Update applies edit and persists the result. A status change fires the
// status_change automation once the save succeeded.
func (s *Service) Update(ctx context.Context, p models.Principal, id uuid.UUID, edit workflow.Edit) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccess(p, c) {
		return nil, apperr.Forbidden("You do not have access to this case")
	}
	if se, ok := edit.(*workflow.StaffCaseEdit); ok && p.Role.IsStaff() {
		if err := s.checkAssignees(ctx, se); err != nil {
			return nil, err
		}
	}

	docs, err := s.store.ListDocuments(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out, err := workflow.Apply(c, p, edit, docs, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCase(ctx, &out.Case); err != nil {
		return nil, err
	}

	if out.StatusChanged {
		slog.Info("case status changed",
			"case_id", out.Case.ID, "from", out.From, "to", out.Case.Status, "user_id", p.ID)
		metrics.StatusChanged(string(out.From), string(out.Case.Status))
		automation.Fire(ctx, s.trigger, automation.EventStatusChange, &out.Case, automation.EventContext{
			OldStatus: out.From,
			NewStatus: out.Case.Status,
			ActorID:   p.ID,
		})
	}
	return &out.Case, nil
}

// checkAssignees rejects assignment targets that do not hold the matching role.
func (s *Service) checkAssignees(ctx context.Context, e *workflow.StaffCaseEdit) error {
	check := func(r *workflow.Reassignment, want models.Role) error {
		if r == nil || r.UserID == nil {
			return nil
		}
		u, err := s.store.GetUser(ctx, *r.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validation("Assigned " + string(want) + " does not exist")
			}
			return err
		}
		if u.Role != want {
			return apperr.Validation("Assigned user is not a " + string(want))
		}
		return nil
	}
	if err := check(e.AssignedCoordinator, models.RoleCoordinator); err != nil {
		return err
	}
	return check(e.AssignedManager, models.RoleManager)
}

// Delete removes a case and its children. Stored files are removed best-effort.
func (s *Service) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	if p.Role != models.RoleAdmin {
		return apperr.Forbidden("Only admins can delete cases")
	}
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCase(ctx, id); err != nil {
		return err
	}

	ids := make([]string, 0, len(c.Documents))
	for _, d := range c.Documents {
		if d.StorageID != "" {
			ids = append(ids, d.StorageID)
		}
	}
	if err := storage.DeleteAll(ctx, s.files, ids); err != nil {
		slog.Warn("case files not fully removed", "case_id", id, "error", err)
	}
	slog.Info("case deleted", "case_id", id, "user_id", p.ID)
	return nil
}

// AddNote appends a note by the caller.
func (s *Service) AddNote(ctx context.Context, p models.Principal, id uuid.UUID, content string) (*models.Note, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	n, ok := workflow.AppendNote(c, content, p.ID, s.now())
	if !ok {
		return nil, apperr.Validation("Note content is required")
	}
	if err := s.store.SaveCase(ctx, c); err != nil {
		return nil, err
	}
	return &n, nil
}

// People resolves the client and assignees of the given cases in one lookup.
func (s *Service) People(ctx context.Context, list []models.Case) (map[uuid.UUID]*models.User, error) {
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(list)*3)
	add := func(id *uuid.UUID) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	for i := range list {
		add(&list[i].ClientID)
		add(list[i].AssignedCoordinatorID)
		add(list[i].AssignedManagerID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*models.User{}, nil
	}
	return s.store.UsersByID(ctx, ids)
}
