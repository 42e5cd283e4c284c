package workflow

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// Edit is a case update command. Only ClientCaseEdit and StaffCaseEdit
// implement it.
type Edit interface {
	base() *ClientCaseEdit
}

// ClientCaseEdit holds the fields a client may touch. Nil means leave as is.
type ClientCaseEdit struct {
	VisaType           *models.VisaType
	ApplicationDetails *models.ApplicationDetails
	IntakeForm         *models.IntakeForm
	Priority           *models.Priority
	Status             *models.CaseStatus
}

func (e *ClientCaseEdit) base() *ClientCaseEdit { return e }

// Reassignment sets an assignee. A nil UserID clears it.
type Reassignment struct {
	UserID *uuid.UUID
}

// StaffCaseEdit adds assignment and deadline fields on top of the client ones.
type StaffCaseEdit struct {
	ClientCaseEdit
	AssignedCoordinator *Reassignment
	AssignedManager     *Reassignment
	Deadlines           *models.Deadlines
}

func (e *StaffCaseEdit) base() *ClientCaseEdit { return &e.ClientCaseEdit }

func (e *ClientCaseEdit) touchesFields() bool {
	return e.VisaType != nil || e.ApplicationDetails != nil || e.IntakeForm != nil || e.Priority != nil
}

// Outcome is the provisional result of an edit, not yet persisted.
type Outcome struct {
	Case          models.Case
	StatusChanged bool
	From          models.CaseStatus
	Timeline      []models.TimelineEntry
}

// Apply validates edit against the actor and the current documents and
// returns the updated case. c is not modified; on error nothing applies.
func Apply(c *models.Case, actor models.Principal, edit Edit, docs []models.Document, now time.Time) (Outcome, error) {
	b := edit.base()
	if err := validateEnums(b); err != nil {
		return Outcome{}, err
	}

	staffEdit, isStaffEdit := edit.(*StaffCaseEdit)
	if isStaffEdit && !actor.Role.IsStaff() {
		return Outcome{}, apperr.Forbidden("Only staff can change assignments")
	}
	if !actor.Role.IsStaff() {
		if err := checkClientEdit(c, b); err != nil {
			return Outcome{}, err
		}
	}

	out := cloneCase(c)
	if b.VisaType != nil {
		out.VisaType = *b.VisaType
	}
	if b.ApplicationDetails != nil {
		out.ApplicationDetails = datatypes.NewJSONType(*b.ApplicationDetails)
	}
	if b.IntakeForm != nil {
		out.IntakeForm = datatypes.NewJSONType(*b.IntakeForm)
	}
	if b.Priority != nil {
		out.Priority = *b.Priority
	}
	if isStaffEdit {
		if r := staffEdit.AssignedCoordinator; r != nil {
			out.AssignedCoordinatorID = cloneID(r.UserID)
		}
		if r := staffEdit.AssignedManager; r != nil {
			out.AssignedManagerID = cloneID(r.UserID)
		}
		if staffEdit.Deadlines != nil {
			out.Deadlines = *staffEdit.Deadlines
		}
	}

	if b.Status != nil && RequiresDocuments(*b.Status) {
		if missing := MissingRequiredTypes(docs); len(missing) > 0 {
			return Outcome{}, apperr.MissingDocuments(missing)
		}
	}

	res := Outcome{From: c.Status}
	before := len(out.Timeline)
	if b.Status != nil {
		res.StatusChanged = ChangeStatus(&out, *b.Status, actor.ID, now)
	}
	out.UpdatedAt = now
	res.Timeline = append([]models.TimelineEntry(nil), out.Timeline[before:]...)
	res.Case = out
	return res, nil
}

func validateEnums(b *ClientCaseEdit) error {
	if b.VisaType != nil && !b.VisaType.Valid() {
		return apperr.Validation("Invalid visa type")
	}
	if b.Priority != nil && !b.Priority.Valid() {
		return apperr.Validation("Invalid priority")
	}
	if b.Status != nil && !b.Status.Valid() {
		return apperr.Validation("Invalid status")
	}
	return nil
}

// checkClientEdit enforces: status only to submitted, never backward, and
// field edits only while the case is a draft.
func checkClientEdit(c *models.Case, b *ClientCaseEdit) error {
	if b.Status != nil {
		if *b.Status != models.CaseSubmitted {
			return apperr.Forbidden("Only staff can change the application status further.")
		}
		if c.Status != models.CaseDraft && c.Status != models.CaseSubmitted {
			return apperr.Forbidden("Only staff can change the application status further.")
		}
	}
	if b.touchesFields() && c.Status != models.CaseDraft {
		return apperr.Forbidden("Case details can only be edited while in draft")
	}
	return nil
}

func cloneCase(c *models.Case) models.Case {
	out := *c
	out.AssignedCoordinatorID = cloneID(c.AssignedCoordinatorID)
	out.AssignedManagerID = cloneID(c.AssignedManagerID)
	out.Documents = append([]models.Document(nil), c.Documents...)
	out.Notes = append([]models.Note(nil), c.Notes...)
	out.Timeline = append([]models.TimelineEntry(nil), c.Timeline...)
	return out
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
