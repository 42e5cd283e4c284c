// Package workflow holds the case lifecycle rules: construction, the required
// document checklist, status changes with their timeline, and per-role edits.
// Everything here is pure; persistence happens in the caller.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// gated statuses can only be entered with every required document present.
var gated = map[models.CaseStatus]bool{
	models.CaseSubmitted:   true,
	models.CaseUnderReview: true,
	models.CaseProcessing:  true,
	models.CaseApproved:    true,
	models.CaseCompleted:   true,
}

// RequiresDocuments reports whether entering s is subject to the checklist.
func RequiresDocuments(s models.CaseStatus) bool { return gated[s] }

// MissingRequiredTypes lists required types absent from docs, in checklist order.
func MissingRequiredTypes(docs []models.Document) []models.DocumentType {
	present := make(map[models.DocumentType]bool, len(docs))
	for _, d := range docs {
		present[d.DocumentType] = true
	}
	var missing []models.DocumentType
	for _, t := range models.RequiredDocumentTypes {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// NewCaseInput is what a case starts from.
type NewCaseInput struct {
	ClientID           uuid.UUID
	VisaType           models.VisaType
	Priority           models.Priority
	ApplicationDetails models.ApplicationDetails
	IntakeForm         models.IntakeForm
}

// NewCase builds a draft case. seq is the number of cases that already exist.
func NewCase(in NewCaseInput, seq int64, now time.Time) models.Case {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	return models.Case{
		ID:                 uuid.New(),
		CaseNumber:         CaseNumber(seq, now),
		ClientID:           in.ClientID,
		VisaType:           in.VisaType,
		Status:             models.CaseDraft,
		Priority:           in.Priority,
		ApplicationDetails: datatypes.NewJSONType(in.ApplicationDetails),
		IntakeForm:         datatypes.NewJSONType(in.IntakeForm),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CaseNumber renders CASE-<unix millis>-<seq+1, zero padded to 4>.
func CaseNumber(seq int64, now time.Time) string {
	return fmt.Sprintf("CASE-%d-%04d", now.UnixMilli(), seq+1)
}

// DefaultIntake is used when a client opens a case without filling the form.
func DefaultIntake(client *models.User) models.IntakeForm {
	return models.IntakeForm{
		GeneralInformation: models.GeneralInformation{
			FullLegalName:        client.Name,
			Email:                client.Email,
			PhoneMobile:          client.Phone,
			CitizenshipCountries: []string{},
		},
		Consultation:   models.Consultation{Purposes: []string{}},
		Acknowledgment: models.Acknowledgment{Agreed: false},
	}
}

// ChangeStatus moves c to status and appends one timeline entry. It returns
// false and leaves c untouched when the status is unchanged.
func ChangeStatus(c *models.Case, status models.CaseStatus, actor uuid.UUID, now time.Time) bool {
	if c.Status == status {
		return false
	}
	c.Status = status
	c.UpdatedAt = now
	AppendTimeline(c, status, actor, fmt.Sprintf("Status changed to %s", status), now)
	return true
}

// AppendTimeline records an audit entry at the current status.
func AppendTimeline(c *models.Case, status models.CaseStatus, actor uuid.UUID, note string, now time.Time) models.TimelineEntry {
	e := models.TimelineEntry{
		ID:        uuid.New(),
		CaseID:    c.ID,
		Status:    status,
		UpdatedBy: actor,
		Note:      note,
		Timestamp: now,
	}
	c.Timeline = append(c.Timeline, e)
	return e
}

// AppendNote adds a trimmed note. Empty content is rejected.
func AppendNote(c *models.Case, content string, author uuid.UUID, now time.Time) (models.Note, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Note{}, false
	}
	n := models.Note{
		ID:        uuid.New(),
		CaseID:    c.ID,
		Content:   content,
		CreatedBy: author,
		CreatedAt: now,
	}
	c.Notes = append(c.Notes, n)
	return n, true
}
