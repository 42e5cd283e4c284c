package cases

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/internal/workflow"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
	"github.com/aldoetobex/glojourn-backend/pkg/sanitize"
	"github.com/aldoetobex/glojourn-backend/pkg/utils"
	"github.com/aldoetobex/glojourn-backend/pkg/validation"
)

// ===== DTOs =====

type CreateCaseRequest struct {
	ClientID           *uuid.UUID                 `json:"client_id" swaggertype:"string"`
	VisaType           models.VisaType            `json:"visa_type" validate:"required,visatype"`
	Priority           models.Priority            `json:"priority" validate:"omitempty,priority"`
	ApplicationDetails *models.ApplicationDetails `json:"application_details"`
	IntakeForm         *models.IntakeForm         `json:"intake_form"`
}

// NullableUUID tells an absent key apart from an explicit null.
type NullableUUID struct {
	Set bool
	ID  *uuid.UUID
}

func (n *NullableUUID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	n.ID = &id
	return nil
}

func (n NullableUUID) reassignment() *workflow.Reassignment {
	if !n.Set {
		return nil
	}
	return &workflow.Reassignment{UserID: n.ID}
}

type UpdateCaseRequest struct {
	VisaType              *models.VisaType           `json:"visa_type" validate:"omitempty,visatype"`
	Priority              *models.Priority           `json:"priority" validate:"omitempty,priority"`
	Status                *models.CaseStatus         `json:"status" validate:"omitempty,casestatus"`
	ApplicationDetails    *models.ApplicationDetails `json:"application_details"`
	IntakeForm            *models.IntakeForm         `json:"intake_form"`
	AssignedCoordinatorID NullableUUID               `json:"assigned_coordinator_id" swaggertype:"string"`
	AssignedManagerID     NullableUUID               `json:"assigned_manager_id" swaggertype:"string"`
	Deadlines             *models.Deadlines          `json:"deadlines"`
}

func (r *UpdateCaseRequest) hasStaffFields() bool {
	return r.AssignedCoordinatorID.Set || r.AssignedManagerID.Set || r.Deadlines != nil
}

// edit turns the request into the command the caller's role allows. A client
// sending staff fields gets a staff edit so the workflow can refuse it.
func (r *UpdateCaseRequest) edit(p models.Principal) workflow.Edit {
	base := workflow.ClientCaseEdit{
		VisaType:           r.VisaType,
		ApplicationDetails: r.ApplicationDetails,
		IntakeForm:         r.IntakeForm,
		Priority:           r.Priority,
		Status:             r.Status,
	}
	if !p.Role.IsStaff() && !r.hasStaffFields() {
		return &base
	}
	return &workflow.StaffCaseEdit{
		ClientCaseEdit:      base,
		AssignedCoordinator: r.AssignedCoordinatorID.reassignment(),
		AssignedManager:     r.AssignedManagerID.reassignment(),
		Deadlines:           r.Deadlines,
	}
}

type AddNoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// CaseResponse is a full case with the people involved resolved.
type CaseResponse struct {
	models.Case
	Client              *models.UserSummary   `json:"client"`
	AssignedCoordinator *models.UserSummary   `json:"assigned_coordinator"`
	AssignedManager     *models.UserSummary   `json:"assigned_manager"`
	MissingDocuments    []models.DocumentType `json:"missing_documents"`
}

type CaseListItem struct {
	ID                  uuid.UUID           `json:"id"`
	CaseNumber          string              `json:"case_number"`
	VisaType            models.VisaType     `json:"visa_type"`
	Status              models.CaseStatus   `json:"status"`
	Priority            models.Priority     `json:"priority"`
	Client              *models.UserSummary `json:"client"`
	AssignedCoordinator *models.UserSummary `json:"assigned_coordinator"`
	AssignedManager     *models.UserSummary `json:"assigned_manager"`
	Preview             string              `json:"preview"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type PageCases struct {
	models.Pagination
	Items []CaseListItem `json:"items"`
}

// MyCaseResponse wraps the client's case, which may be null.
type MyCaseResponse struct {
	Case *CaseResponse `json:"case"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func lookup(people map[uuid.UUID]*models.User, id *uuid.UUID) *models.UserSummary {
	if id == nil {
		return nil
	}
	return people[*id].Summary()
}

func (h *Handler) render(c *fiber.Ctx, cs *models.Case) (*CaseResponse, error) {
	people, err := h.svc.People(c.UserContext(), []models.Case{*cs})
	if err != nil {
		return nil, err
	}
	// Normalize: never send null collections
	if cs.Documents == nil {
		cs.Documents = []models.Document{}
	}
	if cs.Notes == nil {
		cs.Notes = []models.Note{}
	}
	if cs.Timeline == nil {
		cs.Timeline = []models.TimelineEntry{}
	}
	missing := workflow.MissingRequiredTypes(cs.Documents)
	if missing == nil {
		missing = []models.DocumentType{}
	}
	return &CaseResponse{
		Case:                *cs,
		Client:              lookup(people, &cs.ClientID),
		AssignedCoordinator: lookup(people, cs.AssignedCoordinatorID),
		AssignedManager:     lookup(people, cs.AssignedManagerID),
		MissingDocuments:    missing,
	}, nil
}

// Create Case godoc
// @Summary      Create case
// @Description  Client opens their case; admins may open one for a given client
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateCaseRequest  true  "Case payload"
// @Success      201  {object}  CaseResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}

	cs, err := h.svc.Create(c.UserContext(), auth.MustPrincipal(c), CreateInput{
		ClientID:           in.ClientID,
		VisaType:           in.VisaType,
		Priority:           in.Priority,
		ApplicationDetails: in.ApplicationDetails,
		IntakeForm:         in.IntakeForm,
	})
	if err != nil {
		return err
	}
	out, err := h.render(c, cs)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List Cases godoc
// @Summary      List cases
// @Description  Cases visible to the caller, newest first
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        page        query int    false "page"
// @Param        limit       query int    false "limit (max 100)"
// @Param        status      query string false "status"
// @Param        priority    query string false "priority"
// @Param        assignedTo  query string false "me"
// @Success      200  {object}  PageCases
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, limit := utils.ParsePage(c)
	in := ListInput{Page: page, Limit: limit, AssignedToMe: c.Query("assignedTo") == "me"}
	if s := c.Query("status"); s != "" {
		st := models.CaseStatus(s)
		in.Status = &st
	}
	if s := c.Query("priority"); s != "" {
		pr := models.Priority(s)
		in.Priority = &pr
	}

	list, total, err := h.svc.List(c.UserContext(), auth.MustPrincipal(c), in)
	if err != nil {
		return err
	}
	people, err := h.svc.People(c.UserContext(), list)
	if err != nil {
		return err
	}

	items := make([]CaseListItem, 0, len(list))
	for i := range list {
		cs := &list[i]
		items = append(items, CaseListItem{
			ID:                  cs.ID,
			CaseNumber:          cs.CaseNumber,
			VisaType:            cs.VisaType,
			Status:              cs.Status,
			Priority:            cs.Priority,
			Client:              lookup(people, &cs.ClientID),
			AssignedCoordinator: lookup(people, cs.AssignedCoordinatorID),
			AssignedManager:     lookup(people, cs.AssignedManagerID),
			Preview:             sanitize.Summary(sanitize.RedactPII(cs.ApplicationDetails.Data().PurposeOfVisit), 140),
			CreatedAt:           cs.CreatedAt,
			UpdatedAt:           cs.UpdatedAt,
		})
	}

	return c.JSON(PageCases{
		Pagination: models.Pagination{Page: page, Limit: limit, Total: total, Pages: utils.Pages(total, limit)},
		Items:      items,
	})
}

// My Case godoc
// @Summary      My case
// @Description  The authenticated client's case, or null
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  MyCaseResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases/mine [get]
func (h *Handler) Mine(c *fiber.Ctx) error {
	cs, err := h.svc.Mine(c.UserContext(), auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	if cs == nil {
		return c.JSON(MyCaseResponse{})
	}
	out, err := h.render(c, cs)
	if err != nil {
		return err
	}
	return c.JSON(MyCaseResponse{Case: out})
}

// Get Case godoc
// @Summary      Get case detail
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Case ID"
// @Success      200  {object}  CaseResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	cs, err := h.svc.Get(c.UserContext(), auth.MustPrincipal(c), id)
	if err != nil {
		return err
	}
	out, err := h.render(c, cs)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update Case godoc
// @Summary      Update case
// @Description  Clients edit drafts and submit; staff change status, assignees and deadlines
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "Case ID"
// @Param        payload  body  UpdateCaseRequest  true  "Fields to change"
// @Success      200  {object}  CaseResponse
// @Failure      400  {object}  models.ErrorResponse  "validation or missing documents"
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}

	p := auth.MustPrincipal(c)
	cs, err := h.svc.Update(c.UserContext(), p, id, in.edit(p))
	if err != nil {
		return err
	}
	out, err := h.render(c, cs)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete Case godoc
// @Summary      Delete case
// @Tags         cases
// @Security     BearerAuth
// @Param        id   path  string  true  "Case ID"
// @Success      204
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), auth.MustPrincipal(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Add Note godoc
// @Summary      Add note
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Case ID"
// @Param        payload  body  AddNoteRequest  true  "Note"
// @Success      201  {object}  models.Note
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/notes [post]
func (h *Handler) AddNote(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var in AddNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}
	n, err := h.svc.AddNote(c.UserContext(), auth.MustPrincipal(c), id, in.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}
