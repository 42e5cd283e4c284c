package assignments

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
	"github.com/aldoetobex/glojourn-backend/pkg/validation"
)

type AssignManagerRequest struct {
	CaseID    uuid.UUID  `json:"case_id" validate:"required" swaggertype:"string"`
	ManagerID *uuid.UUID `json:"manager_id" swaggertype:"string"` // null clears
}

type AssignManagerResponse struct {
	ID                    uuid.UUID         `json:"id"`
	CaseNumber            string            `json:"case_number"`
	Status                models.CaseStatus `json:"status"`
	AssignedCoordinatorID *uuid.UUID        `json:"assigned_coordinator_id"`
	AssignedManagerID     *uuid.UUID        `json:"assigned_manager_id"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, *users[i].Summary())
	}
	return out
}

// @Summary      Assign manager
// @Description  Set or clear the manager on a case
// @Tags         assignments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  AssignManagerRequest  true  "Assignment"
// @Success      200  {object}  AssignManagerResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse  "case or manager"
// @Router       /assignments [post]
func (h *Handler) AssignManager(c *fiber.Ctx) error {
	var in AssignManagerRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}
	cs, err := h.svc.AssignManager(c.UserContext(), auth.MustPrincipal(c), in.CaseID, in.ManagerID)
	if err != nil {
		return err
	}
	return c.JSON(AssignManagerResponse{
		ID:                    cs.ID,
		CaseNumber:            cs.CaseNumber,
		Status:                cs.Status,
		AssignedCoordinatorID: cs.AssignedCoordinatorID,
		AssignedManagerID:     cs.AssignedManagerID,
	})
}

// @Summary      Available coordinators
// @Tags         assignments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   models.UserSummary
// @Failure      403  {object}  models.ErrorResponse
// @Router       /assignments/coordinators [get]
func (h *Handler) Coordinators(c *fiber.Ctx) error {
	users, err := h.svc.Coordinators(c.UserContext(), auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(summaries(users))
}

// @Summary      Available managers
// @Tags         assignments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   models.UserSummary
// @Failure      403  {object}  models.ErrorResponse
// @Router       /assignments/managers [get]
func (h *Handler) Managers(c *fiber.Ctx) error {
	users, err := h.svc.Managers(c.UserContext(), auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(summaries(users))
}

// @Summary      Coordinator workload
// @Description  Open cases per active coordinator
// @Tags         assignments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Load
// @Failure      403  {object}  models.ErrorResponse
// @Router       /assignments/workload [get]
func (h *Handler) Workload(c *fiber.Ctx) error {
	loads, err := h.svc.Workload(c.UserContext(), auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(loads)
}
