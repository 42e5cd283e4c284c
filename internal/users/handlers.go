package users

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
	"github.com/aldoetobex/glojourn-backend/pkg/utils"
	"github.com/aldoetobex/glojourn-backend/pkg/validation"
)

// ===== DTOs =====

type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,min=2,max=80"`
	Email    string      `json:"email" validate:"required,email,max=120"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Phone    string      `json:"phone" validate:"omitempty,max=30"`
	Role     models.Role `json:"role" validate:"required,role"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type ChangeRoleRequest struct {
	Role models.Role `json:"role" validate:"required,role"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// @Summary      Create staff user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateUserRequest  true  "Account"
// @Success      201  {object}  models.User
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "email already exists"
// @Router       /users [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}
	u, err := h.svc.CreateStaff(c.UserContext(), auth.MustPrincipal(c), CreateInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
		Role:     in.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        role  query  string  false  "client | coordinator | manager | admin"
// @Success      200  {array}   models.User
// @Failure      403  {object}  models.ErrorResponse
// @Router       /users [get]
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.svc.List(c.UserContext(), auth.MustPrincipal(c), models.Role(c.Query("role")))
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.User{}
	}
	return c.JSON(list)
}

// @Summary      Activate or deactivate user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string            true  "User ID"
// @Param        payload  body  SetActiveRequest  true  "Status"
// @Success      200  {object}  models.User
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id}/active [patch]
func (h *Handler) SetActive(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var in SetActiveRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}
	u, err := h.svc.SetActive(c.UserContext(), auth.MustPrincipal(c), id, *in.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// @Summary      Change user role
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "User ID"
// @Param        payload  body  ChangeRoleRequest  true  "Role"
// @Success      200  {object}  models.User
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id}/role [patch]
func (h *Handler) ChangeRole(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var in ChangeRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}
	u, err := h.svc.ChangeRole(c.UserContext(), auth.MustPrincipal(c), id, in.Role)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id} [delete]
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

// @Summary      Dashboard stats
// @Description  Case counts per status within the caller's scope, user counts and recent cases
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Stats
// @Failure      403  {object}  models.ErrorResponse
// @Router       /admin/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	st, err := h.svc.Stats(c.UserContext(), auth.MustPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(st)
}
