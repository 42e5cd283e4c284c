package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
	"github.com/aldoetobex/glojourn-backend/pkg/validation"
)

/* ================================ DTOs ================================= */

// Request body for /signup. Public signup always creates a client.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
}

// Request body for /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
}

// Standard auth response
type AuthResponse struct {
	Token string              `json:"token"`
	Role  models.Role         `json:"role"`
	User  *models.UserSummary `json:"user"`
}

// Profile response for /me
type UserProfileResponse struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

/* ============================== Handler ================================= */

type Handler struct {
	users  store.UserStore
	tokens *Tokens
}

func NewHandler(users store.UserStore, tokens *Tokens) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// HashPassword is shared with staff account creation and the admin bootstrap.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

/* =============================== Signup ================================= */

// @Summary      Sign up
// @Description  Register a new client account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  SignupRequest  true  "Signup payload"
// @Success      201      {object}  AuthResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      409      {object}  models.ErrorResponse  "email already exists"
// @Router       /auth/signup [post]
func (h *Handler) Signup(c *fiber.Ctx) error {
	var in SignupRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	// Normalize email
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if ok, err := validation.Check(c, in); !ok {
		return err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return apperr.Internal(err)
	}

	u := models.User{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleClient,
		Name:         in.Name,
		Phone:        in.Phone,
		IsActive:     true,
	}
	if err := h.users.CreateUser(c.UserContext(), &u); err != nil {
		return err
	}

	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, Role: u.Role, User: u.Summary()})
}

/* ================================ Login ================================= */

// @Summary      Login
// @Description  Authenticate and receive a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginRequest  true  "Login payload"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      401      {object}  models.ErrorResponse
// @Failure      403      {object}  models.ErrorResponse  "account deactivated"
// @Router       /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if ok, err := validation.Check(c, in); !ok {
		return err
	}

	u, err := h.users.UserByEmail(c.UserContext(), in.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}
	if !u.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "Account is deactivated")
	}

	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(AuthResponse{Token: token, Role: u.Role, User: u.Summary()})
}

/* ================================= Me =================================== */

// @Summary      Get current user profile
// @Description  Return the profile of the authenticated user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  UserProfileResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	p := MustPrincipal(c)

	u, err := h.users.GetUser(c.UserContext(), p.ID)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	return c.JSON(UserProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Name:      u.Name,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	})
}
