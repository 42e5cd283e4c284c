package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub  string `json:"sub"`  // user ID
	Role string `json:"role"` // client | coordinator | manager | admin
	jwt.RegisteredClaims
}

/* ============================== JWT Helpers ============================= */

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user and role.
func (t *Tokens) Issue(userID uuid.UUID, role models.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  userID.String(),
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies signature, algorithm and expiry.
func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tk.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

/* ============================== Middleware ============================== */

// RequireAuth validates a Bearer JWT and injects userID and role into the context.
func RequireAuth(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		claims, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("userID", claims.Sub)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// RequireActive resolves the token subject to a current user record. The role
// comes from the record, so a role change applies without a new token.
func RequireActive(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, _ := c.Locals("userID").(string)
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		u, err := users.GetUser(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return fiber.ErrUnauthorized
			}
			return err
		}
		if !u.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "Account is deactivated")
		}
		c.Locals("role", string(u.Role))
		c.Locals("principal", u.Principal())
		return c.Next()
	}
}

// MustPrincipal reads the acting user from context or panics (programming error).
func MustPrincipal(c *fiber.Ctx) models.Principal {
	if p, ok := c.Locals("principal").(models.Principal); ok {
		return p
	}
	panic(errors.New("principal not in context"))
}

// RequireRole lets through only the listed roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := MustPrincipal(c)
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return fiber.ErrForbidden
	}
}

// RequireStaff lets through coordinators, managers and admins.
func RequireStaff() fiber.Handler {
	return RequireRole(models.RoleCoordinator, models.RoleManager, models.RoleAdmin)
}

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// ErrorHandler is a global Fiber error handler that returns a consistent JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok {
		if e.HTTPStatus >= fiber.StatusInternalServerError {
			report(c, err)
		}
		msg := e.Message
		if errors.Is(e, apperr.ErrInternal) {
			msg = "Internal Server Error"
		}
		return c.Status(e.HTTPStatus).JSON(models.ErrorResponse{
			Error:            true,
			Message:          msg,
			Code:             e.Code,
			Details:          e.Details,
			MissingDocuments: e.MissingDocuments,
		})
	}

	// Defaults
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	// Fiber errors carry status codes
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if strings.TrimSpace(fe.Message) != "" {
			msg = fe.Message
		} else {
			msg = fiber.ErrInternalServerError.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		report(c, err)
		msg = "Internal Server Error"
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Code:    httpCodeToString(code),
		Error:   true,
		Message: msg,
	})
}

// report logs a server error and forwards it to Sentry when configured.
func report(c *fiber.Ctx, err error) {
	slog.Error("unhandled server error",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"error", err.Error(),
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
