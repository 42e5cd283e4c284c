package users

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/internal/workflow"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

func seedUser(t *testing.T, st *store.Memory, role models.Role, name string) models.User {
	t.Helper()
	u := models.User{
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Name:     name,
		Role:     role,
		IsActive: true,
	}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func injectAuth(u models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", u.ID.String())
		c.Locals("role", string(u.Role))
		c.Locals("principal", u.Principal())
		return c.Next()
	}
}

func newTestApp(svc *Service, u models.User) *fiber.App {
	h := NewHandler(svc)
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler})
	app.Use(injectAuth(u))
	app.Get("/api/users", h.List)
	app.Post("/api/users", h.Create)
	app.Patch("/api/users/:id/active", h.SetActive)
	app.Patch("/api/users/:id/role", h.ChangeRole)
	app.Delete("/api/users/:id", h.Delete)
	app.Get("/api/admin/stats", h.Stats)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func Test_CreateStaff(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	mgr := seedUser(t, st, models.RoleManager, "Mo Manager")

	body := `{"name":"Cara Coord","email":"Cara@Example.com","password":"secret123","role":"coordinator"}`
	if code, _ := do(t, newTestApp(svc, mgr), "POST", "/api/users", body); code != fiber.StatusForbidden {
		t.Fatalf("Expected 403 for manager, got %d", code)
	}

	code, b := do(t, newTestApp(svc, admin), "POST", "/api/users", body)
	if code != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", code, b)
	}
	if strings.Contains(string(b), "password") {
		t.Errorf("password hash must not be serialized: %s", b)
	}
	u, err := st.UserByEmail(context.Background(), "cara@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Role != models.RoleCoordinator || !u.IsActive {
		t.Errorf("unexpected user %#v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) != nil {
		t.Errorf("password should be stored as bcrypt hash")
	}

	if code, _ := do(t, newTestApp(svc, admin), "POST", "/api/users", body); code != fiber.StatusConflict {
		t.Errorf("Expected 409 on duplicate email, got %d", code)
	}
	client := `{"name":"Cli Ent","email":"cli@example.com","password":"secret123","role":"client"}`
	if code, _ := do(t, newTestApp(svc, admin), "POST", "/api/users", client); code != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for client role, got %d", code)
	}
}

func Test_SetActive_Permissions(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	mgr := seedUser(t, st, models.RoleManager, "Mo Manager")
	otherMgr := seedUser(t, st, models.RoleManager, "Mae Manager")
	coord := seedUser(t, st, models.RoleCoordinator, "Cy Coord")
	client := seedUser(t, st, models.RoleClient, "Cat Client")

	tests := []struct {
		name   string
		as     models.User
		target uuid.UUID
		want   error
	}{
		{"manager deactivates client", mgr, client.ID, nil},
		{"manager deactivates coordinator", mgr, coord.ID, nil},
		{"manager cannot touch manager", mgr, otherMgr.ID, apperr.ErrForbidden},
		{"manager cannot touch admin", mgr, admin.ID, apperr.ErrForbidden},
		{"admin deactivates manager", admin, otherMgr.ID, nil},
		{"coordinator cannot", coord, client.ID, apperr.ErrForbidden},
		{"never self", admin, admin.ID, apperr.ErrValidation},
		{"unknown user", admin, uuid.New(), apperr.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := svc.SetActive(context.Background(), tc.as.Principal(), tc.target, false)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Expected success, got %v", err)
				}
				if u.IsActive {
					t.Errorf("Expected deactivated user")
				}
				stored, _ := st.GetUser(context.Background(), tc.target)
				if stored.IsActive {
					t.Errorf("deactivation not persisted")
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func Test_SetActive_Handler(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	client := seedUser(t, st, models.RoleClient, "Cat Client")
	app := newTestApp(svc, admin)
	path := "/api/users/" + client.ID.String() + "/active"

	if code, _ := do(t, app, "PATCH", path, `{}`); code != fiber.StatusBadRequest {
		t.Fatalf("Expected 400 without is_active, got %d", code)
	}
	code, b := do(t, app, "PATCH", path, `{"is_active":false}`)
	if code != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, b)
	}
	var u models.User
	_ = json.Unmarshal(b, &u)
	if u.IsActive {
		t.Errorf("Expected inactive in response")
	}
	code, b = do(t, app, "PATCH", path, `{"is_active":true}`)
	_ = json.Unmarshal(b, &u)
	if code != fiber.StatusOK || !u.IsActive {
		t.Errorf("Expected reactivation, got %d: %s", code, b)
	}
}

func Test_ChangeRole(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	mgr := seedUser(t, st, models.RoleManager, "Mo Manager")
	coord := seedUser(t, st, models.RoleCoordinator, "Cy Coord")

	if _, err := svc.ChangeRole(context.Background(), mgr.Principal(), coord.ID, models.RoleManager); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("manager: Expected forbidden, got %v", err)
	}
	if _, err := svc.ChangeRole(context.Background(), admin.Principal(), admin.ID, models.RoleClient); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("self: Expected validation, got %v", err)
	}

	code, b := do(t, newTestApp(svc, admin), "PATCH", "/api/users/"+coord.ID.String()+"/role", `{"role":"wizard"}`)
	if code != fiber.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown role, got %d: %s", code, b)
	}
	code, b = do(t, newTestApp(svc, admin), "PATCH", "/api/users/"+coord.ID.String()+"/role", `{"role":"manager"}`)
	if code != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, b)
	}
	stored, _ := st.GetUser(context.Background(), coord.ID)
	if stored.Role != models.RoleManager {
		t.Errorf("Expected manager, got %s", stored.Role)
	}
}

func Test_DeleteUser(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	mgr := seedUser(t, st, models.RoleManager, "Mo Manager")
	client := seedUser(t, st, models.RoleClient, "Cat Client")

	if code, _ := do(t, newTestApp(svc, mgr), "DELETE", "/api/users/"+client.ID.String(), ""); code != fiber.StatusForbidden {
		t.Errorf("Expected 403 for manager, got %d", code)
	}
	if code, _ := do(t, newTestApp(svc, admin), "DELETE", "/api/users/"+admin.ID.String(), ""); code != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for self delete, got %d", code)
	}
	if code, _ := do(t, newTestApp(svc, admin), "DELETE", "/api/users/"+client.ID.String(), ""); code != fiber.StatusNoContent {
		t.Fatalf("Expected 204, got %d", code)
	}
	if _, err := st.GetUser(context.Background(), client.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected user gone, got %v", err)
	}
	if code, _ := do(t, newTestApp(svc, admin), "DELETE", "/api/users/"+client.ID.String(), ""); code != fiber.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", code)
	}
}

func Test_ListUsers_RoleFilter(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	coord := seedUser(t, st, models.RoleCoordinator, "Cy Coord")
	seedUser(t, st, models.RoleClient, "Cat Client")

	code, b := do(t, newTestApp(svc, admin), "GET", "/api/users?role=client", "")
	var list []models.User
	_ = json.Unmarshal(b, &list)
	if code != fiber.StatusOK || len(list) != 1 || list[0].Role != models.RoleClient {
		t.Fatalf("Expected one client, got %d: %s", code, b)
	}
	if code, _ := do(t, newTestApp(svc, coord), "GET", "/api/users", ""); code != fiber.StatusForbidden {
		t.Errorf("Expected 403 for coordinator, got %d", code)
	}
	if code, _ := do(t, newTestApp(svc, admin), "GET", "/api/users?role=alien", ""); code != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for unknown role, got %d", code)
	}
}

func Test_Stats_ScopedForCoordinator(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, access.New(nil))
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin")
	coord := seedUser(t, st, models.RoleCoordinator, "Cy Coord")
	other := seedUser(t, st, models.RoleCoordinator, "Oz Coord")
	client := seedUser(t, st, models.RoleClient, "Cat Client")

	add := func(status models.CaseStatus, coordinator *uuid.UUID) {
		n, _ := st.CountCases(context.Background())
		c := workflow.NewCase(workflow.NewCaseInput{ClientID: uuid.New(), VisaType: models.VisaWork}, n, time.Now())
		c.Status = status
		c.AssignedCoordinatorID = coordinator
		if err := st.CreateCase(context.Background(), &c); err != nil {
			t.Fatal(err)
		}
	}
	add(models.CaseSubmitted, &coord.ID)
	add(models.CaseDraft, nil)
	add(models.CaseApproved, &other.ID)

	if _, err := svc.Stats(context.Background(), client.Principal()); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("client: Expected forbidden, got %v", err)
	}

	all, err := svc.Stats(context.Background(), admin.Principal())
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalCases != 3 || all.CasesByStatus[models.CaseApproved] != 1 || len(all.RecentCases) != 3 {
		t.Errorf("unexpected admin stats %#v", all)
	}
	if all.UsersByRole[models.RoleCoordinator] != 2 || all.ActiveUsers != 4 {
		t.Errorf("unexpected user counts %#v / %d", all.UsersByRole, all.ActiveUsers)
	}
	if _, ok := all.CasesByStatus[models.CaseCompleted]; !ok {
		t.Errorf("every status should be reported, even at zero")
	}

	mine, err := svc.Stats(context.Background(), coord.Principal())
	if err != nil {
		t.Fatal(err)
	}
	if mine.TotalCases != 2 || mine.CasesByStatus[models.CaseApproved] != 0 || len(mine.RecentCases) != 2 {
		t.Errorf("coordinator stats should cover assigned and unassigned cases only, got %#v", mine)
	}

	code, b := do(t, newTestApp(svc, admin), "GET", "/api/admin/stats", "")
	if code != fiber.StatusOK || !strings.Contains(string(b), `"cases_by_status"`) {
		t.Errorf("unexpected stats response %d: %s", code, b)
	}
}
