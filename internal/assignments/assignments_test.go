package assignments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/internal/workflow"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

func seedUser(t *testing.T, st *store.Memory, role models.Role, name string, active bool) models.User {
	t.Helper()
	u := models.User{
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Name:     name,
		Role:     role,
		IsActive: active,
	}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedCase(t *testing.T, st *store.Memory, status models.CaseStatus, coordinator *uuid.UUID) models.Case {
	t.Helper()
	n, _ := st.CountCases(context.Background())
	c := workflow.NewCase(workflow.NewCaseInput{ClientID: uuid.New(), VisaType: models.VisaFamily}, n, time.Now())
	c.Status = status
	c.AssignedCoordinatorID = coordinator
	if err := st.CreateCase(context.Background(), &c); err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return c
}

func TestAssignManager_CoordinatorClaimsUnassignedCase(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	coord := seedUser(t, st, models.RoleCoordinator, "Cody Coord", true)
	mgr := seedUser(t, st, models.RoleManager, "Mona Manager", true)
	cs := seedCase(t, st, models.CaseSubmitted, nil)

	got, err := svc.AssignManager(context.Background(), coord.Principal(), cs.ID, &mgr.ID)
	if err != nil {
		t.Fatalf("AssignManager: %v", err)
	}
	if got.AssignedCoordinatorID == nil || *got.AssignedCoordinatorID != coord.ID {
		t.Errorf("Expected coordinator %s, got %v", coord.ID, got.AssignedCoordinatorID)
	}
	if got.AssignedManagerID == nil || *got.AssignedManagerID != mgr.ID {
		t.Errorf("Expected manager %s, got %v", mgr.ID, got.AssignedManagerID)
	}

	stored, _ := st.GetCase(context.Background(), cs.ID)
	if len(stored.Timeline) != 1 {
		t.Fatalf("Expected one audit entry, got %d", len(stored.Timeline))
	}
	e := stored.Timeline[0]
	if e.Note != "Assigned to manager: Mona Manager" || e.Status != models.CaseSubmitted || e.UpdatedBy != coord.ID {
		t.Errorf("unexpected audit entry %#v", e)
	}
	if stored.Status != models.CaseSubmitted {
		t.Errorf("assignment must not change status, got %s", stored.Status)
	}
}

func TestAssignManager_KeepsExistingCoordinator(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	owner := seedUser(t, st, models.RoleCoordinator, "Owner Coord", true)
	other := seedUser(t, st, models.RoleCoordinator, "Other Coord", true)
	mgr := seedUser(t, st, models.RoleManager, "Mia Manager", true)
	cs := seedCase(t, st, models.CaseDraft, &owner.ID)

	got, err := svc.AssignManager(context.Background(), other.Principal(), cs.ID, &mgr.ID)
	if err != nil {
		t.Fatalf("AssignManager: %v", err)
	}
	if *got.AssignedCoordinatorID != owner.ID {
		t.Errorf("Expected coordinator to stay %s, got %s", owner.ID, *got.AssignedCoordinatorID)
	}
}

func TestAssignManager_ClearAddsNoAudit(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin", true)
	mgr := seedUser(t, st, models.RoleManager, "Mo Manager", true)
	cs := seedCase(t, st, models.CaseDraft, nil)

	if _, err := svc.AssignManager(context.Background(), admin.Principal(), cs.ID, &mgr.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.AssignManager(context.Background(), admin.Principal(), cs.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.AssignedManagerID != nil {
		t.Errorf("Expected manager cleared")
	}
	if got.AssignedCoordinatorID != nil {
		t.Errorf("an admin must not become coordinator")
	}
	stored, _ := st.GetCase(context.Background(), cs.ID)
	if len(stored.Timeline) != 1 {
		t.Errorf("Expected only the assignment audit entry, got %d", len(stored.Timeline))
	}
}

func TestAssignManager_Errors(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	client := seedUser(t, st, models.RoleClient, "Cleo Client", true)
	coord := seedUser(t, st, models.RoleCoordinator, "Cam Coord", true)
	mgr := seedUser(t, st, models.RoleManager, "Max Manager", true)
	cs := seedCase(t, st, models.CaseDraft, nil)
	unknown := uuid.New()

	tests := []struct {
		name  string
		as    models.Principal
		cases uuid.UUID
		mgr   *uuid.UUID
		want  error
	}{
		{"client", client.Principal(), cs.ID, &mgr.ID, apperr.ErrForbidden},
		{"unknown case", coord.Principal(), uuid.New(), &mgr.ID, apperr.ErrNotFound},
		{"unknown manager", coord.Principal(), cs.ID, &unknown, apperr.ErrNotFound},
		{"coordinator as manager", coord.Principal(), cs.ID, &coord.ID, apperr.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AssignManager(context.Background(), tc.as, tc.cases, tc.mgr)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	stored, _ := st.GetCase(context.Background(), cs.ID)
	if stored.AssignedCoordinatorID != nil || stored.AssignedManagerID != nil || len(stored.Timeline) != 0 {
		t.Errorf("failed assignments must not persist anything")
	}
}

func TestCoordinatorsAndManagers(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	admin := seedUser(t, st, models.RoleAdmin, "Ada Admin", true)
	coord := seedUser(t, st, models.RoleCoordinator, "Active Coord", true)
	seedUser(t, st, models.RoleCoordinator, "Idle Coord", false)
	seedUser(t, st, models.RoleManager, "Mel Manager", true)

	coords, err := svc.Coordinators(context.Background(), admin.Principal())
	if err != nil {
		t.Fatal(err)
	}
	if len(coords) != 1 || coords[0].ID != coord.ID {
		t.Fatalf("Expected only the active coordinator, got %#v", coords)
	}
	if _, err := svc.Coordinators(context.Background(), coord.Principal()); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("coordinators must not list coordinators, got %v", err)
	}

	mgrs, err := svc.Managers(context.Background(), coord.Principal())
	if err != nil || len(mgrs) != 1 {
		t.Fatalf("Expected 1 manager, got %d (%v)", len(mgrs), err)
	}
}

func TestWorkload_CountsOpenCasesPerActiveCoordinator(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	mgr := seedUser(t, st, models.RoleManager, "Mira Manager", true)
	busy := seedUser(t, st, models.RoleCoordinator, "Busy Coord", true)
	free := seedUser(t, st, models.RoleCoordinator, "Free Coord", true)
	gone := seedUser(t, st, models.RoleCoordinator, "Gone Coord", false)

	seedCase(t, st, models.CaseDraft, &busy.ID)
	seedCase(t, st, models.CaseSubmitted, &busy.ID)
	seedCase(t, st, models.CaseUnderReview, &busy.ID)
	seedCase(t, st, models.CaseApproved, &busy.ID)
	seedCase(t, st, models.CaseCompleted, &free.ID)
	seedCase(t, st, models.CaseDraft, &gone.ID)

	loads, err := svc.Workload(context.Background(), mgr.Principal())
	if err != nil {
		t.Fatal(err)
	}
	if len(loads) != 2 {
		t.Fatalf("Expected 2 active coordinators, got %d", len(loads))
	}
	if loads[0].Coordinator.ID != busy.ID || loads[0].OpenCases != 3 {
		t.Errorf("Expected busy coordinator with 3 open cases first, got %#v", loads[0])
	}
	if loads[1].Coordinator.ID != free.ID || loads[1].OpenCases != 0 {
		t.Errorf("Expected free coordinator with 0, got %#v", loads[1])
	}

	b, _ := json.Marshal(loads[0])
	if !strings.Contains(string(b), `"open_cases":3`) {
		t.Errorf("unexpected json %s", b)
	}
}
