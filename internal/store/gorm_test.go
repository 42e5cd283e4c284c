package store

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/internal/workflow"
	"github.com/aldoetobex/glojourn-backend/pkg/database"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// openTestDB connects to TEST_DATABASE_URL, migrates, and truncates the
// tables after the test. Skips when no database is configured.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	document_requests,
	timeline_entries,
	notes,
	documents,
	cases,
	automation_rules,
	users
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})
	return db
}

func TestGorm_CaseLifecycle(t *testing.T) {
	s := NewGorm(openTestDB(t))

	client := &models.User{Email: "client@example.com", Role: models.RoleClient, Name: "Client", IsActive: true, PasswordHash: "x"}
	if err := s.CreateUser(ctx, client); err != nil {
		t.Fatalf("create user: %v", err)
	}
	c := seedCase(t, s, client.ID, time.Now())
	expectCaseNumberConflict(t, s, c)

	workflow.ChangeStatus(c, models.CaseSubmitted, client.ID, time.Now())
	workflow.AppendNote(c, "first note", client.ID, time.Now())
	if err := s.SaveCase(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveCase(ctx, c); err != nil {
		t.Fatalf("second save must ignore existing rows: %v", err)
	}

	loaded, err := s.GetCase(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != models.CaseSubmitted || len(loaded.Timeline) != 1 || len(loaded.Notes) != 1 {
		t.Fatalf("unexpected case %+v", loaded)
	}

	mine, err := s.CaseByClient(ctx, client.ID)
	if err != nil || mine == nil || mine.ID != c.ID {
		t.Fatalf("CaseByClient: %v %v", mine, err)
	}

	scope := access.New(nil).Scope(client.Principal())
	items, total, err := s.ListCases(ctx, CaseQuery{Scope: scope, Page: 1, Limit: 10})
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("list: total=%d err=%v", total, err)
	}
	counts, err := s.CountByStatus(ctx, access.Filter{Unrestricted: true})
	if err != nil || counts[models.CaseSubmitted] != 1 {
		t.Fatalf("counts: %v %v", counts, err)
	}
}

func TestGorm_ReplaceDocument(t *testing.T) {
	s := NewGorm(openTestDB(t))
	c := seedCase(t, s, uuid.New(), time.Now())

	first := &models.Document{ID: uuid.New(), CaseID: c.ID, DocumentType: models.DocPassport, FileName: "a.pdf", FileType: "application/pdf", StorageID: "a", UploadedBy: c.ClientID}
	if _, err := s.ReplaceDocument(ctx, first); err != nil {
		t.Fatalf("first: %v", err)
	}
	second := &models.Document{ID: uuid.New(), CaseID: c.ID, DocumentType: models.DocPassport, FileName: "b.pdf", FileType: "application/pdf", StorageID: "b", UploadedBy: c.ClientID}
	removed, err := s.ReplaceDocument(ctx, second)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(removed) != 1 || removed[0].ID != first.ID {
		t.Fatalf("Expected first removed, got %+v", removed)
	}
	docs, _ := s.ListDocuments(ctx, c.ID)
	if len(docs) != 1 || docs[0].ID != second.ID {
		t.Fatalf("Expected only the new passport, got %+v", docs)
	}
}
