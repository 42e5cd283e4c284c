package main

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

func TestEnsureAdmin_CreatesOnce(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	u, created, err := ensureAdmin(ctx, st, " Root@Example.com ", "secret123", "")
	if err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}
	if !created {
		t.Fatalf("Expected account to be created")
	}
	if u.Email != "root@example.com" || u.Role != models.RoleAdmin || !u.IsActive || u.Name != "Administrator" {
		t.Errorf("unexpected admin %#v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) != nil {
		t.Errorf("password not hashed with bcrypt")
	}

	again, created, err := ensureAdmin(ctx, st, "root@example.com", "other-pass", "Root")
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != u.ID {
		t.Errorf("Expected the existing admin to be reused")
	}
	list, _ := st.ListUsers(ctx, store.UserFilter{Role: models.RoleAdmin})
	if len(list) != 1 {
		t.Errorf("Expected 1 admin, got %d", len(list))
	}
}

func TestEnsureAdmin_PromotesExistingAccount(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	u := models.User{Email: "ops@example.com", Name: "Ops", Role: models.RoleCoordinator, PasswordHash: "x"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatal(err)
	}

	got, created, err := ensureAdmin(ctx, st, "ops@example.com", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Errorf("Expected no new account")
	}
	stored, _ := st.GetUser(ctx, got.ID)
	if stored.Role != models.RoleAdmin || !stored.IsActive || stored.PasswordHash != "x" {
		t.Errorf("Expected promoted active admin with the old password, got %#v", stored)
	}
}

func TestEnsureAdmin_Errors(t *testing.T) {
	st := store.NewMemory()
	if _, _, err := ensureAdmin(context.Background(), st, "", "secret123", ""); err == nil {
		t.Errorf("Expected error for missing email")
	}
	if _, _, err := ensureAdmin(context.Background(), st, "a@b.co", "123", ""); err == nil {
		t.Errorf("Expected error for short password")
	}
}
