package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", NotFound("case"), ErrNotFound},
		{"forbidden", Forbidden("nope"), ErrForbidden},
		{"validation", Validation("bad"), ErrValidation},
		{"missing docs", MissingDocuments([]models.DocumentType{models.DocPassport}), ErrValidation},
		{"storage", Storage(errors.New("boom")), ErrStorage},
		{"wrapped", fmt.Errorf("ctx: %w", Forbidden("x")), ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("Expected %v to match kind %v", tt.err, tt.kind)
			}
		})
	}
}

func TestAsExposesMissingDocuments(t *testing.T) {
	err := fmt.Errorf("update: %w", MissingDocuments([]models.DocumentType{models.DocTaxFinancials}))
	e, ok := As(err)
	if !ok {
		t.Fatalf("expected *Error")
	}
	if len(e.MissingDocuments) != 1 || e.MissingDocuments[0] != models.DocTaxFinancials {
		t.Fatalf("unexpected missing documents: %v", e.MissingDocuments)
	}
	if e.HTTPStatus != 400 {
		t.Fatalf("expected 400, got %d", e.HTTPStatus)
	}
}

func TestStorageErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("bucket offline")
	if !errors.Is(Storage(cause), cause) {
		t.Fatalf("expected cause to be reachable")
	}
}
