// Package documents handles uploads into a case's checklist, signed download
// links and staff requests for missing documents.
package documents

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/access"
	"github.com/aldoetobex/glojourn-backend/internal/metrics"
	"github.com/aldoetobex/glojourn-backend/internal/storage"
	"github.com/aldoetobex/glojourn-backend/internal/store"
	"github.com/aldoetobex/glojourn-backend/pkg/apperr"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
	"github.com/aldoetobex/glojourn-backend/pkg/sanitize"
)

type Service struct {
	store  store.Store
	access *access.Evaluator
	files  storage.Store
	folder string
	ttl    time.Duration
	now    func() time.Time
}

// NewService stores objects under folder/cases/<case id> and signs links for ttl.
func NewService(st store.Store, ev *access.Evaluator, files storage.Store, folder string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{store: st, access: ev, files: files, folder: folder, ttl: ttl, now: time.Now}
}

// TTL is how long signed links stay valid.
func (s *Service) TTL() time.Duration { return s.ttl }

// UploadInput is one file headed for a case.
type UploadInput struct {
	CaseID       uuid.UUID
	DocumentType models.DocumentType
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadResult carries the stored record and a signed link. URL is empty when
// signing failed after the upload itself succeeded.
type UploadResult struct {
	Document models.Document
	URL      string
}

// Upload stores the file and makes it the only document of its type on the
// case. The new object is staged first; older objects of the same type are
// removed only after the new record committed.
func (s *Service) Upload(ctx context.Context, p models.Principal, in UploadInput) (*UploadResult, error) {
	if in.DocumentType == "" {
		in.DocumentType = models.DocClientUpload
	}
	if !in.DocumentType.Valid() {
		return nil, apperr.Validation("Invalid document type")
	}

	c, err := s.store.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	isOwner := c.ClientID == p.ID
	if !isOwner && !p.Role.IsStaff() {
		return nil, apperr.Forbidden("You cannot upload documents to this case")
	}
	if isOwner && !p.Role.IsStaff() {
		if dp := c.IntakeForm.Data().DocumentsProvided; dp != nil {
			if provided, covered := dp.CanProvide(in.DocumentType); covered && !provided {
				return nil, apperr.Validation("You indicated you cannot provide this document type")
			}
		}
	}

	name := sanitize.FileName(in.FileName)
	obj, err := s.files.Store(ctx, in.Body, in.Size, s.caseFolder(c.ID), name, in.ContentType)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	doc := models.Document{
		ID:           uuid.New(),
		CaseID:       c.ID,
		DocumentType: in.DocumentType,
		FileName:     name,
		FileType:     in.ContentType,
		FileSize:     in.Size,
		StorageID:    obj.ID,
		StorageURL:   obj.URL,
		Status:       models.DocPending,
		UploadedBy:   p.ID,
		CreatedAt:    s.now(),
	}
	removed, err := s.store.ReplaceDocument(ctx, &doc)
	if err != nil {
		if derr := s.files.Delete(ctx, obj.ID); derr != nil {
			slog.Warn("staged upload not removed", "case_id", c.ID, "storage_id", obj.ID, "error", derr)
		}
		return nil, err
	}

	for _, old := range removed {
		if old.StorageID == "" {
			continue
		}
		if err := s.files.Delete(ctx, old.StorageID); err != nil {
			slog.Warn("replaced document not removed from storage",
				"case_id", c.ID, "document_id", old.ID, "storage_id", old.StorageID, "error", err)
		}
	}
	if len(removed) > 0 {
		metrics.DocumentsReplaced(len(removed))
	}
	metrics.DocumentUploaded(string(doc.DocumentType))

	if n, err := s.store.FulfillRequests(ctx, c.ID, doc.DocumentType, doc.CreatedAt); err != nil {
		slog.Warn("document requests not fulfilled", "case_id", c.ID, "document_type", doc.DocumentType, "error", err)
	} else if n > 0 {
		slog.Info("document requests fulfilled", "case_id", c.ID, "document_type", doc.DocumentType, "count", n)
	}

	slog.Info("document uploaded",
		"case_id", c.ID, "document_id", doc.ID, "document_type", doc.DocumentType,
		"replaced", len(removed), "user_id", p.ID)

	url, err := s.files.SignedURL(ctx, obj.ID, s.ttl)
	if err != nil {
		slog.Warn("signed url failed after upload", "case_id", c.ID, "document_id", doc.ID, "error", err)
		url = ""
	}
	return &UploadResult{Document: doc, URL: url}, nil
}

func (s *Service) caseFolder(caseID uuid.UUID) string {
	return path.Join(strings.Trim(s.folder, "/"), "cases", caseID.String())
}

// URL signs a download link for a document on a case the caller can access.
func (s *Service) URL(ctx context.Context, p models.Principal, docID uuid.UUID) (string, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return "", err
	}
	if _, err := s.accessibleCase(ctx, p, doc.CaseID); err != nil {
		return "", err
	}
	url, err := s.files.SignedURL(ctx, doc.StorageID, s.ttl)
	if err != nil {
		return "", apperr.Storage(err)
	}
	return url, nil
}

// List returns the documents on a case the caller can access.
func (s *Service) List(ctx context.Context, p models.Principal, caseID uuid.UUID) ([]models.Document, error) {
	if _, err := s.accessibleCase(ctx, p, caseID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, caseID)
}

func (s *Service) accessibleCase(ctx context.Context, p models.Principal, caseID uuid.UUID) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccess(p, c) {
		return nil, apperr.Forbidden("You do not have access to this case")
	}
	return c, nil
}

/* ============================ Document requests ========================= */

// Request records that staff asked the client for a document.
func (s *Service) Request(ctx context.Context, p models.Principal, caseID uuid.UUID, docType models.DocumentType, message string) (*models.DocumentRequest, error) {
	if !p.Role.IsStaff() {
		return nil, apperr.Forbidden("Only staff can request documents")
	}
	if !docType.Valid() {
		return nil, apperr.Validation("Invalid document type")
	}
	if _, err := s.accessibleCase(ctx, p, caseID); err != nil {
		return nil, err
	}

	r := models.DocumentRequest{
		ID:           uuid.New(),
		CaseID:       caseID,
		DocumentType: docType,
		Message:      strings.TrimSpace(message),
		RequestedBy:  p.ID,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateRequest(ctx, &r); err != nil {
		return nil, err
	}
	slog.Info("document requested", "case_id", caseID, "document_type", docType, "user_id", p.ID)
	return &r, nil
}

// Requests lists requests newest first. Clients always get their own case;
// staff name the case.
func (s *Service) Requests(ctx context.Context, p models.Principal, caseID *uuid.UUID) ([]models.DocumentRequest, error) {
	if p.Role == models.RoleClient {
		c, err := s.store.CaseByClient(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return []models.DocumentRequest{}, nil
		}
		if caseID != nil && *caseID != c.ID {
			return nil, apperr.Forbidden("You do not have access to this case")
		}
		return s.store.ListRequests(ctx, c.ID)
	}

	if caseID == nil {
		return nil, apperr.Validation("caseId is required")
	}
	if _, err := s.accessibleCase(ctx, p, *caseID); err != nil {
		return nil, err
	}
	return s.store.ListRequests(ctx, *caseID)
}
