package documents

import (
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/internal/auth"
	"github.com/aldoetobex/glojourn-backend/pkg/models"
	"github.com/aldoetobex/glojourn-backend/pkg/utils"
	"github.com/aldoetobex/glojourn-backend/pkg/validation"
)

// ===== DTOs =====

type UploadResponse struct {
	Document  models.Document `json:"document"`
	URL       string          `json:"url"`
	ExpiresIn int             `json:"expires_in"`
}

type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresIn int       `json:"expires_in"`
	Now       time.Time `json:"now"`
}

type CreateRequestRequest struct {
	CaseID       uuid.UUID           `json:"case_id" validate:"required" swaggertype:"string"`
	DocumentType models.DocumentType `json:"document_type" validate:"required,doctype"`
	Message      string              `json:"message" validate:"max=1000"`
}

type Handler struct {
	svc     *Service
	maxSize int64
	allowed map[string]bool
}

// NewHandler enforces maxSize bytes and the given MIME types on uploads.
func NewHandler(svc *Service, maxSize int64, allowedTypes []string) *Handler {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Handler{svc: svc, maxSize: maxSize, allowed: allowed}
}

// Upload Document godoc
// @Summary      Upload document
// @Description  Upload one file into a case checklist. An existing document of the same type is replaced.
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        case_id        formData  string  true   "case id (uuid)"
// @Param        document_type  formData  string  false  "document type (default client_upload)"
// @Param        file           formData  file    true   "PDF/JPEG/PNG/GIF"
// @Success      201  {object}  UploadResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      413  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse  "storage error"
// @Router       /documents/upload [post]
func (h *Handler) Upload(c *fiber.Ctx) error {
	caseID, err := uuid.Parse(c.FormValue("case_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "case_id is required")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form required; use key: file")
	}

	// ---- Per-file validation
	if fh.Size <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty file")
	}
	if h.maxSize > 0 && fh.Size > h.maxSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds the maximum size")
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(fh.Header.Get("Content-Type"), ";", 2)[0]))
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
		ct = strings.SplitN(ct, ";", 2)[0]
	}
	if !h.allowed[ct] {
		return fiber.NewError(fiber.StatusBadRequest, "file type is not allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "open failed")
	}
	defer f.Close()

	res, err := h.svc.Upload(c.UserContext(), auth.MustPrincipal(c), UploadInput{
		CaseID:       caseID,
		DocumentType: models.DocumentType(strings.TrimSpace(c.FormValue("document_type"))),
		FileName:     fh.Filename,
		ContentType:  ct,
		Size:         fh.Size,
		Body:         f,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		Document:  res.Document,
		URL:       res.URL,
		ExpiresIn: int(h.svc.TTL().Seconds()),
	})
}

// Signed Download URL godoc
// @Summary      Get signed URL
// @Description  Short-lived download link for a document on an accessible case
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "document id (uuid)"
// @Success      200  {object}  SignedURLResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse
// @Router       /documents/{id}/url [get]
func (h *Handler) SignedURL(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	url, err := h.svc.URL(c.UserContext(), auth.MustPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(SignedURLResponse{URL: url, ExpiresIn: int(h.svc.TTL().Seconds()), Now: time.Now().UTC()})
}

// List Case Documents godoc
// @Summary      List case documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "case id (uuid)"
// @Success      200  {array}   models.Document
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/documents [get]
func (h *Handler) ListForCase(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	docs, err := h.svc.List(c.UserContext(), auth.MustPrincipal(c), id)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return c.JSON(docs)
}

// Request Document godoc
// @Summary      Request a document
// @Description  Staff ask the client to upload a document type
// @Tags         document-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateRequestRequest  true  "Request"
// @Success      201  {object}  models.DocumentRequest
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /document-requests [post]
func (h *Handler) CreateRequest(c *fiber.Ctx) error {
	var in CreateRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if ok, err := validation.Check(c, in); !ok {
		return err
	}
	r, err := h.svc.Request(c.UserContext(), auth.MustPrincipal(c), in.CaseID, in.DocumentType, in.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// List Document Requests godoc
// @Summary      List document requests
// @Description  Clients see requests on their own case; staff pass caseId
// @Tags         document-requests
// @Security     BearerAuth
// @Produce      json
// @Param        caseId  query  string  false  "case id (staff)"
// @Success      200  {array}   models.DocumentRequest
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /document-requests [get]
func (h *Handler) ListRequests(c *fiber.Ctx) error {
	var caseID *uuid.UUID
	if raw := c.Query("caseId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid caseId")
		}
		caseID = &id
	}
	list, err := h.svc.Requests(c.UserContext(), auth.MustPrincipal(c), caseID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []models.DocumentRequest{}
	}
	return c.JSON(list)
}
