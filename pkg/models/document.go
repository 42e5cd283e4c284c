package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType is the closed taxonomy of uploads a case accepts.
type DocumentType string

const (
	DocPassport          DocumentType = "passport"
	DocVisas             DocumentType = "visas"
	DocWorkPermits       DocumentType = "work_permits"
	DocCertificates      DocumentType = "certificates"
	DocPriorApplications DocumentType = "prior_applications"
	DocTaxFinancials     DocumentType = "tax_financials"
	DocIDProof           DocumentType = "id_proof"
	DocFinancial         DocumentType = "financial"
	DocEducational       DocumentType = "educational"
	DocOther             DocumentType = "other"
	DocClientUpload      DocumentType = "client_upload"
)

// DocumentTypes is the full accepted taxonomy.
var DocumentTypes = []DocumentType{
	DocPassport, DocVisas, DocWorkPermits, DocCertificates, DocPriorApplications, DocTaxFinancials,
	DocIDProof, DocFinancial, DocEducational, DocOther, DocClientUpload,
}

// RequiredDocumentTypes must all be present before a case may leave draft.
var RequiredDocumentTypes = []DocumentType{
	DocPassport, DocVisas, DocWorkPermits, DocCertificates, DocPriorApplications, DocTaxFinancials,
}

func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DocumentStatus is the review state of an uploaded file.
type DocumentStatus string

const (
	DocPending  DocumentStatus = "pending"
	DocVerified DocumentStatus = "verified"
	DocRejected DocumentStatus = "rejected"
)

// Document is one uploaded file bound to a case.
type Document struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_document_case_type" json:"case_id"`
	DocumentType DocumentType   `gorm:"type:varchar(30);not null;index:idx_document_case_type" json:"document_type"`
	FileName     string         `gorm:"not null" json:"file_name"`
	FileType     string         `gorm:"not null" json:"file_type"`
	FileSize     int64          `json:"file_size"`
	StorageID    string         `gorm:"not null" json:"-"`
	StorageURL   string         `json:"-"`
	Status       DocumentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	UploadedBy   uuid.UUID      `gorm:"type:uuid;not null" json:"uploaded_by"`
	CreatedAt    time.Time      `json:"uploaded_at"`
}

// DocumentRequest is staff asking the client for a specific document.
type DocumentRequest struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"case_id"`
	DocumentType DocumentType `gorm:"type:varchar(30);not null" json:"document_type"`
	Message      string       `gorm:"type:text" json:"message"`
	RequestedBy  uuid.UUID    `gorm:"type:uuid;not null" json:"requested_by"`
	CreatedAt    time.Time    `json:"created_at"`
	FulfilledAt  *time.Time   `json:"fulfilled_at,omitempty"`
}
