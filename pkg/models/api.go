// pkg/models/api.go
package models

// Laravel-style validation error response
type ValidationErrorResponse struct {
	Message string              `json:"message" example:"Validation failed"`
	Errors  map[string][]string `json:"errors"`
}

// Generic error response (403/404/409/500). MissingDocuments is filled when a
// status change was blocked by the document checklist.
type ErrorResponse struct {
	Error            bool              `json:"error" example:"true"`
	Message          string            `json:"message" example:"Forbidden"`
	Code             string            `json:"code,omitempty" example:"FORBIDDEN"`
	Details          map[string]string `json:"details,omitempty"`
	MissingDocuments []DocumentType    `json:"missingDocuments,omitempty"`
}

// Paginated list envelope.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}
