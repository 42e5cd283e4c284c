package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AutomationRule is an externally managed rule fired on case lifecycle events.
// The core never interprets Action.
type AutomationRule struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string         `gorm:"not null" json:"name"`
	TriggerType     string         `gorm:"type:varchar(30);not null;index" json:"trigger_type"`
	ConditionStatus *CaseStatus    `gorm:"type:varchar(20)" json:"condition_status,omitempty"`
	Action          datatypes.JSON `gorm:"type:jsonb" json:"action"`
	IsActive        bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
