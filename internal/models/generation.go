package models

import (
	"time"

	"gorm.io/gorm"
)

// Generation is the persisted history of one generation call. Stored
// only when a database is configured; the engines themselves never
// touch persistence.
type Generation struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	RequestID    string         `gorm:"index" json:"request_id"`
	Endpoint     string         `gorm:"not null;index" json:"endpoint"`
	Seed         int64          `json:"seed"`
	Success      bool           `gorm:"default:false" json:"success"`
	ErrorCode    string         `json:"error_code,omitempty"`
	WarningCount int            `json:"warning_count"`
	DurationMs   int64          `json:"duration_ms"`
}
