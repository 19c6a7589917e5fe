package dto

import (
	"time"

	"github.com/noah-isme/peer-match-api/internal/models"
)

// UpdateSessionRequest patches a session; omitted fields stay unchanged.
type UpdateSessionRequest struct {
	Status      *models.SessionStatus `json:"status" validate:"omitempty,oneof=pending matched active completed cancelled"`
	ScheduledAt *time.Time            `json:"scheduled_at"`
	Remarks     *string               `json:"remarks"`
	Topic       *string               `json:"topic"`
}

// Empty reports whether the request carries no field to change.
func (r UpdateSessionRequest) Empty() bool {
	return r.Status == nil && r.ScheduledAt == nil && r.Remarks == nil && r.Topic == nil
}

// ToUpdate converts the request into a storage update stamped at now.
func (r UpdateSessionRequest) ToUpdate(now time.Time) models.SessionUpdate {
	return models.SessionUpdate{
		Status:      r.Status,
		ScheduledAt: r.ScheduledAt,
		Remarks:     r.Remarks,
		Topic:       r.Topic,
		UpdatedAt:   now,
	}
}

// SessionExportFormat enumerates supported export renderings.
type SessionExportFormat string

const (
	SessionExportCSV SessionExportFormat = "csv"
	SessionExportPDF SessionExportFormat = "pdf"
)
