package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event maps to the audit_event table. Rows are append-only: the core never
// updates or deletes them.
type Event struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID `db:"entity_id" json:"entity_id"`
	Action     string    `db:"action" json:"action"`
	UserID     string    `db:"user_id" json:"user_id"`
	Recorded   time.Time `db:"recorded" json:"recorded"`
	Metadata   *string   `db:"metadata" json:"metadata,omitempty"`
}
