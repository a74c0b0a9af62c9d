package audit

import (
	"context"

	"github.com/google/uuid"
)

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Event, int, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*Event, int, error)
}
