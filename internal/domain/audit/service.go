package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo EventRepository
}

func NewService(repo EventRepository) *Service {
	return &Service{repo: repo}
}

// Emit appends one audit event for a state change. Metadata is serialized to
// JSON before it reaches the repository; a serialization or persistence
// failure fails the call, and the caller must surface that as an overall
// operation failure. Emission always happens after the primary mutation, so a
// failure here leaves a committed mutation without its audit row — accepted
// at-least-once behavior, not silently swallowed.
func (s *Service) Emit(ctx context.Context, entityType string, entityID uuid.UUID, action, userID string, metadata map[string]interface{}) error {
	if entityType == "" {
		return fmt.Errorf("entity type is required")
	}
	if action == "" {
		return fmt.Errorf("action is required")
	}

	e := &Event{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		Recorded:   time.Now().UTC(),
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("serialize audit metadata: %w", err)
		}
		m := string(raw)
		e.Metadata = &m
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}

func (s *Service) ListByAction(ctx context.Context, action string, limit, offset int) ([]*Event, int, error) {
	return s.repo.ListByAction(ctx, action, limit, offset)
}
