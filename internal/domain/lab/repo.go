package lab

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound marks a lookup whose id (or barcode) did not resolve to a row.
// Repositories wrap it so services can tell a missing record apart from a
// store failure.
var ErrNotFound = errors.New("not found")

type WorkOrderRepository interface {
	Create(ctx context.Context, o *WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	List(ctx context.Context, status string, limit, offset int) ([]*WorkOrder, int, error)
	// UpdateStatus advances the order and returns the fresh updated_at.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (time.Time, error)
}

type SampleRepository interface {
	Create(ctx context.Context, s *Sample) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	GetByBarcode(ctx context.Context, barcode string) (*Sample, error)
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*Sample, error)
	// UpdateStatus advances the sample, optionally stamping received_at, and
	// returns the fresh updated_at.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, receivedAt *time.Time) (time.Time, error)
}

type ExamRepository interface {
	Create(ctx context.Context, e *Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Exam, error)
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Exam, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Exam, int, error)
	// Update persists all mutable fields and refreshes e.UpdatedAt, which is
	// the version token handed back to callers.
	Update(ctx context.Context, e *Exam) error
}

// AuditEmitter is the slice of the audit service the lifecycle services use.
type AuditEmitter interface {
	Emit(ctx context.Context, entityType string, entityID uuid.UUID, action, userID string, metadata map[string]interface{}) error
}
