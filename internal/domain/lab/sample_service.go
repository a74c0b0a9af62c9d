package lab

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openlis/lis/internal/domain/audit"
)

// SampleService drives the specimen lifecycle and owns the cross-entity sync
// that completes a sample once all of its exams have settled.
type SampleService struct {
	samples SampleRepository
	exams   ExamRepository
	orders  WorkOrderRepository
	audit   AuditEmitter
}

func NewSampleService(samples SampleRepository, exams ExamRepository, orders WorkOrderRepository, audit AuditEmitter) *SampleService {
	return &SampleService{samples: samples, exams: exams, orders: orders, audit: audit}
}

func (s *SampleService) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return s.samples.GetByID(ctx, id)
}

func (s *SampleService) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*Sample, error) {
	return s.samples.ListByWorkOrder(ctx, workOrderID)
}

// ScanByBarcode resolves a specimen at the scanner station and records the
// scan. The sample is returned unchanged.
func (s *SampleService) ScanByBarcode(ctx context.Context, barcode, userID string) (*Sample, *Result) {
	sm, err := s.samples.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, failRead("sample", err)
	}
	if err := s.audit.Emit(ctx, EntitySample, sm.ID, audit.ActionSpecimenScanned, userID, map[string]interface{}{"barcode": sm.Barcode}); err != nil {
		return nil, failPersistence(err)
	}
	return sm, okResult(sm.UpdatedAt)
}

// MarkReceived accepts a specimen into the lab.
func (s *SampleService) MarkReceived(ctx context.Context, sampleID uuid.UUID, userID string) *Result {
	return s.advance(ctx, sampleID, userID, SampleReadyForLab, SampleReceived,
		audit.ActionSpecimenReceived, "only a specimen ready for the lab can be received")
}

// MarkInProgress puts a received specimen on the bench.
func (s *SampleService) MarkInProgress(ctx context.Context, sampleID uuid.UUID, userID string) *Result {
	return s.advance(ctx, sampleID, userID, SampleReceived, SampleInProgress,
		audit.ActionSpecimenInProgress, "only a received specimen can be put in progress")
}

// MarkCompleted closes out an in-progress specimen directly. Normally
// completion arrives through SyncCompletion, but manual close-out is allowed.
func (s *SampleService) MarkCompleted(ctx context.Context, sampleID uuid.UUID, userID string) *Result {
	return s.advance(ctx, sampleID, userID, SampleInProgress, SampleCompleted,
		audit.ActionSpecimenCompleted, "only an in-progress specimen can be completed")
}

func (s *SampleService) advance(ctx context.Context, sampleID uuid.UUID, userID, from, to, action, guardMsg string) *Result {
	sm, err := s.samples.GetByID(ctx, sampleID)
	if err != nil {
		return failRead("sample", err)
	}
	if sm.Status != from {
		return failTransition(guardMsg)
	}

	var receivedAt *time.Time
	if to == SampleReceived {
		now := time.Now().UTC()
		receivedAt = &now
	}
	updatedAt, err := s.samples.UpdateStatus(ctx, sm.ID, to, receivedAt)
	if err != nil {
		return failPersistence(err)
	}
	if err := s.audit.Emit(ctx, EntitySample, sm.ID, action, userID, nil); err != nil {
		return failPersistence(err)
	}
	return okResult(updatedAt)
}

// MarkRejected is the only any-state transition in the sample model: a
// specimen can be discarded at any point.
func (s *SampleService) MarkRejected(ctx context.Context, sampleID uuid.UUID, userID, reason string) *Result {
	sm, err := s.samples.GetByID(ctx, sampleID)
	if err != nil {
		return failRead("sample", err)
	}

	updatedAt, err := s.samples.UpdateStatus(ctx, sm.ID, SampleRejected, nil)
	if err != nil {
		return failPersistence(err)
	}
	var meta map[string]interface{}
	if reason != "" {
		meta = map[string]interface{}{"reason": reason}
	}
	if err := s.audit.Emit(ctx, EntitySample, sm.ID, audit.ActionSpecimenRejected, userID, meta); err != nil {
		return failPersistence(err)
	}
	if err := s.syncOrder(ctx, sm.WorkOrderID); err != nil {
		return failPersistence(err)
	}
	return okResult(updatedAt)
}

// ReprintLabel models a printer-side effect: audit only, no status change.
func (s *SampleService) ReprintLabel(ctx context.Context, sampleID uuid.UUID, userID string) *Result {
	sm, err := s.samples.GetByID(ctx, sampleID)
	if err != nil {
		return failRead("sample", err)
	}
	if err := s.audit.Emit(ctx, EntitySample, sm.ID, audit.ActionLabelPrinted, userID, map[string]interface{}{"barcode": sm.Barcode}); err != nil {
		return failPersistence(err)
	}
	return okResult(sm.UpdatedAt)
}

// SyncCompletion recomputes a sample's derived completion from scratch: if
// every exam on the sample has settled (ready_for_validation, approved, or
// rejected) and the sample is not already completed, the sample completes and
// one SPECIMEN_COMPLETED event records which exam transition triggered it.
// Recomputing from the store on every call trades redundant reads for freedom
// from drift.
func (s *SampleService) SyncCompletion(ctx context.Context, sampleID uuid.UUID, userID, trigger string) error {
	sm, err := s.samples.GetByID(ctx, sampleID)
	if err != nil {
		return err
	}

	exams, err := s.exams.ListBySample(ctx, sampleID)
	if err != nil {
		return err
	}
	if len(exams) == 0 {
		return nil
	}
	for _, ex := range exams {
		if !examSettled[ex.Status] {
			return nil
		}
	}

	if sm.Status != SampleCompleted {
		if _, err := s.samples.UpdateStatus(ctx, sm.ID, SampleCompleted, nil); err != nil {
			return err
		}
		if err := s.audit.Emit(ctx, EntitySample, sm.ID, audit.ActionSpecimenCompleted, userID, map[string]interface{}{"trigger": trigger}); err != nil {
			return err
		}
	}
	return s.syncOrder(ctx, sm.WorkOrderID)
}

// syncOrder completes the work order once every sample has completed or been
// rejected. Derived the same way as sample completion, with no audit action
// of its own.
func (s *SampleService) syncOrder(ctx context.Context, workOrderID uuid.UUID) error {
	o, err := s.orders.GetByID(ctx, workOrderID)
	if err != nil {
		return err
	}
	if o.Status == OrderCompleted {
		return nil
	}

	samples, err := s.samples.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	for _, sm := range samples {
		if sm.Status != SampleCompleted && sm.Status != SampleRejected {
			return nil
		}
	}
	_, err = s.orders.UpdateStatus(ctx, workOrderID, OrderCompleted)
	return err
}
