package lab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openlis/lis/internal/domain/audit"
	"github.com/openlis/lis/internal/domain/catalog"
)

// OrderService handles work-order intake and the batch specimen operations
// that prepare an order for the lab.
type OrderService struct {
	orders  WorkOrderRepository
	samples SampleRepository
	exams   ExamRepository
	types   catalog.ExamTypeRepository
	audit   AuditEmitter
}

func NewOrderService(orders WorkOrderRepository, samples SampleRepository, exams ExamRepository, types catalog.ExamTypeRepository, audit AuditEmitter) *OrderService {
	return &OrderService{orders: orders, samples: samples, exams: exams, types: types, audit: audit}
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *OrderService) List(ctx context.Context, status string, limit, offset int) ([]*WorkOrder, int, error) {
	return s.orders.List(ctx, status, limit, offset)
}

// Create registers a new work order at intake and emits ORDER_CREATED.
func (s *OrderService) Create(ctx context.Context, o *WorkOrder, userID string) *Result {
	if o.PatientID == uuid.Nil {
		return failValidation("patient id is required")
	}
	o.AccessionNumber = strings.TrimSpace(o.AccessionNumber)
	if o.AccessionNumber == "" {
		return failValidation("accession number is required")
	}
	if len(o.RequestedExamTypeCodes) == 0 {
		return failValidation("at least one exam type code is required")
	}
	if o.Priority == "" {
		o.Priority = PriorityRoutine
	}
	if !IsPriority(o.Priority) {
		return failValidation(fmt.Sprintf("unknown priority %q", o.Priority))
	}

	o.Status = OrderPending
	if o.RequestedAt.IsZero() {
		o.RequestedAt = time.Now().UTC()
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return failPersistence(err)
	}
	meta := map[string]interface{}{
		"accession_number": o.AccessionNumber,
		"codes":            o.RequestedExamTypeCodes,
	}
	if err := s.audit.Emit(ctx, EntityWorkOrder, o.ID, audit.ActionOrderCreated, userID, meta); err != nil {
		return failPersistence(err)
	}
	return okResult(o.UpdatedAt)
}

// GenerateSpecimens creates one labeled sample plus one pending exam per
// requested exam-type code. Idempotent: if the order already has samples they
// are returned unchanged with no new rows and no new audit event. On a
// mid-sequence failure every row created by this call is deleted best-effort
// before the failure is returned.
func (s *OrderService) GenerateSpecimens(ctx context.Context, workOrderID uuid.UUID, userID string) ([]*Sample, *Result) {
	o, err := s.orders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, failRead("work order", err)
	}

	existing, err := s.samples.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, failPersistence(err)
	}
	if len(existing) > 0 {
		return existing, okBare()
	}

	var created []*Sample
	var createdExams []*Exam
	undo := func() {
		// Best-effort compensation, not a transaction: delete failures are
		// swallowed and a crash mid-way can still leave orphans.
		for _, ex := range createdExams {
			_ = s.exams.Delete(ctx, ex.ID)
		}
		for _, sm := range created {
			_ = s.samples.Delete(ctx, sm.ID)
		}
	}

	var summary []map[string]interface{}
	for i, code := range o.RequestedExamTypeCodes {
		et, err := s.types.GetByCode(ctx, code)
		if err != nil {
			undo()
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, failValidation(fmt.Sprintf("unknown exam type code %q", code))
			}
			return nil, failPersistence(err)
		}

		sm := &Sample{
			WorkOrderID: o.ID,
			ExamTypeID:  et.ID,
			Barcode:     fmt.Sprintf("SMP-%s-%02d", o.AccessionNumber, i+1),
			Status:      SampleLabeled,
		}
		if err := s.samples.Create(ctx, sm); err != nil {
			undo()
			return nil, failPersistence(err)
		}
		created = append(created, sm)

		ex := &Exam{
			SampleID:   sm.ID,
			ExamTypeID: et.ID,
			Status:     ExamPending,
		}
		if err := s.exams.Create(ctx, ex); err != nil {
			undo()
			return nil, failPersistence(err)
		}
		createdExams = append(createdExams, ex)

		summary = append(summary, map[string]interface{}{
			"sample_id": sm.ID.String(),
			"exam_id":   ex.ID.String(),
			"barcode":   sm.Barcode,
			"code":      code,
		})
	}

	if err := s.audit.Emit(ctx, EntityWorkOrder, o.ID, audit.ActionSpecimensGenerated, userID, map[string]interface{}{"specimens": summary}); err != nil {
		return nil, failPersistence(err)
	}
	if o.Status == OrderPending {
		if _, err := s.orders.UpdateStatus(ctx, o.ID, OrderInProgress); err != nil {
			return nil, failPersistence(err)
		}
	}
	return created, okBare()
}

// MarkLabelsPrinted records that labels for the whole order went to the
// printer. Audit only, one aggregate event.
func (s *OrderService) MarkLabelsPrinted(ctx context.Context, workOrderID uuid.UUID, userID string) *Result {
	o, err := s.orders.GetByID(ctx, workOrderID)
	if err != nil {
		return failRead("work order", err)
	}
	samples, err := s.samples.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return failPersistence(err)
	}
	if len(samples) == 0 {
		return failValidation("the work order has no specimens yet")
	}

	barcodes := make([]string, 0, len(samples))
	for _, sm := range samples {
		barcodes = append(barcodes, sm.Barcode)
	}
	if err := s.audit.Emit(ctx, EntityWorkOrder, o.ID, audit.ActionLabelPrinted, userID, map[string]interface{}{"barcodes": barcodes}); err != nil {
		return failPersistence(err)
	}
	return okBare()
}

// MarkReadyForLab advances every labeled sample of the order to
// ready_for_lab. Samples in other states are left untouched, not errors. One
// aggregate event covers the batch.
func (s *OrderService) MarkReadyForLab(ctx context.Context, workOrderID uuid.UUID, userID string) *Result {
	o, err := s.orders.GetByID(ctx, workOrderID)
	if err != nil {
		return failRead("work order", err)
	}
	samples, err := s.samples.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return failPersistence(err)
	}
	if len(samples) == 0 {
		return failValidation("the work order has no specimens yet")
	}

	var moved []string
	for _, sm := range samples {
		if sm.Status != SampleLabeled {
			continue
		}
		if _, err := s.samples.UpdateStatus(ctx, sm.ID, SampleReadyForLab, nil); err != nil {
			return failPersistence(err)
		}
		moved = append(moved, sm.ID.String())
	}
	if len(moved) == 0 {
		// Nothing was labeled, so nothing happened; no event to record.
		return okBare()
	}
	if err := s.audit.Emit(ctx, EntityWorkOrder, o.ID, audit.ActionOrderReadyForLab, userID, map[string]interface{}{"sample_ids": moved}); err != nil {
		return failPersistence(err)
	}
	return okBare()
}
