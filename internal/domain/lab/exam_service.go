package lab

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openlis/lis/internal/domain/audit"
	"github.com/openlis/lis/internal/domain/catalog"
)

// rejectReasonRequired is shown verbatim when a rejection arrives without a
// reason.
const rejectReasonRequired = "Debe indicar un motivo de rechazo"

// reworkTypes are the incidence types that send a ready_for_validation exam
// back to review.
var reworkTypes = map[string]bool{
	"rework":     true,
	"retrabajo":  true,
	"correction": true,
	"corrección": true,
}

// ExamService drives an exam through pending → inprogress → completed →
// ready_for_validation → approved/rejected. Every operation re-reads the exam
// fresh, never trusting caller-passed state, and emits exactly one audit
// event per committed transition.
type ExamService struct {
	exams   ExamRepository
	types   catalog.ExamTypeRepository
	samples *SampleService
	audit   AuditEmitter
}

func NewExamService(exams ExamRepository, types catalog.ExamTypeRepository, samples *SampleService, audit AuditEmitter) *ExamService {
	return &ExamService{exams: exams, types: types, samples: samples, audit: audit}
}

func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*Exam, error) {
	return s.exams.GetByID(ctx, id)
}

// ListValidationQueue returns exams waiting for a pathologist's decision.
func (s *ExamService) ListValidationQueue(ctx context.Context, limit, offset int) ([]*Exam, int, error) {
	return s.exams.ListByStatus(ctx, ExamReadyForValidation, limit, offset)
}

// MarkStarted moves a pending exam to inprogress. Calling it on an exam that
// already left pending is a success no-op, since the bench UI may re-fire it
// on remount; only the first call emits EXAM_STARTED.
func (s *ExamService) MarkStarted(ctx context.Context, examID uuid.UUID, userID string) *Result {
	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}
	if ex.Status != ExamPending {
		return okResult(ex.UpdatedAt)
	}

	now := time.Now().UTC()
	ex.Status = ExamInProgress
	ex.StartedAt = &now
	ex.PerformedBy = userID
	if err := s.exams.Update(ctx, ex); err != nil {
		return failPersistence(err)
	}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionExamStarted, userID, nil); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// SaveDraft stores validated results on an inprogress exam without advancing
// its status.
func (s *ExamService) SaveDraft(ctx context.Context, examID uuid.UUID, results map[string]interface{}, userID string, expectedVersion *time.Time) *Result {
	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}
	if ex.Status != ExamInProgress {
		return failTransition("results can only be saved while the exam is in progress")
	}
	if versionConflict(ex.UpdatedAt, expectedVersion) {
		return failConflict()
	}

	normalized, res := s.validateResults(ctx, ex.ExamTypeID, results)
	if res != nil {
		return res
	}

	ex.Results = normalized
	if err := s.exams.Update(ctx, ex); err != nil {
		return failPersistence(err)
	}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionExamResultsSaved, userID, map[string]interface{}{"draft": true}); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// Finalize stores results and completes the exam in one step.
func (s *ExamService) Finalize(ctx context.Context, examID uuid.UUID, results map[string]interface{}, userID string, expectedVersion *time.Time) *Result {
	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}
	if ex.Status != ExamInProgress {
		return failTransition("only an in-progress exam can be finalized")
	}
	if versionConflict(ex.UpdatedAt, expectedVersion) {
		return failConflict()
	}

	normalized, res := s.validateResults(ctx, ex.ExamTypeID, results)
	if res != nil {
		return res
	}

	now := time.Now().UTC()
	ex.Results = normalized
	ex.Status = ExamCompleted
	ex.ResultedAt = &now
	ex.PerformedBy = userID
	if err := s.exams.Update(ctx, ex); err != nil {
		return failPersistence(err)
	}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionExamResultsSaved, userID, map[string]interface{}{"finalized": true}); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// SendToValidation queues a completed exam for the pathologist and recomputes
// the owning sample's completion.
func (s *ExamService) SendToValidation(ctx context.Context, examID uuid.UUID, userID string) *Result {
	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}
	if ex.Status != ExamCompleted {
		return failTransition("only a completed exam can be sent to validation")
	}

	ex.Status = ExamReadyForValidation
	if err := s.exams.Update(ctx, ex); err != nil {
		return failPersistence(err)
	}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionExamSentToValidation, userID, nil); err != nil {
		return failPersistence(err)
	}
	if err := s.samples.SyncCompletion(ctx, ex.SampleID, userID, audit.ActionExamSentToValidation); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// Approve records the pathologist's sign-off.
func (s *ExamService) Approve(ctx context.Context, examID uuid.UUID, userID, comments string, expectedVersion *time.Time) *Result {
	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}
	if ex.Status != ExamReadyForValidation {
		return failTransition("only an exam ready for validation can be approved")
	}
	if versionConflict(ex.UpdatedAt, expectedVersion) {
		return failConflict()
	}

	now := time.Now().UTC()
	ex.Status = ExamApproved
	ex.ValidatedBy = userID
	ex.ValidatedAt = &now
	if err := s.exams.Update(ctx, ex); err != nil {
		return failPersistence(err)
	}
	var meta map[string]interface{}
	if comments != "" {
		meta = map[string]interface{}{"comments": comments}
	}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionExamApproved, userID, meta); err != nil {
		return failPersistence(err)
	}
	if err := s.samples.SyncCompletion(ctx, ex.SampleID, userID, audit.ActionExamApproved); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// Reject requires a reason before it touches the store at all.
func (s *ExamService) Reject(ctx context.Context, examID uuid.UUID, userID, reason, comments string, expectedVersion *time.Time) *Result {
	if strings.TrimSpace(reason) == "" {
		return failValidation(rejectReasonRequired)
	}

	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}
	if ex.Status != ExamReadyForValidation {
		return failTransition("only an exam ready for validation can be rejected")
	}
	if versionConflict(ex.UpdatedAt, expectedVersion) {
		return failConflict()
	}

	now := time.Now().UTC()
	ex.Status = ExamRejected
	ex.ValidatedBy = userID
	ex.ValidatedAt = &now
	if err := s.exams.Update(ctx, ex); err != nil {
		return failPersistence(err)
	}
	meta := map[string]interface{}{"reason": reason}
	if comments != "" {
		meta["comments"] = comments
	}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionExamRejected, userID, meta); err != nil {
		return failPersistence(err)
	}
	if err := s.samples.SyncCompletion(ctx, ex.SampleID, userID, audit.ActionExamRejected); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// CreateIncidence records a quality issue against an exam. A rework-type
// incidence on a ready_for_validation exam pulls it back to review; every
// incidence emits INCIDENCE_CREATED regardless of type.
func (s *ExamService) CreateIncidence(ctx context.Context, examID uuid.UUID, userID, incidenceType, description string) *Result {
	if strings.TrimSpace(incidenceType) == "" {
		return failValidation("incidence type is required")
	}
	if strings.TrimSpace(description) == "" {
		return failValidation("incidence description is required")
	}

	ex, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return failRead("exam", err)
	}

	if reworkTypes[strings.ToLower(strings.TrimSpace(incidenceType))] && ex.Status == ExamReadyForValidation {
		ex.Status = ExamReview
		if err := s.exams.Update(ctx, ex); err != nil {
			return failPersistence(err)
		}
	}

	meta := map[string]interface{}{"type": incidenceType, "description": description}
	if err := s.audit.Emit(ctx, EntityExam, ex.ID, audit.ActionIncidenceCreated, userID, meta); err != nil {
		return failPersistence(err)
	}
	return okResult(ex.UpdatedAt)
}

// validateResults resolves the exam type and normalizes the payload against
// its field schema. Runs before any mutation.
func (s *ExamService) validateResults(ctx context.Context, examTypeID uuid.UUID, results map[string]interface{}) (map[string]interface{}, *Result) {
	et, err := s.types.GetByID(ctx, examTypeID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, failNotFound("exam type")
	}
	if err != nil {
		return nil, failPersistence(err)
	}
	normalized, err := catalog.ValidateResults(et.FieldSchema, results)
	if err != nil {
		return nil, failValidation(err.Error())
	}
	return normalized, nil
}
