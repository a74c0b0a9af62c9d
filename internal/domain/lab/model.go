package lab

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrder is a clinical request for one or more tests on a patient. Never
// deleted; its status is derived from its samples after intake.
type WorkOrder struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	PatientID              uuid.UUID `db:"patient_id" json:"patient_id"`
	AccessionNumber        string    `db:"accession_number" json:"accession_number"`
	RequestedExamTypeCodes []string  `db:"requested_codes" json:"requested_exam_type_codes"`
	Priority               string    `db:"priority" json:"priority"`
	Status                 string    `db:"status" json:"status"`
	RequestedAt            time.Time `db:"requested_at" json:"requested_at"`
	ReferringDoctor        string    `db:"referring_doctor" json:"referring_doctor,omitempty"`
	Notes                  string    `db:"notes" json:"notes,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// Sample is a physical specimen tied to one work order and one exam type.
// Completion is derived from its exams, not set directly by callers.
type Sample struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	WorkOrderID uuid.UUID  `db:"work_order_id" json:"work_order_id"`
	ExamTypeID  uuid.UUID  `db:"exam_type_id" json:"exam_type_id"`
	Barcode     string     `db:"barcode" json:"barcode"`
	Status      string     `db:"status" json:"status"`
	CollectedAt *time.Time `db:"collected_at" json:"collected_at,omitempty"`
	ReceivedAt  *time.Time `db:"received_at" json:"received_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Exam is the unit of result capture and validation. UpdatedAt doubles as the
// optimistic-concurrency version token: the repository refreshes it on every
// write, and mutating operations compare it against the caller's expected
// value.
type Exam struct {
	ID          uuid.UUID              `db:"id" json:"id"`
	SampleID    uuid.UUID              `db:"sample_id" json:"sample_id"`
	ExamTypeID  uuid.UUID              `db:"exam_type_id" json:"exam_type_id"`
	Status      string                 `db:"status" json:"status"`
	Results     map[string]interface{} `db:"results" json:"results,omitempty"`
	StartedAt   *time.Time             `db:"started_at" json:"started_at,omitempty"`
	ResultedAt  *time.Time             `db:"resulted_at" json:"resulted_at,omitempty"`
	PerformedBy string                 `db:"performed_by" json:"performed_by,omitempty"`
	ValidatedBy string                 `db:"validated_by" json:"validated_by,omitempty"`
	ValidatedAt *time.Time             `db:"validated_at" json:"validated_at,omitempty"`
	Notes       string                 `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updated_at"`
}
