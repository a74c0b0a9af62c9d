package lab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlis/lis/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// notFoundIfNoRows translates a missing row into the package sentinel so
// callers never see pgx internals.
func notFoundIfNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- work orders ---

type workOrderRepoPG struct{ pool *pgxpool.Pool }

func NewWorkOrderRepoPG(pool *pgxpool.Pool) WorkOrderRepository {
	return &workOrderRepoPG{pool: pool}
}

const orderCols = `id, patient_id, accession_number, requested_codes, priority, status,
	requested_at, referring_doctor, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*WorkOrder, error) {
	var o WorkOrder
	err := row.Scan(&o.ID, &o.PatientID, &o.AccessionNumber, &o.RequestedExamTypeCodes,
		&o.Priority, &o.Status, &o.RequestedAt, &o.ReferringDoctor, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *workOrderRepoPG) Create(ctx context.Context, o *WorkOrder) error {
	o.ID = uuid.New()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO work_order (id, patient_id, accession_number, requested_codes, priority,
			status, requested_at, referring_doctor, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.PatientID, o.AccessionNumber, o.RequestedExamTypeCodes, o.Priority,
		o.Status, o.RequestedAt, o.ReferringDoctor, o.Notes, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r *workOrderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	o, err := scanOrder(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+orderCols+` FROM work_order WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return o, nil
}

func (r *workOrderRepoPG) List(ctx context.Context, status string, limit, offset int) ([]*WorkOrder, int, error) {
	where := ``
	args := []interface{}{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM work_order`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	listSQL := fmt.Sprintf(`SELECT `+orderCols+` FROM work_order%s ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`,
		where, n+1, n+2)
	rows, err := conn(ctx, r.pool).Query(ctx, listSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*WorkOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, nil
}

func (r *workOrderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (time.Time, error) {
	var updatedAt time.Time
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE work_order SET status = $2, updated_at = now() WHERE id = $1 RETURNING updated_at`,
		id, status).Scan(&updatedAt)
	return updatedAt, err
}

// --- samples ---

type sampleRepoPG struct{ pool *pgxpool.Pool }

func NewSampleRepoPG(pool *pgxpool.Pool) SampleRepository {
	return &sampleRepoPG{pool: pool}
}

const sampleCols = `id, work_order_id, exam_type_id, barcode, status, collected_at,
	received_at, created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.WorkOrderID, &s.ExamTypeID, &s.Barcode, &s.Status,
		&s.CollectedAt, &s.ReceivedAt, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sampleRepoPG) Create(ctx context.Context, s *Sample) error {
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO sample (id, work_order_id, exam_type_id, barcode, status, collected_at,
			received_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.WorkOrderID, s.ExamTypeID, s.Barcode, s.Status, s.CollectedAt,
		s.ReceivedAt, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *sampleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM sample WHERE id = $1`, id)
	return err
}

func (r *sampleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	s, err := scanSample(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return s, nil
}

func (r *sampleRepoPG) GetByBarcode(ctx context.Context, barcode string) (*Sample, error) {
	s, err := scanSample(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE barcode = $1`, barcode))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return s, nil
}

func (r *sampleRepoPG) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*Sample, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE work_order_id = $1 ORDER BY barcode`, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, nil
}

func (r *sampleRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, receivedAt *time.Time) (time.Time, error) {
	var updatedAt time.Time
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE sample SET status = $2, received_at = COALESCE($3, received_at), updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		id, status, receivedAt).Scan(&updatedAt)
	return updatedAt, err
}

// --- exams ---

type examRepoPG struct{ pool *pgxpool.Pool }

func NewExamRepoPG(pool *pgxpool.Pool) ExamRepository {
	return &examRepoPG{pool: pool}
}

const examCols = `id, sample_id, exam_type_id, status, results, started_at, resulted_at,
	performed_by, validated_by, validated_at, notes, created_at, updated_at`

func scanExam(row pgx.Row) (*Exam, error) {
	var e Exam
	err := row.Scan(&e.ID, &e.SampleID, &e.ExamTypeID, &e.Status, &e.Results,
		&e.StartedAt, &e.ResultedAt, &e.PerformedBy, &e.ValidatedBy, &e.ValidatedAt,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *examRepoPG) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO exam (id, sample_id, exam_type_id, status, results, started_at,
			resulted_at, performed_by, validated_by, validated_at, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.SampleID, e.ExamTypeID, e.Status, e.Results, e.StartedAt,
		e.ResultedAt, e.PerformedBy, e.ValidatedBy, e.ValidatedAt, e.Notes,
		e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *examRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM exam WHERE id = $1`, id)
	return err
}

func (r *examRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Exam, error) {
	e, err := scanExam(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+examCols+` FROM exam WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return e, nil
}

func (r *examRepoPG) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Exam, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+examCols+` FROM exam WHERE sample_id = $1 ORDER BY created_at`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}

func (r *examRepoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Exam, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM exam WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+examCols+` FROM exam WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

// Update rewrites all mutable fields and refreshes the version token on the
// passed struct.
func (r *examRepoPG) Update(ctx context.Context, e *Exam) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE exam SET status = $2, results = $3, started_at = $4, resulted_at = $5,
			performed_by = $6, validated_by = $7, validated_at = $8, notes = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.Status, e.Results, e.StartedAt, e.ResultedAt,
		e.PerformedBy, e.ValidatedBy, e.ValidatedAt, e.Notes).Scan(&e.UpdatedAt)
}
