package catalog

import (
	"context"
	"errors"
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

type examTypeRepoPG struct{ pool *pgxpool.Pool }

func NewExamTypeRepoPG(pool *pgxpool.Pool) ExamTypeRepository {
	return &examTypeRepoPG{pool: pool}
}

func (r *examTypeRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const examTypeCols = `id, code, name, sample_type, field_schema, created_at, updated_at`

func scanExamType(row pgx.Row) (*ExamType, error) {
	var et ExamType
	err := row.Scan(&et.ID, &et.Code, &et.Name, &et.SampleType, &et.FieldSchema, &et.CreatedAt, &et.UpdatedAt)
	return &et, err
}

func (r *examTypeRepoPG) Create(ctx context.Context, et *ExamType) error {
	et.ID = uuid.New()
	now := time.Now().UTC()
	et.CreatedAt = now
	et.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO exam_type (id, code, name, sample_type, field_schema, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		et.ID, et.Code, et.Name, et.SampleType, et.FieldSchema, et.CreatedAt, et.UpdatedAt)
	return err
}

func (r *examTypeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ExamType, error) {
	et, err := scanExamType(r.conn(ctx).QueryRow(ctx,
		`SELECT `+examTypeCols+` FROM exam_type WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return et, nil
}

func (r *examTypeRepoPG) GetByCode(ctx context.Context, code string) (*ExamType, error) {
	et, err := scanExamType(r.conn(ctx).QueryRow(ctx,
		`SELECT `+examTypeCols+` FROM exam_type WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return et, nil
}

func (r *examTypeRepoPG) List(ctx context.Context, limit, offset int) ([]*ExamType, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exam_type`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+examTypeCols+` FROM exam_type ORDER BY code LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ExamType
	for rows.Next() {
		et, err := scanExamType(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, et)
	}
	return items, total, nil
}
