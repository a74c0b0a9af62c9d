package audit

import (
	"context"

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

type eventRepoPG struct{ pool *pgxpool.Pool }

func NewEventRepoPG(pool *pgxpool.Pool) EventRepository {
	return &eventRepoPG{pool: pool}
}

func (r *eventRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const eventCols = `id, entity_type, entity_id, action, user_id, recorded, metadata`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID, &e.Recorded, &e.Metadata)
	return &e, err
}

func (r *eventRepoPG) Create(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_event (id, entity_type, entity_id, action, user_id, recorded, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.EntityType, e.EntityID, e.Action, e.UserID, e.Recorded, e.Metadata)
	return err
}

func (r *eventRepoPG) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_event WHERE entity_type = $1 AND entity_id = $2`,
		entityType, entityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+eventCols+` FROM audit_event WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY recorded DESC LIMIT $3 OFFSET $4`,
		entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (r *eventRepoPG) ListByAction(ctx context.Context, action string, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_event WHERE action = $1`, action).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+eventCols+` FROM audit_event WHERE action = $1
		 ORDER BY recorded DESC LIMIT $2 OFFSET $3`,
		action, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
