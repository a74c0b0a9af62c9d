package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound marks a lookup whose id or code matched no exam type.
var ErrNotFound = errors.New("not found")

type ExamTypeRepository interface {
	Create(ctx context.Context, et *ExamType) error
	GetByID(ctx context.Context, id uuid.UUID) (*ExamType, error)
	GetByCode(ctx context.Context, code string) (*ExamType, error)
	List(ctx context.Context, limit, offset int) ([]*ExamType, int, error)
}
