package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo ExamTypeRepository
}

func NewService(repo ExamTypeRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, et *ExamType) error {
	et.Code = strings.TrimSpace(et.Code)
	if et.Code == "" {
		return fmt.Errorf("exam type code is required")
	}
	if et.Name == "" {
		return fmt.Errorf("exam type name is required")
	}
	if err := validateSchema(et.FieldSchema); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, et); err != nil {
		return fmt.Errorf("create exam type: %w", err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ExamType, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*ExamType, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*ExamType, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func validateSchema(fs FieldSchema) error {
	seen := map[string]bool{}
	for _, sec := range fs.Sections {
		for _, f := range sec.Fields {
			if f.Key == "" {
				return fmt.Errorf("section %q has a field with no key", sec.Key)
			}
			if seen[f.Key] {
				return fmt.Errorf("duplicate field key %q", f.Key)
			}
			seen[f.Key] = true
			switch f.Type {
			case FieldString, FieldNumeric:
			case FieldEnum:
				if len(f.Options) == 0 {
					return fmt.Errorf("enum field %q has no options", f.Key)
				}
			default:
				return fmt.Errorf("field %q has unsupported type %q", f.Key, f.Type)
			}
		}
	}
	return nil
}
