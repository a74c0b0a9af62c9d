package catalog

import (
	"time"

	"github.com/google/uuid"
)

// ExamType maps to the exam_type table. It is catalog data: read-only to the
// lab lifecycle services, maintained through the configuration endpoints.
type ExamType struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Code        string      `db:"code" json:"code"`
	Name        string      `db:"name" json:"name"`
	SampleType  string      `db:"sample_type" json:"sample_type"`
	FieldSchema FieldSchema `db:"field_schema" json:"field_schema"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// FieldSchema describes the result form for one exam type: sections of typed
// fields. Stored as JSONB.
type FieldSchema struct {
	Sections []Section `json:"sections"`
}

type Section struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// Field types for result capture.
const (
	FieldString  = "string"
	FieldNumeric = "numeric"
	FieldEnum    = "enum"
)

type Field struct {
	Key            string   `json:"key"`
	Label          string   `json:"label"`
	Type           string   `json:"type"`
	Unit           string   `json:"unit,omitempty"`
	ReferenceRange string   `json:"reference_range,omitempty"`
	Options        []string `json:"options,omitempty"`
}

// FieldByKey returns the field definition for a result key, searching all
// sections.
func (fs FieldSchema) FieldByKey(key string) (Field, bool) {
	for _, sec := range fs.Sections {
		for _, f := range sec.Fields {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Field{}, false
}
