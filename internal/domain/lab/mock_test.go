package lab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openlis/lis/internal/domain/catalog"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*WorkOrder
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*WorkOrder)}
}

func (m *mockOrderRepo) Create(ctx context.Context, o *WorkOrder) error {
	o.ID = uuid.New()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("work order %s: %w", id, ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(ctx context.Context, status string, limit, offset int) ([]*WorkOrder, int, error) {
	var items []*WorkOrder
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			cp := *o
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (time.Time, error) {
	o, ok := m.orders[id]
	if !ok {
		return time.Time{}, fmt.Errorf("work order %s: %w", id, ErrNotFound)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return o.UpdatedAt, nil
}

type mockSampleRepo struct {
	samples map[uuid.UUID]*Sample
	failOn  string // barcode that triggers a create failure
}

func newMockSampleRepo() *mockSampleRepo {
	return &mockSampleRepo{samples: make(map[uuid.UUID]*Sample)}
}

func (m *mockSampleRepo) Create(ctx context.Context, s *Sample) error {
	if m.failOn != "" && s.Barcode == m.failOn {
		return fmt.Errorf("insert failed")
	}
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	m.samples[s.ID] = &cp
	return nil
}

func (m *mockSampleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.samples, id)
	return nil
}

func (m *mockSampleRepo) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	s, ok := m.samples[id]
	if !ok {
		return nil, fmt.Errorf("sample %s: %w", id, ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *mockSampleRepo) GetByBarcode(ctx context.Context, barcode string) (*Sample, error) {
	for _, s := range m.samples {
		if s.Barcode == barcode {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("sample with barcode %s: %w", barcode, ErrNotFound)
}

func (m *mockSampleRepo) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*Sample, error) {
	var items []*Sample
	for _, s := range m.samples {
		if s.WorkOrderID == workOrderID {
			cp := *s
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockSampleRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, receivedAt *time.Time) (time.Time, error) {
	s, ok := m.samples[id]
	if !ok {
		return time.Time{}, fmt.Errorf("sample %s: %w", id, ErrNotFound)
	}
	s.Status = status
	if receivedAt != nil {
		s.ReceivedAt = receivedAt
	}
	s.UpdatedAt = time.Now().UTC()
	return s.UpdatedAt, nil
}

type mockExamRepo struct {
	exams map[uuid.UUID]*Exam
	reads int
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{exams: make(map[uuid.UUID]*Exam)}
}

func (m *mockExamRepo) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	m.exams[e.ID] = &cp
	return nil
}

func (m *mockExamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.exams, id)
	return nil
}

func (m *mockExamRepo) GetByID(ctx context.Context, id uuid.UUID) (*Exam, error) {
	m.reads++
	e, ok := m.exams[id]
	if !ok {
		return nil, fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (m *mockExamRepo) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Exam, error) {
	var items []*Exam
	for _, e := range m.exams {
		if e.SampleID == sampleID {
			cp := *e
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockExamRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Exam, int, error) {
	var items []*Exam
	for _, e := range m.exams {
		if e.Status == status {
			cp := *e
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockExamRepo) Update(ctx context.Context, e *Exam) error {
	if _, ok := m.exams[e.ID]; !ok {
		return fmt.Errorf("exam %s: %w", e.ID, ErrNotFound)
	}
	// Advance the version token strictly, as the database clock would.
	e.UpdatedAt = time.Now().UTC()
	if !e.UpdatedAt.After(m.exams[e.ID].UpdatedAt) {
		e.UpdatedAt = m.exams[e.ID].UpdatedAt.Add(time.Microsecond)
	}
	cp := *e
	m.exams[e.ID] = &cp
	return nil
}

type mockTypeRepo struct {
	types map[uuid.UUID]*catalog.ExamType
}

func newMockTypeRepo() *mockTypeRepo {
	return &mockTypeRepo{types: make(map[uuid.UUID]*catalog.ExamType)}
}

func (m *mockTypeRepo) add(code string, fs catalog.FieldSchema) *catalog.ExamType {
	et := &catalog.ExamType{ID: uuid.New(), Code: code, Name: code, FieldSchema: fs}
	m.types[et.ID] = et
	return et
}

func (m *mockTypeRepo) Create(ctx context.Context, et *catalog.ExamType) error {
	et.ID = uuid.New()
	m.types[et.ID] = et
	return nil
}

func (m *mockTypeRepo) GetByID(ctx context.Context, id uuid.UUID) (*catalog.ExamType, error) {
	et, ok := m.types[id]
	if !ok {
		return nil, fmt.Errorf("exam type %s: %w", id, catalog.ErrNotFound)
	}
	return et, nil
}

func (m *mockTypeRepo) GetByCode(ctx context.Context, code string) (*catalog.ExamType, error) {
	for _, et := range m.types {
		if et.Code == code {
			return et, nil
		}
	}
	return nil, fmt.Errorf("exam type %s: %w", code, catalog.ErrNotFound)
}

func (m *mockTypeRepo) List(ctx context.Context, limit, offset int) ([]*catalog.ExamType, int, error) {
	var items []*catalog.ExamType
	for _, et := range m.types {
		items = append(items, et)
	}
	return items, len(items), nil
}

type recordedEvent struct {
	EntityType string
	EntityID   uuid.UUID
	Action     string
	UserID     string
	Metadata   map[string]interface{}
}

// recordingAudit captures emitted events in order.
type recordingAudit struct {
	events  []recordedEvent
	failAll bool
}

func (r *recordingAudit) Emit(ctx context.Context, entityType string, entityID uuid.UUID, action, userID string, metadata map[string]interface{}) error {
	if r.failAll {
		return fmt.Errorf("audit sink unavailable")
	}
	r.events = append(r.events, recordedEvent{entityType, entityID, action, userID, metadata})
	return nil
}

func (r *recordingAudit) countAction(action string) int {
	n := 0
	for _, e := range r.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

// fixture wires the three services over fresh mocks.
type fixture struct {
	orders   *mockOrderRepo
	samples  *mockSampleRepo
	exams    *mockExamRepo
	types    *mockTypeRepo
	audit    *recordingAudit
	orderSvc *OrderService
	smpSvc   *SampleService
	examSvc  *ExamService
}

func newFixture() *fixture {
	f := &fixture{
		orders:  newMockOrderRepo(),
		samples: newMockSampleRepo(),
		exams:   newMockExamRepo(),
		types:   newMockTypeRepo(),
		audit:   &recordingAudit{},
	}
	f.smpSvc = NewSampleService(f.samples, f.exams, f.orders, f.audit)
	f.examSvc = NewExamService(f.exams, f.types, f.smpSvc, f.audit)
	f.orderSvc = NewOrderService(f.orders, f.samples, f.exams, f.types, f.audit)
	return f
}

// seedExam creates an order, a sample, and one exam in the given status, with
// a glucose/flag field schema.
func (f *fixture) seedExam(status string) *Exam {
	et := f.types.add("GLU", catalog.FieldSchema{Sections: []catalog.Section{{
		Key: "chemistry", Label: "Chemistry",
		Fields: []catalog.Field{
			{Key: "glucose", Label: "Glucose", Type: catalog.FieldNumeric, Unit: "mg/dL"},
			{Key: "flag", Label: "Flag", Type: catalog.FieldEnum, Options: []string{"normal", "high", "low"}},
			{Key: "comment", Label: "Comment", Type: catalog.FieldString},
		},
	}}})

	o := &WorkOrder{PatientID: uuid.New(), AccessionNumber: "ACC-1000",
		RequestedExamTypeCodes: []string{"GLU"}, Priority: PriorityRoutine, Status: OrderInProgress}
	_ = f.orders.Create(context.Background(), o)

	sm := &Sample{WorkOrderID: o.ID, ExamTypeID: et.ID, Barcode: "SMP-ACC-1000-01", Status: SampleInProgress}
	_ = f.samples.Create(context.Background(), sm)

	ex := &Exam{SampleID: sm.ID, ExamTypeID: et.ID, Status: status}
	_ = f.exams.Create(context.Background(), ex)
	return ex
}
