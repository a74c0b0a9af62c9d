package lab

import (
	"context"
	"testing"

	"github.com/openlis/lis/internal/domain/audit"
)

func (f *fixture) seedSample(status string) *Sample {
	ex := f.seedExam(ExamPending)
	sm, _ := f.samples.GetByID(context.Background(), ex.SampleID)
	sm.Status = status
	f.samples.samples[sm.ID].Status = status
	return sm
}

func TestSampleLinearTransitions(t *testing.T) {
	cases := []struct {
		name   string
		from   string
		invoke func(f *fixture, sm *Sample) *Result
		to     string
		action string
	}{
		{"receive", SampleReadyForLab, func(f *fixture, sm *Sample) *Result {
			return f.smpSvc.MarkReceived(context.Background(), sm.ID, "tech-1")
		}, SampleReceived, audit.ActionSpecimenReceived},
		{"start", SampleReceived, func(f *fixture, sm *Sample) *Result {
			return f.smpSvc.MarkInProgress(context.Background(), sm.ID, "tech-1")
		}, SampleInProgress, audit.ActionSpecimenInProgress},
		{"complete", SampleInProgress, func(f *fixture, sm *Sample) *Result {
			return f.smpSvc.MarkCompleted(context.Background(), sm.ID, "tech-1")
		}, SampleCompleted, audit.ActionSpecimenCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			sm := f.seedSample(tc.from)
			r := tc.invoke(f, sm)
			if !r.OK {
				t.Fatalf("%s from %s failed: %s", tc.name, tc.from, r.Error)
			}
			got, _ := f.samples.GetByID(context.Background(), sm.ID)
			if got.Status != tc.to {
				t.Fatalf("status = %s, want %s", got.Status, tc.to)
			}
			if n := f.audit.countAction(tc.action); n != 1 {
				t.Fatalf("%s emitted %d times, want 1", tc.action, n)
			}
		})

		t.Run(tc.name+"/wrong status", func(t *testing.T) {
			f := newFixture()
			sm := f.seedSample(SamplePending)
			r := tc.invoke(f, sm)
			if r.OK {
				t.Fatalf("%s from pending succeeded", tc.name)
			}
			if r.Error == "" {
				t.Fatalf("%s returned empty error", tc.name)
			}
		})
	}
}

func TestMarkReceivedStampsReceivedAt(t *testing.T) {
	f := newFixture()
	sm := f.seedSample(SampleReadyForLab)
	if r := f.smpSvc.MarkReceived(context.Background(), sm.ID, "tech-1"); !r.OK {
		t.Fatalf("markReceived: %s", r.Error)
	}
	got, _ := f.samples.GetByID(context.Background(), sm.ID)
	if got.ReceivedAt == nil {
		t.Fatal("receivedAt not stamped")
	}
}

func TestMarkRejectedFromAnyStatus(t *testing.T) {
	for _, status := range []string{SamplePending, SampleLabeled, SampleReadyForLab,
		SampleReceived, SampleInProgress, SampleCompleted} {
		t.Run(status, func(t *testing.T) {
			f := newFixture()
			sm := f.seedSample(status)
			r := f.smpSvc.MarkRejected(context.Background(), sm.ID, "tech-1", "clotted")
			if !r.OK {
				t.Fatalf("markRejected from %s failed: %s", status, r.Error)
			}
			got, _ := f.samples.GetByID(context.Background(), sm.ID)
			if got.Status != SampleRejected {
				t.Fatalf("status = %s, want %s", got.Status, SampleRejected)
			}
			if n := f.audit.countAction(audit.ActionSpecimenRejected); n != 1 {
				t.Fatalf("SPECIMEN_REJECTED emitted %d times, want 1", n)
			}
		})
	}
}

func TestReprintLabelAuditOnly(t *testing.T) {
	f := newFixture()
	sm := f.seedSample(SampleLabeled)
	r := f.smpSvc.ReprintLabel(context.Background(), sm.ID, "tech-1")
	if !r.OK {
		t.Fatalf("reprintLabel failed: %s", r.Error)
	}
	got, _ := f.samples.GetByID(context.Background(), sm.ID)
	if got.Status != SampleLabeled {
		t.Fatalf("reprint changed status to %s", got.Status)
	}
	if n := f.audit.countAction(audit.ActionLabelPrinted); n != 1 {
		t.Fatalf("LABEL_PRINTED emitted %d times, want 1", n)
	}
}

func TestScanByBarcode(t *testing.T) {
	f := newFixture()
	sm := f.seedSample(SampleReadyForLab)

	got, r := f.smpSvc.ScanByBarcode(context.Background(), sm.Barcode, "tech-1")
	if !r.OK {
		t.Fatalf("scan failed: %s", r.Error)
	}
	if got.ID != sm.ID {
		t.Fatalf("scan resolved %s, want %s", got.ID, sm.ID)
	}
	if n := f.audit.countAction(audit.ActionSpecimenScanned); n != 1 {
		t.Fatalf("SPECIMEN_SCANNED emitted %d times, want 1", n)
	}

	if _, r := f.smpSvc.ScanByBarcode(context.Background(), "SMP-NOPE-99", "tech-1"); r.OK {
		t.Fatal("scan of unknown barcode succeeded")
	}
}

func TestSyncCompletionViaApproveAndReject(t *testing.T) {
	decisions := []struct {
		name   string
		decide func(f *fixture, ex *Exam) *Result
	}{
		{"approve", func(f *fixture, ex *Exam) *Result {
			return f.examSvc.Approve(context.Background(), ex.ID, "path-1", "", nil)
		}},
		{"reject", func(f *fixture, ex *Exam) *Result {
			return f.examSvc.Reject(context.Background(), ex.ID, "path-1", "contaminated", "", nil)
		}},
	}
	for _, d := range decisions {
		t.Run(d.name, func(t *testing.T) {
			f := newFixture()
			ex := f.seedExam(ExamReadyForValidation)
			// Sample still on the bench; the decision alone completes it.
			if r := d.decide(f, ex); !r.OK {
				t.Fatalf("%s failed: %s", d.name, r.Error)
			}
			sm, _ := f.samples.GetByID(context.Background(), ex.SampleID)
			if sm.Status != SampleCompleted {
				t.Fatalf("sample status = %s, want %s", sm.Status, SampleCompleted)
			}
			if n := f.audit.countAction(audit.ActionSpecimenCompleted); n != 1 {
				t.Fatalf("SPECIMEN_COMPLETED emitted %d times, want 1", n)
			}
		})
	}
}

func TestSyncCompletionWaitsForAllExams(t *testing.T) {
	f := newFixture()
	ex := f.seedExam(ExamReadyForValidation)

	// Second exam on the same sample still pending.
	second := &Exam{SampleID: ex.SampleID, ExamTypeID: ex.ExamTypeID, Status: ExamPending}
	_ = f.exams.Create(context.Background(), second)

	if r := f.examSvc.Approve(context.Background(), ex.ID, "path-1", "", nil); !r.OK {
		t.Fatalf("approve failed: %s", r.Error)
	}
	sm, _ := f.samples.GetByID(context.Background(), ex.SampleID)
	if sm.Status == SampleCompleted {
		t.Fatal("sample completed with a pending exam outstanding")
	}
	if n := f.audit.countAction(audit.ActionSpecimenCompleted); n != 0 {
		t.Fatalf("SPECIMEN_COMPLETED emitted %d times, want 0", n)
	}
}

func TestOrderCompletionSync(t *testing.T) {
	f := newFixture()
	ex := f.seedExam(ExamReadyForValidation)

	if r := f.examSvc.Approve(context.Background(), ex.ID, "path-1", "", nil); !r.OK {
		t.Fatalf("approve failed: %s", r.Error)
	}
	sm, _ := f.samples.GetByID(context.Background(), ex.SampleID)
	o, _ := f.orders.GetByID(context.Background(), sm.WorkOrderID)
	if o.Status != OrderCompleted {
		t.Fatalf("order status = %s, want %s", o.Status, OrderCompleted)
	}
}
