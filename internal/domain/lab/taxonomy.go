package lab

// Work order statuses.
const (
	OrderPending    = "pending"
	OrderInProgress = "inprogress"
	OrderCompleted  = "completed"
)

// Sample statuses. Forward-only except Rejected, which is reachable from any
// state.
const (
	SamplePending     = "pending"
	SampleLabeled     = "labeled"
	SampleReadyForLab = "ready_for_lab"
	SampleReceived    = "received"
	SampleInProgress  = "inprogress"
	SampleCompleted   = "completed"
	SampleRejected    = "rejected"
)

// Exam statuses. Forward-only except ready_for_validation → review, driven by
// a rework incidence.
const (
	ExamPending            = "pending"
	ExamInProgress         = "inprogress"
	ExamCompleted          = "completed"
	ExamReview             = "review"
	ExamReadyForValidation = "ready_for_validation"
	ExamApproved           = "approved"
	ExamRejected           = "rejected"
)

var orderStatuses = map[string]bool{
	OrderPending:    true,
	OrderInProgress: true,
	OrderCompleted:  true,
}

var sampleStatuses = map[string]bool{
	SamplePending:     true,
	SampleLabeled:     true,
	SampleReadyForLab: true,
	SampleReceived:    true,
	SampleInProgress:  true,
	SampleCompleted:   true,
	SampleRejected:    true,
}

var examStatuses = map[string]bool{
	ExamPending:            true,
	ExamInProgress:         true,
	ExamCompleted:          true,
	ExamReview:             true,
	ExamReadyForValidation: true,
	ExamApproved:           true,
	ExamRejected:           true,
}

func IsOrderStatus(s string) bool  { return orderStatuses[s] }
func IsSampleStatus(s string) bool { return sampleStatuses[s] }
func IsExamStatus(s string) bool   { return examStatuses[s] }

// Work order priorities.
const (
	PriorityRoutine = "routine"
	PriorityUrgent  = "urgent"
	PriorityStat    = "stat"
)

var priorities = map[string]bool{
	PriorityRoutine: true,
	PriorityUrgent:  true,
	PriorityStat:    true,
}

func IsPriority(p string) bool { return priorities[p] }

// Entity type labels used on audit events.
const (
	EntityWorkOrder = "work_order"
	EntitySample    = "sample"
	EntityExam      = "exam"
)

// examSettled holds the exam statuses that count toward sample completion:
// the exam has left the bench, even if validation has not finished yet.
var examSettled = map[string]bool{
	ExamReadyForValidation: true,
	ExamApproved:           true,
	ExamRejected:           true,
}
