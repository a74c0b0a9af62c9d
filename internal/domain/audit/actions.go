package audit

// Canonical audit actions, one per lifecycle transition. The set is closed
// for transition logic: consumers must render unknown actions generically and
// never let them drive state changes.
const (
	ActionOrderCreated       = "ORDER_CREATED"
	ActionSpecimensGenerated = "SPECIMENS_GENERATED"
	ActionLabelPrinted       = "LABEL_PRINTED"
	ActionOrderReadyForLab   = "ORDER_READY_FOR_LAB"

	ActionSpecimenScanned    = "SPECIMEN_SCANNED"
	ActionSpecimenReceived   = "SPECIMEN_RECEIVED"
	ActionSpecimenInProgress = "SPECIMEN_IN_PROGRESS"
	ActionSpecimenCompleted  = "SPECIMEN_COMPLETED"
	ActionSpecimenRejected   = "SPECIMEN_REJECTED"

	ActionExamStarted          = "EXAM_STARTED"
	ActionExamResultsSaved     = "EXAM_RESULTS_SAVED"
	ActionExamSentToValidation = "EXAM_SENT_TO_VALIDATION"
	ActionExamApproved         = "EXAM_APPROVED"
	ActionExamRejected         = "EXAM_REJECTED"

	ActionIncidenceCreated = "INCIDENCE_CREATED"
)

var knownActions = map[string]bool{
	ActionOrderCreated:         true,
	ActionSpecimensGenerated:   true,
	ActionLabelPrinted:         true,
	ActionOrderReadyForLab:     true,
	ActionSpecimenScanned:      true,
	ActionSpecimenReceived:     true,
	ActionSpecimenInProgress:   true,
	ActionSpecimenCompleted:    true,
	ActionSpecimenRejected:     true,
	ActionExamStarted:          true,
	ActionExamResultsSaved:     true,
	ActionExamSentToValidation: true,
	ActionExamApproved:         true,
	ActionExamRejected:         true,
	ActionIncidenceCreated:     true,
}

// IsKnownAction reports whether the action belongs to the canonical set.
func IsKnownAction(action string) bool {
	return knownActions[action]
}
