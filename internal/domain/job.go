package domain

// NotificationJob is one rendered message for one recipient.
// Jobs are built once and consumed exactly once by the dispatch engine.
type NotificationJob struct {
	Recipient string
	Subject   string
	Body      string
}

// OutcomeStatus is the delivery result of a single job.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// DispatchOutcome records what happened to one attempted job.
// Reason is only set for failed deliveries.
type DispatchOutcome struct {
	Recipient string
	Status    OutcomeStatus
	Reason    string
}

// Succeeded builds a successful outcome.
func Succeeded(recipient string) DispatchOutcome {
	return DispatchOutcome{Recipient: recipient, Status: OutcomeSuccess}
}

// Failed builds a failed outcome carrying the cause.
func Failed(recipient, reason string) DispatchOutcome {
	return DispatchOutcome{Recipient: recipient, Status: OutcomeFailed, Reason: reason}
}

// DispatchTally is the aggregate result of a dispatch call.
type DispatchTally struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Record folds one outcome into the tally.
func (t DispatchTally) Record(o DispatchOutcome) DispatchTally {
	if o.Status == OutcomeSuccess {
		t.Succeeded++
	} else {
		t.Failed++
	}
	return t
}

// Add sums two tallies.
func (t DispatchTally) Add(other DispatchTally) DispatchTally {
	return DispatchTally{
		Succeeded: t.Succeeded + other.Succeeded,
		Failed:    t.Failed + other.Failed,
	}
}

// Attempted is the number of jobs that produced an outcome.
func (t DispatchTally) Attempted() int {
	return t.Succeeded + t.Failed
}
