package domain

import "time"

// Status is the employment status of a workforce record.
// Values come through from the dataset as-is.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Record is one row of the workforce dataset.
type Record struct {
	EmployeeID       string
	Name             string
	Email            string
	HoursWorked      float64
	Status           Status
	LastUpdate       time.Time
	AdmissionDate    *time.Time // nil when the source value was missing or unparseable
	Team             string
	ManagerName      string
	ManagerEmail     string
	CoordinatorName  string
	CoordinatorEmail string
	Area             string
}

// IsActive reports whether the record has the Active status.
func (r Record) IsActive() bool {
	return r.Status == StatusActive
}

// Subject is a Record that satisfied a rule for a reference date.
type Subject struct {
	Record

	// YearsCompleted is set by the anniversary rule only.
	YearsCompleted int
}

// EvalOutcome distinguishes why an evaluation produced no subjects.
type EvalOutcome int

const (
	// EvalNoData means nothing in the dataset was eligible for the reference date (stale data).
	EvalNoData EvalOutcome = iota
	// EvalNoMatches means eligible data exists but no record satisfied the predicate.
	EvalNoMatches
	// EvalMatches means at least one subject was found.
	EvalMatches
)

func (o EvalOutcome) String() string {
	switch o {
	case EvalNoData:
		return "no_data"
	case EvalNoMatches:
		return "no_matches"
	case EvalMatches:
		return "matches"
	default:
		return "unknown"
	}
}

// EvalResult is the tagged result of a rule evaluation.
type EvalResult struct {
	Outcome  EvalOutcome
	Subjects []Subject
}

// Empty reports whether there is nothing to act on.
func (r EvalResult) Empty() bool {
	return r.Outcome != EvalMatches || len(r.Subjects) == 0
}
