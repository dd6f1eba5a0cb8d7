// Package rules holds the time-bound predicates that turn a workforce dataset
// into the subjects of a notification run. Evaluation has no side effects
// beyond logging.
package rules

import (
	"context"
	"time"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
)

const displayDate = "02/01/2006"

// Evaluator applies the overtime and anniversary rules.
type Evaluator struct {
	hoursLimit float64
}

// NewEvaluator creates an evaluator with the configured overtime threshold.
func NewEvaluator(hoursLimit float64) *Evaluator {
	return &Evaluator{hoursLimit: hoursLimit}
}

// HoursLimit returns the overtime threshold in hours.
func (e *Evaluator) HoursLimit() float64 {
	return e.hoursLimit
}

// Overtime selects Active records updated on the reference date whose
// hours exceed the threshold.
//
// EvalNoData is returned when no Active record was updated on the reference
// date, which usually means the dataset has not been refreshed yet.
func (e *Evaluator) Overtime(ctx context.Context, records []domain.Record, ref time.Time) domain.EvalResult {
	log := logger.FromContext(ctx).WithField("reference_date", ref.Format(displayDate))
	log.Info("Applying overtime rule")

	var today []domain.Record
	for _, r := range records {
		if r.IsActive() && sameDay(r.LastUpdate, ref) {
			today = append(today, r)
		}
	}

	if len(today) == 0 {
		log.Warn("No records found for the reference date, data might be outdated")
		return domain.EvalResult{Outcome: domain.EvalNoData}
	}

	log.WithField(logger.FieldCount, len(today)).Info("Active records found for the reference date, checking overtime")

	var subjects []domain.Subject
	for _, r := range today {
		if r.HoursWorked > e.hoursLimit {
			subjects = append(subjects, domain.Subject{Record: r})
		}
	}

	if len(subjects) == 0 {
		log.Info("Data is up to date, nobody exceeded the hour limit")
		return domain.EvalResult{Outcome: domain.EvalNoMatches}
	}

	log.WithField(logger.FieldCount, len(subjects)).Info("Contributors exceeded the hour limit")
	return domain.EvalResult{Outcome: domain.EvalMatches, Subjects: subjects}
}

// Anniversary selects Active records admitted on the reference month and day
// of an earlier year, and derives the completed years.
//
// Records without an admission date are skipped with a data-quality warning.
func (e *Evaluator) Anniversary(ctx context.Context, records []domain.Record, ref time.Time) domain.EvalResult {
	log := logger.FromContext(ctx).WithField("reference_date", ref.Format(displayDate))
	log.Info("Applying work anniversary rule")

	invalid := 0
	var subjects []domain.Subject
	for _, r := range records {
		if r.AdmissionDate == nil {
			invalid++
			log.WithField("employee_id", r.EmployeeID).Warn("Invalid admission date, record ignored")
			continue
		}
		if !r.IsActive() {
			continue
		}

		adm := *r.AdmissionDate
		if adm.Month() == ref.Month() && adm.Day() == ref.Day() && adm.Year() < ref.Year() {
			subjects = append(subjects, domain.Subject{
				Record:         r,
				YearsCompleted: ref.Year() - adm.Year(),
			})
		}
	}

	if invalid > 0 {
		log.WithField(logger.FieldCount, invalid).Warn("Rows with invalid admission dates were ignored")
	}

	if len(records) == invalid {
		return domain.EvalResult{Outcome: domain.EvalNoData}
	}

	if len(subjects) == 0 {
		log.Info("No work anniversaries found for the reference date")
		return domain.EvalResult{Outcome: domain.EvalNoMatches}
	}

	log.WithField(logger.FieldCount, len(subjects)).Info("Employees celebrating their work anniversary")
	return domain.EvalResult{Outcome: domain.EvalMatches, Subjects: subjects}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
