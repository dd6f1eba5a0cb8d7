// Package dispatch delivers notification jobs concurrently with a bounded
// worker pool that lives for the duration of a single call.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
)

// Transport delivers one message. Errors are converted into failed outcomes.
type Transport interface {
	Deliver(ctx context.Context, recipient, subject, htmlBody string) error
}

// Engine runs deliveries through a Transport.
type Engine struct {
	transport Transport
}

// NewEngine creates a dispatch engine.
func NewEngine(transport Transport) *Engine {
	return &Engine{transport: transport}
}

// Report is the full result of a dispatch call.
// Outcomes[i] belongs to the i-th attempted job.
type Report struct {
	Tally    domain.DispatchTally
	Outcomes []domain.DispatchOutcome
}

// Dispatch delivers jobs and returns the success/failure tally.
// See Run for the exact semantics.
func (e *Engine) Dispatch(ctx context.Context, jobs []domain.NotificationJob, maxParallel int, testLimit *int) domain.DispatchTally {
	return e.Run(ctx, jobs, maxParallel, testLimit).Tally
}

// Run delivers jobs with at most maxParallel concurrent deliveries and blocks
// until every attempted job has an outcome. When testLimit is set and smaller
// than len(jobs), only the first *testLimit jobs are attempted. Failed
// deliveries are not retried.
func (e *Engine) Run(ctx context.Context, jobs []domain.NotificationJob, maxParallel int, testLimit *int) Report {
	if len(jobs) == 0 {
		return Report{}
	}

	if testLimit != nil && len(jobs) > *testLimit {
		limit := *testLimit
		if limit < 0 {
			limit = 0
		}
		logger.With(logger.Fields{"total": len(jobs)}).WithCount(limit).
			Info(ctx, "Test limit is active, processing only the first %d of %d jobs", limit, len(jobs))
		jobs = jobs[:limit]
		if len(jobs) == 0 {
			return Report{}
		}
	}

	workers := maxParallel
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	start := time.Now()
	logger.With(logger.Fields{"workers": workers}).WithCount(len(jobs)).
		Info(ctx, "Sending %d notifications in parallel", len(jobs))

	type indexed struct {
		pos int
		job domain.NotificationJob
	}
	type result struct {
		pos     int
		outcome domain.DispatchOutcome
	}

	jobsChan := make(chan indexed, len(jobs))
	resultsChan := make(chan result, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobsChan {
				resultsChan <- result{pos: item.pos, outcome: e.deliver(ctx, item.job)}
			}
		}()
	}

	report := Report{Outcomes: make([]domain.DispatchOutcome, len(jobs))}
	done := make(chan struct{})
	go func() {
		for r := range resultsChan {
			report.Outcomes[r.pos] = r.outcome
			report.Tally = report.Tally.Record(r.outcome)
		}
		close(done)
	}()

	for i, job := range jobs {
		jobsChan <- indexed{pos: i, job: job}
	}
	close(jobsChan)
	wg.Wait()

	close(resultsChan)
	<-done

	logger.With(logger.Fields{}).
		WithTally(report.Tally.Succeeded, report.Tally.Failed).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Notification sending finished: %d succeeded, %d failed", report.Tally.Succeeded, report.Tally.Failed)

	return report
}

// deliver sends one job. A panicking transport is reported as a failure so
// that sibling deliveries are unaffected.
func (e *Engine) deliver(ctx context.Context, job domain.NotificationJob) (outcome domain.DispatchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = e.failed(ctx, job, fmt.Errorf("transport panic: %v", r))
		}
	}()

	if err := e.transport.Deliver(ctx, job.Recipient, job.Subject, job.Body); err != nil {
		return e.failed(ctx, job, err)
	}
	return domain.Succeeded(job.Recipient)
}

func (e *Engine) failed(ctx context.Context, job domain.NotificationJob, err error) domain.DispatchOutcome {
	logger.FromContext(ctx).
		WithField(logger.FieldRecipient, job.Recipient).
		WithError(err).
		Error("Failed to send notification")
	return domain.Failed(job.Recipient, err.Error())
}
