package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownBatch is returned for batch names that are not registered.
var ErrUnknownBatch = errors.New("unknown batch")

// DefaultBatches groups the built-in automations the way they are scheduled.
func DefaultBatches() map[string][]string {
	return map[string][]string{
		"daily":  {IndividualOvertime, WorkAnniversary},
		"weekly": {ManagerSummary, CoordinatorSummary},
		"all":    {IndividualOvertime, ManagerSummary, CoordinatorSummary, WorkAnniversary},
	}
}

// Result is the outcome of one automation inside a batch.
type Result struct {
	Automation string               `json:"automation"`
	Tally      domain.DispatchTally `json:"tally"`
	Error      string               `json:"error,omitempty"`
}

// Report summarizes a batch run.
type Report struct {
	Batch      string               `json:"batch"`
	RunID      string               `json:"run_id"`
	Tally      domain.DispatchTally `json:"tally"`
	Results    []Result             `json:"results"`
	DurationMs int64                `json:"duration_ms"`
}

// BatchRunner runs named sequences of automations.
type BatchRunner struct {
	controller *Controller
	batches    map[string][]string
}

// NewBatchRunner creates a runner. Every automation named in batches must
// be registered on the controller.
func NewBatchRunner(controller *Controller, batches map[string][]string) (*BatchRunner, error) {
	for batch, names := range batches {
		for _, name := range names {
			if !controller.Has(name) {
				return nil, fmt.Errorf("batch %s: %w: %s", batch, ErrUnknownAutomation, name)
			}
		}
	}
	return &BatchRunner{controller: controller, batches: batches}, nil
}

// Batches returns the batch names in alphabetical order.
func (b *BatchRunner) Batches() []string {
	names := make([]string, 0, len(b.batches))
	for name := range b.batches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Automations returns the automations of a batch in run order.
func (b *BatchRunner) Automations(batch string) ([]string, bool) {
	names, ok := b.batches[batch]
	return names, ok
}

// Run executes every automation of the batch and sums their tallies.
// A failing or panicking automation is logged and recorded in the report;
// the remaining ones still run. With parallel set the automations run
// concurrently, otherwise one after another in batch order.
func (b *BatchRunner) Run(ctx context.Context, batch string, parallel bool) (Report, error) {
	names, ok := b.batches[batch]
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownBatch, batch)
	}

	report := Report{
		Batch:   batch,
		RunID:   uuid.New().String(),
		Results: make([]Result, len(names)),
	}
	ctx = logger.SetRunID(ctx, report.RunID)
	ctx = logger.WithField(ctx, "batch", batch)

	start := time.Now()
	logger.With(logger.Fields{"parallel": parallel}).WithCount(len(names)).
		Info(ctx, "Starting batch %s", batch)

	if parallel {
		group, gctx := errgroup.WithContext(ctx)
		for i, name := range names {
			group.Go(func() error {
				report.Results[i] = b.runOne(gctx, name)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for i, name := range names {
			report.Results[i] = b.runOne(ctx, name)
		}
	}

	for _, r := range report.Results {
		report.Tally = report.Tally.Add(r.Tally)
	}
	report.DurationMs = time.Since(start).Milliseconds()

	logger.With(logger.Fields{}).
		WithTally(report.Tally.Succeeded, report.Tally.Failed).
		WithDuration(report.DurationMs).
		Info(ctx, "Batch %s finished: %d emails sent, %d failed", batch, report.Tally.Succeeded, report.Tally.Failed)
	return report, nil
}

func (b *BatchRunner) runOne(ctx context.Context, name string) (res Result) {
	res.Automation = name
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).
				WithField(logger.FieldAutomation, name).
				WithField("panic", r).
				Error("Automation panicked, continuing with the rest of the batch")
			res.Tally = domain.DispatchTally{}
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	tally, err := b.controller.Run(ctx, name)
	if err != nil {
		logger.FromContext(ctx).WithError(err).
			WithField(logger.FieldAutomation, name).
			Error("Automation failed")
		res.Error = err.Error()
		return res
	}
	res.Tally = tally
	return res
}
