// Package automation wires the rule evaluator, job builder, result mirror
// and dispatch engine into named automations, and runs them alone or in
// batches.
package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/hrnotify/internal/dispatch"
	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/mirror"
	"github.com/timmy/hrnotify/internal/notify"
	"github.com/timmy/hrnotify/internal/rules"
	"github.com/timmy/hrnotify/internal/source"
)

// ErrUnknownAutomation is returned for names that are not registered.
var ErrUnknownAutomation = errors.New("unknown automation")

// Deps are the collaborators shared by every automation.
type Deps struct {
	Loader    source.Loader
	Evaluator *rules.Evaluator
	Builder   *notify.Builder
	Engine    *dispatch.Engine
	Mirror    *mirror.Mirror
}

// Settings are the run options resolved from configuration.
type Settings struct {
	MaxParallel      int
	TestLimit        *int
	SpreadsheetID    string
	DashboardURL     string
	OutcomeWorksheet string // empty disables delivery logging

	// ReferenceDate maps the current time to the rule evaluation date.
	ReferenceDate func(now time.Time) time.Time
	// Now defaults to time.Now.
	Now func() time.Time
}

// Info describes a registered automation.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// run carries the per-invocation values every step needs.
type run struct {
	name string
	ref  time.Time
	now  time.Time
}

type logTable struct {
	worksheet string
	mode      mirror.Mode
	table     mirror.Table
}

// definition is the automation-specific part of a run.
type definition struct {
	Info
	evaluate func(ctx context.Context, e *rules.Evaluator, records []domain.Record, ref time.Time) domain.EvalResult
	build    func(ctx context.Context, c *Controller, r run, subjects []domain.Subject) []domain.NotificationJob
	logs     func(c *Controller, r run, subjects []domain.Subject) []logTable
}

// Controller runs automations by name.
type Controller struct {
	deps        Deps
	settings    Settings
	definitions map[string]definition
	order       []string
}

// NewController creates a controller with the built-in automations registered.
func NewController(deps Deps, settings Settings) *Controller {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.ReferenceDate == nil {
		settings.ReferenceDate = func(now time.Time) time.Time {
			return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	c := &Controller{
		deps:        deps,
		settings:    settings,
		definitions: make(map[string]definition),
	}
	for _, def := range builtins() {
		c.definitions[def.Name] = def
		c.order = append(c.order, def.Name)
	}
	return c
}

// Automations lists the registered automations in registration order.
func (c *Controller) Automations() []Info {
	out := make([]Info, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.definitions[name].Info)
	}
	return out
}

// Has reports whether name is registered.
func (c *Controller) Has(name string) bool {
	_, ok := c.definitions[name]
	return ok
}

// Run executes one automation: load, evaluate, build, mirror, dispatch.
// Data problems short-circuit with a zero tally; the only error is an
// unknown name.
func (c *Controller) Run(ctx context.Context, name string) (domain.DispatchTally, error) {
	def, ok := c.definitions[name]
	if !ok {
		return domain.DispatchTally{}, fmt.Errorf("%w: %s", ErrUnknownAutomation, name)
	}

	if logger.GetRunID(ctx) == "" {
		ctx = logger.SetRunID(ctx, uuid.New().String())
	}
	ctx = logger.SetAutomation(ctx, name)
	log := logger.FromContext(ctx)

	now := c.settings.Now()
	r := run{name: name, ref: c.settings.ReferenceDate(now), now: now}
	start := time.Now()
	log.Infof("Starting automation for reference date %s", r.ref.Format(displayDate))

	records, err := c.deps.Loader.Load(ctx)
	if err != nil {
		log.WithError(err).Error("Could not load dataset, automation stopped")
		return domain.DispatchTally{}, nil
	}

	result := def.evaluate(ctx, c.deps.Evaluator, records, r.ref)
	if result.Empty() {
		log.WithField(logger.FieldStatus, result.Outcome.String()).Info("Nothing to notify")
		return domain.DispatchTally{}, nil
	}

	jobs := def.build(ctx, c, r, result.Subjects)

	if def.logs != nil {
		for _, lt := range def.logs(c, r, result.Subjects) {
			c.mirror(ctx, lt)
		}
	}

	if len(jobs) == 0 {
		log.Warn("No notification could be built")
		return domain.DispatchTally{}, nil
	}

	report := c.deps.Engine.Run(ctx, jobs, c.settings.MaxParallel, c.settings.TestLimit)
	c.logOutcomes(ctx, r, report)

	logger.With(logger.Fields{}).
		WithTally(report.Tally.Succeeded, report.Tally.Failed).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Automation finished")
	return report.Tally, nil
}

func (c *Controller) mirror(ctx context.Context, lt logTable) bool {
	dest := mirror.Destination{SpreadsheetID: c.settings.SpreadsheetID, Worksheet: lt.worksheet}
	return c.deps.Mirror.Mirror(ctx, lt.table, dest, lt.mode)
}

// logOutcomes appends one row per attempted delivery to the outcome worksheet.
func (c *Controller) logOutcomes(ctx context.Context, r run, report dispatch.Report) {
	if c.settings.OutcomeWorksheet == "" {
		return
	}
	table := mirror.Table{Header: []string{"Recipient", "Status", "Reason", "Timestamp", "Automation"}}
	ts := r.now.Format(timestampLayout)
	for _, o := range report.Outcomes {
		table.Rows = append(table.Rows, []string{o.Recipient, string(o.Status), o.Reason, ts, r.name})
	}
	c.mirror(ctx, logTable{worksheet: c.settings.OutcomeWorksheet, mode: mirror.ModeAppend, table: table})
}
