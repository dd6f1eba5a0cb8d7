// Package notify builds notification jobs from rule subjects. Bodies are
// rendered through a Renderer, subject lines through text/template against
// the same context map.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"text/template"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
)

// Message describes how one kind of notification is rendered.
type Message struct {
	TemplateID string // body template, see TemplateRenderer
	Subject    string // text/template source for the subject line
}

// Group is a set of subjects sharing a grouping key, sorted by display name.
type Group struct {
	Key     string
	Members []domain.Subject
}

// KeyFunc extracts the grouping key of a subject.
type KeyFunc func(domain.Subject) string

// ByManager groups subjects by manager email.
func ByManager(s domain.Subject) string { return s.ManagerEmail }

// ByCoordinator groups subjects by coordinator email.
func ByCoordinator(s domain.Subject) string { return s.CoordinatorEmail }

// Builder maps subjects to notification jobs.
type Builder struct {
	renderer      Renderer
	testRecipient string
}

// NewBuilder creates a job builder. When testRecipient is non-empty every
// job is addressed to it instead of the real recipient. Jobs without a real
// recipient are skipped either way.
func NewBuilder(renderer Renderer, testRecipient string) *Builder {
	return &Builder{renderer: renderer, testRecipient: testRecipient}
}

// PerSubject builds one job per subject, addressed to the subject's own email.
func (b *Builder) PerSubject(
	ctx context.Context,
	subjects []domain.Subject,
	msg Message,
	data func(domain.Subject) map[string]any,
) []domain.NotificationJob {
	subjectTmpl, ok := b.parseSubject(ctx, msg)
	if !ok {
		return nil
	}

	jobs := make([]domain.NotificationJob, 0, len(subjects))
	for _, s := range subjects {
		if job, ok := b.build(ctx, s.Email, msg, subjectTmpl, data(s)); ok {
			jobs = append(jobs, job)
		}
	}

	logger.With(logger.Fields{"subjects": len(subjects)}).WithCount(len(jobs)).
		Info(ctx, "Built per-subject jobs for %s", msg.TemplateID)
	return jobs
}

// PerGroup partitions subjects by key and builds one job per group,
// addressed to the key. Subjects with an empty key get no job. Groups are emitted in ascending key order and
// members are sorted by name, so output is deterministic for a given input.
func (b *Builder) PerGroup(
	ctx context.Context,
	subjects []domain.Subject,
	key KeyFunc,
	msg Message,
	data func(Group) map[string]any,
) []domain.NotificationJob {
	subjectTmpl, ok := b.parseSubject(ctx, msg)
	if !ok {
		return nil
	}

	groups := GroupBy(subjects, key)
	jobs := make([]domain.NotificationJob, 0, len(groups))
	for _, g := range groups {
		if job, ok := b.build(ctx, g.Key, msg, subjectTmpl, data(g)); ok {
			jobs = append(jobs, job)
		}
	}

	logger.With(logger.Fields{"groups": len(groups)}).WithCount(len(jobs)).
		Info(ctx, "Built per-group jobs for %s", msg.TemplateID)
	return jobs
}

// GroupBy partitions subjects by key. Groups are sorted by key, members by
// name; members with equal names keep their input order.
func GroupBy(subjects []domain.Subject, key KeyFunc) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, s := range subjects {
		k := key(s)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Members = append(groups[i].Members, s)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	for _, g := range groups {
		sort.SliceStable(g.Members, func(i, j int) bool {
			return g.Members[i].Name < g.Members[j].Name
		})
	}
	return groups
}

func (b *Builder) parseSubject(ctx context.Context, msg Message) (*template.Template, bool) {
	t, err := template.New("subject").Option("missingkey=error").Parse(msg.Subject)
	if err != nil {
		logger.FromContext(ctx).WithError(err).
			WithField("template", msg.TemplateID).
			Error("Invalid subject template, no jobs built")
		return nil, false
	}
	return t, true
}

func (b *Builder) build(
	ctx context.Context,
	recipient string,
	msg Message,
	subjectTmpl *template.Template,
	data map[string]any,
) (domain.NotificationJob, bool) {
	log := logger.FromContext(ctx).WithField("template", msg.TemplateID)
	if recipient == "" {
		log.Warn("Skipping job with missing recipient")
		return domain.NotificationJob{}, false
	}

	// The override applies only to jobs production would also send.
	if b.testRecipient != "" {
		recipient = b.testRecipient
	}
	log = log.WithField(logger.FieldRecipient, recipient)

	body, err := b.renderer.Render(ctx, msg.TemplateID, data)
	if err != nil {
		log.WithError(err).Warn("Skipping job because template rendering failed")
		return domain.NotificationJob{}, false
	}

	var subject bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		log.WithError(fmt.Errorf("%w: subject: %v", ErrRenderFailed, err)).
			Warn("Skipping job because subject rendering failed")
		return domain.NotificationJob{}, false
	}

	return domain.NotificationJob{
		Recipient: recipient,
		Subject:   subject.String(),
		Body:      body,
	}, true
}
