package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/domain"
)

var testTemplates = fstest.MapFS{
	"partials/layout.html": {Data: []byte(`{{define "footer"}}-- {{.dashboard_url}}{{end}}`)},
	"alert.html":           {Data: []byte("Hello {{.name}}, you worked {{hours .hours_worked}}h.\n{{template \"footer\" .}}")},
	"summary.html": {Data: []byte("Team of {{.manager_name}}\n" +
		"{{range .members}}- {{.name}}: {{hours .hours_worked}}\n{{end}}{{template \"footer\" .}}")},
}

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	r, err := NewTemplateRenderer(testTemplates)
	require.NoError(t, err)
	return r
}

func subject(name, email, manager string, hours float64) domain.Subject {
	return domain.Subject{Record: domain.Record{
		Name:         name,
		Email:        email,
		HoursWorked:  hours,
		ManagerName:  "Marta",
		ManagerEmail: manager,
		Status:       domain.StatusActive,
	}}
}

func alertData(s domain.Subject) map[string]any {
	return map[string]any{"name": s.Name, "hours_worked": s.HoursWorked, "dashboard_url": "https://dash"}
}

func summaryData(g Group) map[string]any {
	members := make([]map[string]any, len(g.Members))
	for i, m := range g.Members {
		members[i] = map[string]any{"name": m.Name, "hours_worked": m.HoursWorked}
	}
	return map[string]any{
		"manager_name":  g.Members[0].ManagerName,
		"members":       members,
		"dashboard_url": "https://dash",
	}
}

type failingRenderer struct {
	failFor string
	inner   Renderer
}

func (f failingRenderer) Render(ctx context.Context, id string, data map[string]any) (string, error) {
	if data["name"] == f.failFor {
		return "", ErrRenderFailed
	}
	return f.inner.Render(ctx, id, data)
}

func TestBuilder_PerSubject(t *testing.T) {
	ctx := context.Background()
	msg := Message{TemplateID: "alert.html", Subject: "Alert for {{.name}}"}
	subjects := []domain.Subject{
		subject("Alice", "alice@x", "m@x", 12),
		subject("Bruno", "bruno@x", "m@x", 11),
	}

	t.Run("one job per subject in input order", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "")
		jobs := b.PerSubject(ctx, subjects, msg, alertData)

		require.Len(t, jobs, 2)
		assert.Equal(t, "alice@x", jobs[0].Recipient)
		assert.Equal(t, "Alert for Alice", jobs[0].Subject)
		assert.Equal(t, "Hello Alice, you worked 12.0h.\n-- https://dash", jobs[0].Body)
		assert.Equal(t, "bruno@x", jobs[1].Recipient)
	})

	t.Run("test recipient overrides every address", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "qa@x")
		jobs := b.PerSubject(ctx, subjects, msg, alertData)

		require.Len(t, jobs, 2)
		for _, j := range jobs {
			assert.Equal(t, "qa@x", j.Recipient)
		}
		assert.Contains(t, jobs[1].Body, "Bruno")
	})

	t.Run("render failure skips only that job", func(t *testing.T) {
		b := NewBuilder(failingRenderer{failFor: "Alice", inner: newTestRenderer(t)}, "")
		jobs := b.PerSubject(ctx, subjects, msg, alertData)

		require.Len(t, jobs, 1)
		assert.Equal(t, "bruno@x", jobs[0].Recipient)
	})

	t.Run("missing context key is a render failure", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "")
		jobs := b.PerSubject(ctx, subjects, msg, func(s domain.Subject) map[string]any {
			return map[string]any{"name": s.Name}
		})
		assert.Empty(t, jobs)
	})

	t.Run("subject failure skips the job", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "")
		bad := Message{TemplateID: "alert.html", Subject: "Alert {{.missing}}"}
		assert.Empty(t, b.PerSubject(ctx, subjects, bad, alertData))
	})

	t.Run("empty recipient is skipped", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "")
		noEmail := []domain.Subject{subject("Carla", "", "m@x", 13), subjects[0]}
		jobs := b.PerSubject(ctx, noEmail, msg, alertData)

		require.Len(t, jobs, 1)
		assert.Equal(t, "alice@x", jobs[0].Recipient)
	})

	t.Run("empty recipient is skipped under the test override", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "qa@x")
		noEmail := []domain.Subject{subject("Carla", "", "m@x", 13), subjects[0]}
		jobs := b.PerSubject(ctx, noEmail, msg, alertData)

		require.Len(t, jobs, 1)
		assert.Equal(t, "qa@x", jobs[0].Recipient)
		assert.Contains(t, jobs[0].Body, "Alice")
	})

	t.Run("unknown template yields no jobs", func(t *testing.T) {
		b := NewBuilder(newTestRenderer(t), "")
		jobs := b.PerSubject(ctx, subjects, Message{TemplateID: "nope.html"}, alertData)
		assert.Empty(t, jobs)
	})
}

func TestBuilder_PerGroup(t *testing.T) {
	ctx := context.Background()
	msg := Message{TemplateID: "summary.html", Subject: "Summary for {{.manager_name}}"}

	t.Run("members of a group are sorted by name", func(t *testing.T) {
		subjects := []domain.Subject{
			subject("Zoe", "zoe@x", "m@x", 12),
			subject("Ana", "ana@x", "m@x", 11),
		}
		b := NewBuilder(newTestRenderer(t), "")
		jobs := b.PerGroup(ctx, subjects, ByManager, msg, summaryData)

		require.Len(t, jobs, 1)
		assert.Equal(t, "m@x", jobs[0].Recipient)
		assert.Equal(t, "Summary for Marta", jobs[0].Subject)
		ana := strings.Index(jobs[0].Body, "Ana")
		zoe := strings.Index(jobs[0].Body, "Zoe")
		require.NotEqual(t, -1, ana)
		require.NotEqual(t, -1, zoe)
		assert.Less(t, ana, zoe)
	})

	t.Run("groups are emitted by ascending key", func(t *testing.T) {
		subjects := []domain.Subject{
			subject("Ana", "ana@x", "z@x", 11),
			subject("Bia", "bia@x", "a@x", 12),
			subject("Caio", "caio@x", "z@x", 13),
		}
		b := NewBuilder(newTestRenderer(t), "")
		jobs := b.PerGroup(ctx, subjects, ByManager, msg, summaryData)

		require.Len(t, jobs, 2)
		assert.Equal(t, "a@x", jobs[0].Recipient)
		assert.Equal(t, "z@x", jobs[1].Recipient)
	})

	t.Run("rendering is deterministic", func(t *testing.T) {
		subjects := []domain.Subject{
			subject("Caio", "caio@x", "m@x", 13),
			subject("Ana", "ana@x", "m@x", 11),
			subject("Bia", "bia@x", "n@x", 12),
		}
		b := NewBuilder(newTestRenderer(t), "")
		first := b.PerGroup(ctx, subjects, ByManager, msg, summaryData)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, b.PerGroup(ctx, subjects, ByManager, msg, summaryData))
		}
	})

	t.Run("test recipient keeps one job per group", func(t *testing.T) {
		subjects := []domain.Subject{
			subject("Ana", "ana@x", "m@x", 11),
			subject("Bia", "bia@x", "n@x", 12),
		}
		b := NewBuilder(newTestRenderer(t), "qa@x")
		jobs := b.PerGroup(ctx, subjects, ByManager, msg, summaryData)

		require.Len(t, jobs, 2)
		assert.Equal(t, "qa@x", jobs[0].Recipient)
		assert.Equal(t, "qa@x", jobs[1].Recipient)
	})
}

func TestBuilder_PerGroupSkipsEmptyKey(t *testing.T) {
	ctx := context.Background()
	msg := Message{TemplateID: "summary.html", Subject: "Summary for {{.manager_name}}"}
	subjects := []domain.Subject{
		subject("Ana", "ana@x", "m@x", 11),
		subject("Bia", "bia@x", "", 12),
	}

	for _, override := range []string{"", "qa@x"} {
		t.Run("override="+override, func(t *testing.T) {
			b := NewBuilder(newTestRenderer(t), override)
			jobs := b.PerGroup(ctx, subjects, ByManager, msg, summaryData)

			require.Len(t, jobs, 1)
			assert.Contains(t, jobs[0].Body, "Ana")
			assert.NotContains(t, jobs[0].Body, "Bia")
		})
	}
}

func TestGroupBy_StableForEqualNames(t *testing.T) {
	first := subject("Ana", "first@x", "m@x", 11)
	second := subject("Ana", "second@x", "m@x", 12)

	groups := GroupBy([]domain.Subject{first, second}, ByManager)
	require.Len(t, groups, 1)
	assert.Equal(t, "first@x", groups[0].Members[0].Email)
	assert.Equal(t, "second@x", groups[0].Members[1].Email)
}

func TestTemplateRenderer_Errors(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(context.Background(), "missing.html", nil)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))

	_, err = r.Render(context.Background(), "alert.html", map[string]any{})
	assert.True(t, errors.Is(err, ErrRenderFailed))

	assert.Equal(t, []string{"alert.html", "summary.html"}, r.TemplateIDs())
}

func TestBuilder_PerGroupGolden(t *testing.T) {
	subjects := []domain.Subject{
		subject("Zoe", "zoe@x", "m@x", 12),
		subject("Ana", "ana@x", "m@x", 11),
		subject("Bia", "bia@x", "m@x", 10.5),
	}
	b := NewBuilder(newTestRenderer(t), "")
	jobs := b.PerGroup(context.Background(), subjects, ByManager,
		Message{TemplateID: "summary.html", Subject: "Summary"}, summaryData)
	require.Len(t, jobs, 1)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "manager_summary", []byte(jobs[0].Body))
}
