package automation

import (
	"context"
	"strconv"
	"time"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/mirror"
	"github.com/timmy/hrnotify/internal/notify"
	"github.com/timmy/hrnotify/internal/rules"
)

// Automation names.
const (
	IndividualOvertime = "individual_overtime"
	ManagerSummary     = "manager_summary"
	CoordinatorSummary = "coordinator_summary"
	WorkAnniversary    = "work_anniversary"
)

// Worksheets written by the automations.
const (
	DashboardWorksheet   = "Dashboard Horas Extras"
	AlertLogWorksheet    = "Log de Alertas"
	AnniversaryWorksheet = "Log de Aniversários"
)

const (
	displayDate     = "02/01/2006"
	timestampLayout = "2006-01-02 15:04:05"
)

// Message definitions. Subjects are text/template sources rendered against
// the same context as the body.
var (
	overtimeAlert = notify.Message{
		TemplateID: "alerts/overtime_alert.html",
		Subject:    "Alert | Daily Hour Limit Exceeded",
	}
	managerSummary = notify.Message{
		TemplateID: "reports/manager_summary.html",
		Subject:    "Daily Hours Summary for Your Team - {{.summary_date}}",
	}
	coordinatorSummary = notify.Message{
		TemplateID: "reports/coordinator_summary.html",
		Subject:    "Daily Hours Summary for your Area ({{.area_name}}) - {{.summary_date}}",
	}
	anniversaryAlert = notify.Message{
		TemplateID: "alerts/anniversary_alert.html",
		Subject:    "Happy {{.years}} {{if eq .years 1}}Year{{else}}Years{{end}} Work Anniversary!",
	}
)

func builtins() []definition {
	return []definition{
		{
			Info: Info{
				Name:        IndividualOvertime,
				Description: "Alerts each contributor who exceeded the daily hour limit",
			},
			evaluate: overtime,
			build: func(ctx context.Context, c *Controller, r run, subjects []domain.Subject) []domain.NotificationJob {
				return c.deps.Builder.PerSubject(ctx, subjects, overtimeAlert, func(s domain.Subject) map[string]any {
					return overtimeContext(s, r.ref, c.deps.Evaluator.HoursLimit(), c.settings.DashboardURL)
				})
			},
			logs: func(c *Controller, r run, subjects []domain.Subject) []logTable {
				return []logTable{
					{worksheet: DashboardWorksheet, mode: mirror.ModeOverwrite, table: dashboardTable(subjects)},
					{worksheet: AlertLogWorksheet, mode: mirror.ModeAppend, table: alertLogTable(subjects, r)},
				}
			},
		},
		{
			Info: Info{
				Name:        ManagerSummary,
				Description: "Sends each manager the list of team members over the hour limit",
			},
			evaluate: overtime,
			build: func(ctx context.Context, c *Controller, r run, subjects []domain.Subject) []domain.NotificationJob {
				return c.deps.Builder.PerGroup(ctx, subjects, notify.ByManager, managerSummary, func(g notify.Group) map[string]any {
					return managerContext(g, r.ref, c.settings.DashboardURL)
				})
			},
		},
		{
			Info: Info{
				Name:        CoordinatorSummary,
				Description: "Sends each coordinator the list of area members over the hour limit",
			},
			evaluate: overtime,
			build: func(ctx context.Context, c *Controller, r run, subjects []domain.Subject) []domain.NotificationJob {
				return c.deps.Builder.PerGroup(ctx, subjects, notify.ByCoordinator, coordinatorSummary, func(g notify.Group) map[string]any {
					return coordinatorContext(g, r.ref, c.settings.DashboardURL)
				})
			},
		},
		{
			Info: Info{
				Name:        WorkAnniversary,
				Description: "Congratulates contributors on their work anniversary",
			},
			evaluate: func(ctx context.Context, e *rules.Evaluator, records []domain.Record, ref time.Time) domain.EvalResult {
				return e.Anniversary(ctx, records, ref)
			},
			build: func(ctx context.Context, c *Controller, r run, subjects []domain.Subject) []domain.NotificationJob {
				return c.deps.Builder.PerSubject(ctx, subjects, anniversaryAlert, func(s domain.Subject) map[string]any {
					return anniversaryContext(s, c.settings.DashboardURL)
				})
			},
			logs: func(c *Controller, r run, subjects []domain.Subject) []logTable {
				return []logTable{
					{worksheet: AnniversaryWorksheet, mode: mirror.ModeAppend, table: anniversaryLogTable(subjects, r)},
				}
			},
		},
	}
}

func overtime(ctx context.Context, e *rules.Evaluator, records []domain.Record, ref time.Time) domain.EvalResult {
	return e.Overtime(ctx, records, ref)
}

func overtimeContext(s domain.Subject, ref time.Time, limit float64, dashboardURL string) map[string]any {
	return map[string]any{
		"name":          s.Name,
		"date":          ref.Format(displayDate),
		"hours_worked":  s.HoursWorked,
		"hours_limit":   limit,
		"dashboard_url": dashboardURL,
	}
}

func members(g notify.Group) []map[string]any {
	out := make([]map[string]any, len(g.Members))
	for i, m := range g.Members {
		out[i] = map[string]any{
			"name":         m.Name,
			"team":         m.Team,
			"hours_worked": m.HoursWorked,
		}
	}
	return out
}

func managerContext(g notify.Group, ref time.Time, dashboardURL string) map[string]any {
	return map[string]any{
		"manager_name":  g.Members[0].ManagerName,
		"summary_date":  ref.Format(displayDate),
		"members":       members(g),
		"dashboard_url": dashboardURL,
	}
}

func coordinatorContext(g notify.Group, ref time.Time, dashboardURL string) map[string]any {
	return map[string]any{
		"coordinator_name": g.Members[0].CoordinatorName,
		"area_name":        g.Members[0].Area,
		"summary_date":     ref.Format(displayDate),
		"members":          members(g),
		"dashboard_url":    dashboardURL,
	}
}

func anniversaryContext(s domain.Subject, dashboardURL string) map[string]any {
	return map[string]any{
		"name":          s.Name,
		"years":         s.YearsCompleted,
		"dashboard_url": dashboardURL,
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func dashboardTable(subjects []domain.Subject) mirror.Table {
	t := mirror.Table{Header: []string{"Employee ID", "Contributor Name", "Hours Worked", "Team", "Manager Name"}}
	for _, s := range subjects {
		t.Rows = append(t.Rows, []string{s.EmployeeID, s.Name, formatHours(s.HoursWorked), s.Team, s.ManagerName})
	}
	return t
}

func alertLogTable(subjects []domain.Subject, r run) mirror.Table {
	t := mirror.Table{Header: []string{"Timestamp", "Contributor Name", "Hours Worked", "Manager Email", "Automation"}}
	ts := r.now.Format(timestampLayout)
	for _, s := range subjects {
		t.Rows = append(t.Rows, []string{ts, s.Name, formatHours(s.HoursWorked), s.ManagerEmail, r.name})
	}
	return t
}

func anniversaryLogTable(subjects []domain.Subject, r run) mirror.Table {
	t := mirror.Table{Header: []string{"Timestamp", "Contributor Name", "Years Completed", "Area", "Automation"}}
	ts := r.now.Format(timestampLayout)
	for _, s := range subjects {
		t.Rows = append(t.Rows, []string{ts, s.Name, strconv.Itoa(s.YearsCompleted), s.Area, r.name})
	}
	return t
}
