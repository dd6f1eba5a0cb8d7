package automation

import (
	"time"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/notify"
)

// PreviewContexts returns a sample rendering context for every email
// template, keyed by template ID. The contexts have the same shape as the
// ones built during a real run.
func PreviewContexts(ref time.Time, hoursLimit float64, dashboardURL string) map[string]map[string]any {
	admitted := ref.AddDate(-5, 0, 0)
	alice := domain.Subject{Record: domain.Record{
		EmployeeID:       "1001",
		Name:             "Alice Martins",
		Email:            "alice@example.com",
		HoursWorked:      hoursLimit + 2.5,
		Status:           domain.StatusActive,
		LastUpdate:       ref,
		AdmissionDate:    &admitted,
		Team:             "Payments",
		ManagerName:      "Marta Lima",
		ManagerEmail:     "marta@example.com",
		CoordinatorName:  "Carlos Souza",
		CoordinatorEmail: "carlos@example.com",
		Area:             "Engineering",
	}, YearsCompleted: 5}
	bruno := alice
	bruno.EmployeeID = "1002"
	bruno.Name = "Bruno Alves"
	bruno.Email = "bruno@example.com"
	bruno.HoursWorked = hoursLimit + 1
	bruno.Team = "Platform"

	group := notify.Group{Members: []domain.Subject{alice, bruno}}
	return map[string]map[string]any{
		overtimeAlert.TemplateID:      overtimeContext(alice, ref, hoursLimit, dashboardURL),
		managerSummary.TemplateID:     managerContext(group, ref, dashboardURL),
		coordinatorSummary.TemplateID: coordinatorContext(group, ref, dashboardURL),
		anniversaryAlert.TemplateID:   anniversaryContext(alice, dashboardURL),
	}
}
