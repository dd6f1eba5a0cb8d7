package config

import (
	"fmt"
	"time"
)

const (
	DateModeToday    = "today"
	DateModeSpecific = "specific"

	specificDateLayout = "2006-01-02"
)

// Validate checks the options the pipeline cannot run without.
// Returns an error describing the first validation failure, or nil if valid.
func (c *Config) Validate() error {
	if c.Dispatch.MaxParallelWorkers < 1 {
		return fmt.Errorf("dispatch: max_parallel_workers must be >= 1, got %d", c.Dispatch.MaxParallelWorkers)
	}

	switch c.Rules.DateMode {
	case DateModeToday:
	case DateModeSpecific:
		if _, err := time.Parse(specificDateLayout, c.Rules.SpecificDate); err != nil {
			return fmt.Errorf("rules: specific_date %q must be YYYY-MM-DD: %w", c.Rules.SpecificDate, err)
		}
	default:
		return fmt.Errorf("rules: unknown date_mode %q", c.Rules.DateMode)
	}

	return nil
}

// ReferenceDate returns the date rules are evaluated against, at midnight UTC.
// In today mode the calendar date of now is used.
func (c *Config) ReferenceDate(now time.Time) time.Time {
	if c.Rules.DateMode == DateModeSpecific {
		if d, err := time.Parse(specificDateLayout, c.Rules.SpecificDate); err == nil {
			return d
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// TestLimit returns the dispatch cap, or nil when no cap is configured.
func (c *Config) TestLimit() *int {
	if c.Dispatch.TestLimit <= 0 {
		return nil
	}
	limit := c.Dispatch.TestLimit
	return &limit
}

// DashboardURL returns the link embedded in emails, derived from the spreadsheet ID when unset.
func (c *Config) DashboardURL() string {
	if c.Sheet.DashboardURL != "" {
		return c.Sheet.DashboardURL
	}
	return "https://docs.google.com/spreadsheets/d/" + c.Sheet.SpreadsheetID
}
