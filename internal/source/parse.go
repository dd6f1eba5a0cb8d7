package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
)

// Dataset column names.
const (
	ColEmployeeID       = "EMPLOYEE_ID"
	ColName             = "CONTRIBUTOR_NAME"
	ColEmail            = "CONTRIBUTOR_EMAIL"
	ColHoursWorked      = "HOURS_WORKED"
	ColStatus           = "STATUS"
	ColLastUpdate       = "LAST_UPDATE"
	ColAdmissionDate    = "ADMISSION_DATE"
	ColTeam             = "TEAM"
	ColManagerName      = "MANAGER_NAME"
	ColManagerEmail     = "MANAGER_EMAIL"
	ColCoordinatorName  = "COORDINATOR_NAME"
	ColCoordinatorEmail = "COORDINATOR_EMAIL"
	ColArea             = "AREA"
)

// Columns lists every dataset column in canonical order.
var Columns = []string{
	ColEmployeeID, ColName, ColEmail, ColHoursWorked, ColStatus, ColLastUpdate,
	ColAdmissionDate, ColTeam, ColManagerName, ColManagerEmail,
	ColCoordinatorName, ColCoordinatorEmail, ColArea,
}

var requiredColumns = []string{ColEmployeeID, ColName, ColHoursWorked, ColStatus, ColLastUpdate}

// Day-first layouts, most specific first.
var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses a day-first date in any of the accepted layouts.
// The result keeps the wall clock of the input, in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ParseCSV reads a contributor CSV with a header row.
func ParseCSV(ctx context.Context, r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrDatasetUnavailable, err)
	}
	return ParseRows(ctx, rows)
}

// ParseRows converts a header row plus data rows into records.
// Unparseable cells degrade to zero values with a warning; an unknown
// admission date becomes nil.
func ParseRows(ctx context.Context, rows [][]string) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrDatasetUnavailable, col)
		}
	}

	log := logger.FromContext(ctx)
	records := make([]domain.Record, 0, len(rows)-1)
	for line, row := range rows[1:] {
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if isBlank(row) {
			continue
		}

		rec := domain.Record{
			EmployeeID:       cell(ColEmployeeID),
			Name:             cell(ColName),
			Email:            cell(ColEmail),
			Status:           domain.Status(cell(ColStatus)),
			Team:             cell(ColTeam),
			ManagerName:      cell(ColManagerName),
			ManagerEmail:     cell(ColManagerEmail),
			CoordinatorName:  cell(ColCoordinatorName),
			CoordinatorEmail: cell(ColCoordinatorEmail),
			Area:             cell(ColArea),
		}
		rowLog := log.WithField("line", line+2).WithField("employee_id", rec.EmployeeID)

		if v := cell(ColHoursWorked); v != "" {
			hours, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
			if err != nil {
				rowLog.WithError(err).Warn("Invalid HOURS_WORKED, using 0")
			} else {
				rec.HoursWorked = hours
			}
		}

		if v := cell(ColLastUpdate); v != "" {
			t, err := ParseDate(v)
			if err != nil {
				rowLog.WithError(err).Warn("Invalid LAST_UPDATE, record will not match any reference date")
			} else {
				rec.LastUpdate = t
			}
		}

		if v := cell(ColAdmissionDate); v != "" {
			if t, err := ParseDate(v); err == nil {
				rec.AdmissionDate = &t
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
