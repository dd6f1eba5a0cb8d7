package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/domain"
)

const header = "EMPLOYEE_ID,CONTRIBUTOR_NAME,CONTRIBUTOR_EMAIL,HOURS_WORKED,STATUS,LAST_UPDATE,ADMISSION_DATE,TEAM,MANAGER_NAME,MANAGER_EMAIL,COORDINATOR_NAME,COORDINATOR_EMAIL,AREA\n"

func TestParseDate(t *testing.T) {
	testCases := []struct {
		in   string
		want time.Time
	}{
		{"02/07/2025", time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)},
		{"2/7/2025", time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)},
		{"02/07/2025 18:30", time.Date(2025, time.July, 2, 18, 30, 0, 0, time.UTC)},
		{"02/07/2025 18:30:15", time.Date(2025, time.July, 2, 18, 30, 15, 0, time.UTC)},
		{"02-07-2025", time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)},
		{"02.07.2025", time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)},
		{"2025-07-02", time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC)},
		{"2025-07-02 08:00:00", time.Date(2025, time.July, 2, 8, 0, 0, 0, time.UTC)},
		{" 13/01/2020 ", time.Date(2020, time.January, 13, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}

	for _, bad := range []string{"", "not a date", "31/02/2025", "2025/07/02"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseDate(bad)
			assert.Error(t, err)
		})
	}
}

func TestParseCSV(t *testing.T) {
	data := header +
		"1,Alice,alice@x,12,Active,02/07/2025 18:00,15/03/2020,Payments,Marta,marta@x,Carlos,carlos@x,Engineering\n" +
		"2,Bruno,bruno@x,\"9,5\",Inactive,02/07/2025,not-a-date,Platform,Marta,marta@x,Carlos,carlos@x,Engineering\n" +
		",,,,,,,,,,,,\n" +
		"3,Carla,carla@x,abc,Active,yesterday,,Ops,Rui,rui@x,Carlos,carlos@x,Operations\n"

	records, err := ParseCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 3)

	alice := records[0]
	assert.Equal(t, "1", alice.EmployeeID)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 12.0, alice.HoursWorked)
	assert.Equal(t, domain.StatusActive, alice.Status)
	assert.Equal(t, time.Date(2025, time.July, 2, 18, 0, 0, 0, time.UTC), alice.LastUpdate)
	require.NotNil(t, alice.AdmissionDate)
	assert.Equal(t, time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC), *alice.AdmissionDate)
	assert.Equal(t, "marta@x", alice.ManagerEmail)
	assert.Equal(t, "Engineering", alice.Area)

	bruno := records[1]
	assert.Equal(t, 9.5, bruno.HoursWorked)
	assert.Equal(t, domain.StatusInactive, bruno.Status)
	assert.Nil(t, bruno.AdmissionDate)

	carla := records[2]
	assert.Zero(t, carla.HoursWorked)
	assert.True(t, carla.LastUpdate.IsZero())
	assert.Nil(t, carla.AdmissionDate)
}

func TestParseRows_HeaderHandling(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		records, err := ParseRows(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing required column", func(t *testing.T) {
		_, err := ParseRows(context.Background(), [][]string{{"EMPLOYEE_ID", "CONTRIBUTOR_NAME"}})
		assert.True(t, errors.Is(err, ErrDatasetUnavailable))
	})

	t.Run("column order and case do not matter", func(t *testing.T) {
		rows := [][]string{
			{"\ufeffstatus", "hours_worked", "last_update", "contributor_name", "employee_id"},
			{"Active", "11", "01/07/2025", "Dora", "9"},
			{"Active", "10"},
		}
		records, err := ParseRows(context.Background(), rows)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Dora", records[0].Name)
		assert.Equal(t, 11.0, records[0].HoursWorked)
		assert.Empty(t, records[0].Email)
		assert.Equal(t, 10.0, records[1].HoursWorked)
		assert.Empty(t, records[1].Name)
	})
}
