package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/source"
)

func TestAdapter_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contributors.csv")
	data := "EMPLOYEE_ID,CONTRIBUTOR_NAME,CONTRIBUTOR_EMAIL,HOURS_WORKED,STATUS,LAST_UPDATE\n" +
		"1,Alice,alice@x,12,Active,02/07/2025\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	a := NewAdapter(path)
	assert.Equal(t, "csv:"+path, a.GetSourceID())

	records, err := a.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice@x", records[0].Email)
}

func TestAdapter_MissingFile(t *testing.T) {
	a := NewAdapter(filepath.Join(t.TempDir(), "missing.csv"))

	records, err := a.Load(context.Background())
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, source.ErrDatasetUnavailable))
}
