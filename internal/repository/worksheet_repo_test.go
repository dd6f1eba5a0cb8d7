package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/hrnotify/internal/config"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestWorksheetRepository_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewWorksheetRepository(openTestDB(t))

	_, err := repo.Find(ctx, "book", "Log")
	assert.True(t, errors.Is(err, ErrWorksheetNotFound))

	first, err := repo.FindOrCreate(ctx, "book", "Log")
	require.NoError(t, err)
	second, err := repo.FindOrCreate(ctx, "book", "Log")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := repo.FindOrCreate(ctx, "other-book", "Log")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	again, err := repo.Find(ctx, "book", "Log")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestWorksheetRepository_Rows(t *testing.T) {
	ctx := context.Background()
	repo := NewWorksheetRepository(openTestDB(t))
	ws, err := repo.FindOrCreate(ctx, "book", "Log")
	require.NoError(t, err)

	first, err := repo.FirstRow(ctx, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, first)

	require.NoError(t, repo.AppendRows(ctx, ws.ID, [][]string{{"A", "B"}}))
	require.NoError(t, repo.AppendRows(ctx, ws.ID, [][]string{{"1", "2"}, {"3", "4"}}))
	require.NoError(t, repo.AppendRows(ctx, ws.ID, [][]string{{"5", "6"}}))
	require.NoError(t, repo.AppendRows(ctx, ws.ID, nil))

	rows, err := repo.ListRows(ctx, ws.ID)
	require.NoError(t, err)
	got := make([][]string, len(rows))
	for i, r := range rows {
		assert.Equal(t, i, r.Position)
		got[i] = r.Cells
	}
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}, {"3", "4"}, {"5", "6"}}, got)

	first, err = repo.FirstRow(ctx, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, []string{"A", "B"}, []string(first.Cells))

	require.NoError(t, repo.ReplaceRows(ctx, ws.ID, [][]string{{"X"}, {"Y"}}))
	rows, err = repo.ListRows(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"X"}, []string(rows[0].Cells))
	assert.Equal(t, []string{"Y"}, []string(rows[1].Cells))

	require.NoError(t, repo.ReplaceRows(ctx, ws.ID, nil))
	rows, err = repo.ListRows(ctx, ws.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
