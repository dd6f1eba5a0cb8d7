// Package mirror copies tabular results into the log store. Mirroring is
// best-effort: failures are logged and reported as false, never returned.
package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/sheet"
)

// Mode selects how rows are written.
type Mode string

const (
	// ModeAppend keeps existing rows and adds new ones below, writing the
	// header first if the worksheet has none.
	ModeAppend Mode = "append"
	// ModeOverwrite replaces the worksheet with header plus rows.
	ModeOverwrite Mode = "overwrite"
)

// Table is a header plus data rows. Every row should have len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Destination names a worksheet of the log store.
type Destination struct {
	SpreadsheetID string
	Worksheet     string
}

// Mirror writes tables to a sheet.Store.
type Mirror struct {
	store sheet.Store
}

// New creates a mirror over store.
func New(store sheet.Store) *Mirror {
	return &Mirror{store: store}
}

// Mirror writes table to dest. An empty table succeeds without touching the
// store. Any store failure is logged and yields false.
func (m *Mirror) Mirror(ctx context.Context, table Table, dest Destination, mode Mode) (ok bool) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldWorksheet: dest.Worksheet,
		"mode":                string(mode),
	})

	if len(table.Rows) == 0 {
		log.Info("No rows to mirror")
		return true
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Mirror panicked")
			ok = false
		}
	}()

	if err := m.write(ctx, table, dest, mode); err != nil {
		log.WithError(err).Error("Failed to mirror rows")
		return false
	}

	logger.With(logger.Fields{logger.FieldWorksheet: dest.Worksheet}).
		WithCount(len(table.Rows)).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Mirrored rows in %s mode", mode)
	return true
}

func (m *Mirror) write(ctx context.Context, table Table, dest Destination, mode Mode) error {
	h, err := m.store.GetDestination(ctx, dest.SpreadsheetID, dest.Worksheet)
	if err != nil {
		return err
	}

	switch mode {
	case ModeAppend:
		if err := m.store.EnsureHeader(ctx, h, table.Header); err != nil {
			return err
		}
		return m.store.Append(ctx, h, table.Rows)
	case ModeOverwrite:
		rows := make([][]string, 0, len(table.Rows)+1)
		rows = append(rows, table.Header)
		rows = append(rows, table.Rows...)
		return m.store.Overwrite(ctx, h, rows)
	default:
		return fmt.Errorf("unknown mirror mode %q", mode)
	}
}
