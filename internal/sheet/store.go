// Package sheet provides the tabular log store that automations mirror
// their results into. A spreadsheet holds named worksheets, each a list
// of string rows where the first row is the header.
package sheet

import (
	"context"
	"errors"
)

// ErrDestinationNotFound is returned by GetDestination when the worksheet
// does not exist and the store is not allowed to create it.
var ErrDestinationNotFound = errors.New("destination worksheet not found")

// Handle identifies a resolved worksheet.
type Handle struct {
	SpreadsheetID string
	Name          string
	ref           string
}

// Store is the log store collaborator.
type Store interface {
	// GetDestination resolves a worksheet by spreadsheet and name.
	GetDestination(ctx context.Context, spreadsheetID, name string) (Handle, error)

	// EnsureHeader appends header when the worksheet's first cell is
	// empty. Existing rows are never modified.
	EnsureHeader(ctx context.Context, h Handle, header []string) error

	// Append adds rows after the existing content.
	Append(ctx context.Context, h Handle, rows [][]string) error

	// Overwrite replaces the whole worksheet with rows.
	Overwrite(ctx context.Context, h Handle, rows [][]string) error

	// ReadAll returns every row, header first.
	ReadAll(ctx context.Context, h Handle) ([][]string, error)
}

func headerMissing(first []string) bool {
	return len(first) == 0 || first[0] == ""
}
