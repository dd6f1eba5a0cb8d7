package sheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/repository"
)

// DBStore keeps worksheets in the application database.
type DBStore struct {
	repo          *repository.WorksheetRepository
	createMissing bool
}

// NewDBStore creates a database-backed store. When createMissing is set,
// GetDestination creates unknown worksheets instead of failing.
func NewDBStore(repo *repository.WorksheetRepository, createMissing bool) *DBStore {
	return &DBStore{repo: repo, createMissing: createMissing}
}

func (s *DBStore) GetDestination(ctx context.Context, spreadsheetID, name string) (Handle, error) {
	lookup := s.repo.Find
	if s.createMissing {
		lookup = s.repo.FindOrCreate
	}
	ws, err := lookup(ctx, spreadsheetID, name)
	if errors.Is(err, repository.ErrWorksheetNotFound) {
		return Handle{}, fmt.Errorf("%w: %s/%s", ErrDestinationNotFound, spreadsheetID, name)
	}
	if err != nil {
		return Handle{}, fmt.Errorf("resolve worksheet %s: %w", name, err)
	}
	return Handle{SpreadsheetID: spreadsheetID, Name: name, ref: ws.ID}, nil
}

func (s *DBStore) EnsureHeader(ctx context.Context, h Handle, header []string) error {
	first, err := s.repo.FirstRow(ctx, h.ref)
	if err != nil {
		return fmt.Errorf("read header of %s: %w", h.Name, err)
	}
	if first != nil && !headerMissing(first.Cells) {
		logger.CtxDebug(ctx, "Header already present in worksheet %s", h.Name)
		return nil
	}
	if err := s.repo.AppendRows(ctx, h.ref, [][]string{header}); err != nil {
		return fmt.Errorf("write header of %s: %w", h.Name, err)
	}
	return nil
}

func (s *DBStore) Append(ctx context.Context, h Handle, rows [][]string) error {
	if err := s.repo.AppendRows(ctx, h.ref, rows); err != nil {
		return fmt.Errorf("append to %s: %w", h.Name, err)
	}
	return nil
}

func (s *DBStore) Overwrite(ctx context.Context, h Handle, rows [][]string) error {
	if err := s.repo.ReplaceRows(ctx, h.ref, rows); err != nil {
		return fmt.Errorf("overwrite %s: %w", h.Name, err)
	}
	return nil
}

func (s *DBStore) ReadAll(ctx context.Context, h Handle) ([][]string, error) {
	rows, err := s.repo.ListRows(ctx, h.ref)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.Name, err)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string(r.Cells)
	}
	return out, nil
}
