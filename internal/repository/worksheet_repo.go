package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/timmy/hrnotify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrWorksheetNotFound is returned when no worksheet matches a lookup.
var ErrWorksheetNotFound = errors.New("worksheet not found")

// WorksheetRepository stores worksheets and their rows.
type WorksheetRepository struct {
	db *gorm.DB
}

// NewWorksheetRepository creates a new WorksheetRepository.
func NewWorksheetRepository(db *gorm.DB) *WorksheetRepository {
	return &WorksheetRepository{db: db}
}

// Find retrieves a worksheet by spreadsheet and name.
// Returns ErrWorksheetNotFound when it does not exist.
func (r *WorksheetRepository) Find(ctx context.Context, spreadsheetID, name string) (*domain.Worksheet, error) {
	var ws domain.Worksheet
	err := r.db.WithContext(ctx).
		Where("spreadsheet_id = ? AND name = ?", spreadsheetID, name).
		First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorksheetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// FindOrCreate returns the named worksheet, creating an empty one if needed.
func (r *WorksheetRepository) FindOrCreate(ctx context.Context, spreadsheetID, name string) (*domain.Worksheet, error) {
	ws := domain.Worksheet{
		ID:            uuid.New().String(),
		SpreadsheetID: spreadsheetID,
		Name:          name,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spreadsheet_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&ws).Error
	if err != nil {
		return nil, fmt.Errorf("create worksheet: %w", err)
	}
	return r.Find(ctx, spreadsheetID, name)
}

// FirstRow returns the row at position 0, or nil when the worksheet is empty.
func (r *WorksheetRepository) FirstRow(ctx context.Context, worksheetID string) (*domain.WorksheetRow, error) {
	var row domain.WorksheetRow
	err := r.db.WithContext(ctx).
		Where("worksheet_id = ? AND position = ?", worksheetID, 0).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRows returns all rows of a worksheet in position order.
func (r *WorksheetRepository) ListRows(ctx context.Context, worksheetID string) ([]domain.WorksheetRow, error) {
	var rows []domain.WorksheetRow
	err := r.db.WithContext(ctx).
		Where("worksheet_id = ?", worksheetID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}

// AppendRows adds rows after the last existing row.
func (r *WorksheetRepository) AppendRows(ctx context.Context, worksheetID string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next struct{ NextPosition int }
		if err := tx.Model(&domain.WorksheetRow{}).
			Select("COALESCE(MAX(position), -1) + 1 AS next_position").
			Where("worksheet_id = ?", worksheetID).
			Scan(&next).Error; err != nil {
			return err
		}
		created := newRows(worksheetID, next.NextPosition, rows)
		return tx.Create(&created).Error
	})
}

// ReplaceRows clears a worksheet and writes rows starting at position 0.
func (r *WorksheetRepository) ReplaceRows(ctx context.Context, worksheetID string, rows [][]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("worksheet_id = ?", worksheetID).
			Delete(&domain.WorksheetRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		created := newRows(worksheetID, 0, rows)
		return tx.Create(&created).Error
	})
}

func newRows(worksheetID string, start int, rows [][]string) []domain.WorksheetRow {
	out := make([]domain.WorksheetRow, len(rows))
	for i, cells := range rows {
		out[i] = domain.WorksheetRow{
			WorksheetID: worksheetID,
			Position:    start + i,
			Cells:       domain.StringArray(cells),
		}
	}
	return out
}
