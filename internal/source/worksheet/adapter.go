// Package worksheet reads the contributor dataset from a worksheet of the
// log store, the way the dataset is kept when it is maintained by hand.
package worksheet

import (
	"context"
	"fmt"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/sheet"
	"github.com/timmy/hrnotify/internal/source"
)

// Adapter loads records from one worksheet.
type Adapter struct {
	store         sheet.Store
	spreadsheetID string
	name          string
}

func NewAdapter(store sheet.Store, spreadsheetID, name string) *Adapter {
	return &Adapter{store: store, spreadsheetID: spreadsheetID, name: name}
}

func (a *Adapter) GetSourceID() string {
	return fmt.Sprintf("sheet:%s/%s", a.spreadsheetID, a.name)
}

func (a *Adapter) Load(ctx context.Context) ([]domain.Record, error) {
	h, err := a.store.GetDestination(ctx, a.spreadsheetID, a.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrDatasetUnavailable, err)
	}
	rows, err := a.store.ReadAll(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrDatasetUnavailable, err)
	}

	records, err := source.ParseRows(ctx, rows)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{"source": a.GetSourceID()}).WithCount(len(records)).
		Info(ctx, "Loaded contributor dataset")
	return records, nil
}
