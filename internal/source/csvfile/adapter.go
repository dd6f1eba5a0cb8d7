package csvfile

import (
	"context"
	"fmt"
	"os"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/source"
)

// Adapter loads the contributor dataset from a local CSV file.
type Adapter struct {
	path string
}

// NewAdapter creates a new CSV file adapter.
func NewAdapter(path string) *Adapter {
	return &Adapter{path: path}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "csv:" + a.path
}

// Load reads and parses the file on every call.
func (a *Adapter) Load(ctx context.Context) ([]domain.Record, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrDatasetUnavailable, err)
	}
	defer f.Close()

	records, err := source.ParseCSV(ctx, f)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{"source": a.GetSourceID()}).WithCount(len(records)).
		Info(ctx, "Loaded contributor dataset")
	return records, nil
}
