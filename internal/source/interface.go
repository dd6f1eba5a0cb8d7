package source

import (
	"context"
	"errors"

	"github.com/timmy/hrnotify/internal/domain"
)

// ErrDatasetUnavailable wraps every failure to obtain the contributor dataset.
var ErrDatasetUnavailable = errors.New("dataset unavailable")

// Loader defines the interface for contributor dataset sources.
type Loader interface {
	// GetSourceID returns a stable identifier such as "csv:./data/contributors.csv".
	GetSourceID() string

	// Load reads the whole dataset.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - []domain.Record: parsed records in dataset order.
	//   - error: wraps ErrDatasetUnavailable when the dataset cannot be read.
	Load(ctx context.Context) ([]domain.Record, error)
}
