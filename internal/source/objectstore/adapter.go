package objectstore

import (
	"context"
	"fmt"

	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/source"
	"github.com/timmy/hrnotify/internal/storage"
)

// Adapter loads the contributor dataset from a CSV object in a bucket.
type Adapter struct {
	storage storage.ObjectStorage
	key     string
}

// NewAdapter creates a new object storage adapter.
func NewAdapter(objects storage.ObjectStorage, key string) *Adapter {
	return &Adapter{storage: objects, key: key}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "s3:" + a.key
}

// Load downloads and parses the object.
func (a *Adapter) Load(ctx context.Context) ([]domain.Record, error) {
	body, err := a.storage.Download(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrDatasetUnavailable, err)
	}
	defer body.Close()

	records, err := source.ParseCSV(ctx, body)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{"source": a.GetSourceID()}).WithCount(len(records)).
		Info(ctx, "Loaded contributor dataset")
	return records, nil
}
