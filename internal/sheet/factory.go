package sheet

import (
	"fmt"

	"github.com/timmy/hrnotify/internal/config"
	"github.com/timmy/hrnotify/internal/repository"
	"github.com/timmy/hrnotify/internal/storage"
	"gorm.io/gorm"
)

// NewStore selects the log store named by cfg.Type. Only the backend the
// type needs has to be non-nil.
func NewStore(cfg *config.SheetConfig, db *gorm.DB, objects storage.ObjectStorage) (Store, error) {
	switch cfg.Type {
	case "", "database":
		if db == nil {
			return nil, fmt.Errorf("sheet: database store requires a database")
		}
		return NewDBStore(repository.NewWorksheetRepository(db), cfg.CreateMissing), nil
	case "s3":
		if objects == nil {
			return nil, fmt.Errorf("sheet: s3 store requires object storage")
		}
		return NewObjectStore(objects, cfg.KeyPrefix, cfg.CreateMissing), nil
	default:
		return nil, fmt.Errorf("sheet: unknown store type %q", cfg.Type)
	}
}
