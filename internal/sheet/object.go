package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/timmy/hrnotify/internal/logger"
	"github.com/timmy/hrnotify/internal/storage"
)

// ObjectStore keeps each worksheet as a CSV object under
// <prefix>/<spreadsheet>/<worksheet>.csv. Writes rewrite the whole object,
// serialized per process; concurrent writers in other processes race.
type ObjectStore struct {
	storage       storage.ObjectStorage
	prefix        string
	createMissing bool

	mu sync.Mutex
}

// NewObjectStore creates a store on top of object storage.
func NewObjectStore(objects storage.ObjectStorage, prefix string, createMissing bool) *ObjectStore {
	return &ObjectStore{storage: objects, prefix: prefix, createMissing: createMissing}
}

func (s *ObjectStore) key(spreadsheetID, name string) string {
	return path.Join(s.prefix, spreadsheetID, name+".csv")
}

func (s *ObjectStore) GetDestination(ctx context.Context, spreadsheetID, name string) (Handle, error) {
	key := s.key(spreadsheetID, name)
	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return Handle{}, fmt.Errorf("resolve worksheet %s: %w", name, err)
	}
	h := Handle{SpreadsheetID: spreadsheetID, Name: name, ref: key}
	if exists {
		return h, nil
	}
	if !s.createMissing {
		return Handle{}, fmt.Errorf("%w: %s/%s", ErrDestinationNotFound, spreadsheetID, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(ctx, key, nil); err != nil {
		return Handle{}, err
	}
	return h, nil
}

func (s *ObjectStore) EnsureHeader(ctx context.Context, h Handle, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(ctx, h.ref)
	if err != nil {
		return err
	}
	if len(rows) > 0 && !headerMissing(rows[0]) {
		logger.CtxDebug(ctx, "Header already present in worksheet %s", h.Name)
		return nil
	}
	return s.write(ctx, h.ref, append(rows, header))
}

func (s *ObjectStore) Append(ctx context.Context, h Handle, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx, h.ref)
	if err != nil {
		return err
	}
	return s.write(ctx, h.ref, append(existing, rows...))
}

func (s *ObjectStore) Overwrite(ctx context.Context, h Handle, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, h.ref, rows)
}

func (s *ObjectStore) ReadAll(ctx context.Context, h Handle) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, h.ref)
}

func (s *ObjectStore) read(ctx context.Context, key string) ([][]string, error) {
	body, err := s.storage.Download(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer body.Close()

	r := csv.NewReader(body)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return rows, nil
}

func (s *ObjectStore) write(ctx context.Context, key string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.storage.Upload(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "text/csv"); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
