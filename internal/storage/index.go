package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"campaignomatic/internal/domain"
)

// MetaIndex serves generation history straight from the meta.json files on
// disk. It is used when no database is configured.
type MetaIndex struct {
	store *FileStore
}

func NewMetaIndex(store *FileStore) *MetaIndex {
	return &MetaIndex{store: store}
}

// Record is a no-op: SaveArtifacts already wrote meta.json.
func (m *MetaIndex) Record(ctx context.Context, rec domain.MetadataRecord) error {
	return ctx.Err()
}

// Get loads meta.json for id.
func (m *MetaIndex) Get(ctx context.Context, id string) (*domain.MetadataRecord, error) {
	if !domain.IsGenerationID(id) {
		return nil, domain.ErrNotFound
	}
	raw, err := m.store.Read(ctx, filepath.ToSlash(filepath.Join(id, MetaFile)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var rec domain.MetadataRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("storage: decode %s/%s: %w", id, MetaFile, err)
	}
	return &rec, nil
}

// ListRecent returns up to limit records, newest first. Unreadable entries
// are skipped.
func (m *MetaIndex) ListRecent(ctx context.Context, limit int) ([]domain.MetadataRecord, error) {
	entries, err := os.ReadDir(m.store.BasePath())
	if err != nil {
		return nil, err
	}
	var records []domain.MetadataRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || !domain.IsGenerationID(entry.Name()) {
			continue
		}
		rec, err := m.Get(ctx, entry.Name())
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

var _ domain.GenerationIndex = (*MetaIndex)(nil)
