package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"campaignomatic/internal/domain"
)

func TestMetaIndexListRecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	index := NewMetaIndex(store)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb", "cccccccccccccccc"}
	for i, id := range ids {
		_, err := store.SaveArtifacts(ctx, sampleSet(id), domain.MetadataRecord{CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("SaveArtifacts(%s) error: %v", id, err)
		}
	}
	if _, err := store.Write(ctx, "not-a-generation/meta.json", []byte("{}")); err != nil {
		t.Fatalf("seed stray dir: %v", err)
	}

	records, err := index.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].ID != "cccccccccccccccc" || records[1].ID != "bbbbbbbbbbbbbbbb" {
		t.Fatalf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestMetaIndexGet(t *testing.T) {
	store := newTestStore(t)
	index := NewMetaIndex(store)
	ctx := context.Background()
	if _, err := store.SaveArtifacts(ctx, sampleSet("0123456789abcdef"), domain.MetadataRecord{ImagePrompt: "A hiker"}); err != nil {
		t.Fatalf("SaveArtifacts error: %v", err)
	}

	rec, err := index.Get(ctx, "0123456789abcdef")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.ImagePrompt != "A hiker" || len(rec.Images) != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := index.Get(ctx, "ffffffffffffffff"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := index.Get(ctx, "../etc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}
