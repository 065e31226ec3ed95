package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"campaignomatic/internal/domain"
	"campaignomatic/internal/infra"
	"campaignomatic/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationIndex using PostgreSQL.
type GenerationRepositoryPG struct {
	db infra.SQLExecutor
}

// NewGenerationRepository constructs a repository over a marker-checked
// executor, normally an *infra.SQLRunner wrapping the pool.
func NewGenerationRepository(db infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{db: db}
}

// EnsureSchema creates the generations table and its index when missing.
func (r *GenerationRepositoryPG) EnsureSchema(ctx context.Context) error {
	for _, q := range []string{sqlinline.QCreateGenerationsTable, sqlinline.QCreateGenerationsCreatedAtIndex} {
		if _, err := r.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("ensure generations schema: %w", err)
		}
	}
	return nil
}

// Record upserts one committed generation.
func (r *GenerationRepositoryPG) Record(ctx context.Context, rec domain.MetadataRecord) error {
	images := rec.Images
	if images == nil {
		images = []domain.ImageArtifact{}
	}
	payload, err := json.Marshal(images)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sqlinline.QInsertGeneration,
		rec.ID, rec.MarketingDescription, rec.ImagePrompt, rec.Model, payload, rec.CreatedAt.UTC())
	return err
}

// ListRecent returns up to limit generations, newest first.
func (r *GenerationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.MetadataRecord, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListRecentGenerations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.MetadataRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Get loads one generation by id. Unknown ids yield domain.ErrNotFound.
func (r *GenerationRepositoryPG) Get(ctx context.Context, id string) (*domain.MetadataRecord, error) {
	rec, err := scanGeneration(r.db.QueryRow(ctx, sqlinline.QSelectGenerationByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

func scanGeneration(row pgx.Row) (*domain.MetadataRecord, error) {
	var (
		rec       domain.MetadataRecord
		images    []byte
		createdAt time.Time
	)
	if err := row.Scan(&rec.ID, &rec.MarketingDescription, &rec.ImagePrompt, &rec.Model, &images, &createdAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &rec.Images); err != nil {
			return nil, fmt.Errorf("decode images of %s: %w", rec.ID, err)
		}
	}
	rec.CreatedAt = createdAt.UTC()
	return &rec, nil
}

var _ domain.GenerationIndex = (*GenerationRepositoryPG)(nil)
