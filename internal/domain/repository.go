package domain

import "context"

// GenerationIndex records committed generations for the history endpoints.
type GenerationIndex interface {
	Record(ctx context.Context, rec MetadataRecord) error
	ListRecent(ctx context.Context, limit int) ([]MetadataRecord, error)
	Get(ctx context.Context, id string) (*MetadataRecord, error)
}
