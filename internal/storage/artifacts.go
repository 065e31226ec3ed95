package storage

import (
	"context"
	"encoding/json"
	"path"

	"github.com/rs/zerolog"

	"campaignomatic/internal/domain"
)

const (
	CopyFile  = "copy.txt"
	MetaFile  = "meta.json"
	ImagesDir = "images"
)

// SaveArtifacts writes one artifact set through a staging tree and commits it
// as <root>/<id>. Nothing becomes visible under the root unless every file
// was written.
func (s *FileStore) SaveArtifacts(ctx context.Context, set domain.ArtifactSet, meta domain.MetadataRecord) (rec *domain.MetadataRecord, err error) {
	stage, err := s.Stage(ctx, set.ID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "stage", Err: err}
	}
	defer func() {
		if err != nil {
			_ = stage.Discard()
		}
	}()

	meta.ID = set.ID
	meta.Images = make([]domain.ImageArtifact, 0, len(set.Images))
	for _, img := range set.Images {
		file := img.Spec.FileName()
		if _, err := stage.Write(ctx, path.Join(ImagesDir, file), img.Data); err != nil {
			return nil, &domain.PersistenceError{Op: "write " + file, Err: err}
		}
		meta.Images = append(meta.Images, domain.ImageArtifact{
			Variant: img.Spec.Variant,
			File:    path.Join(ImagesDir, file),
			Width:   img.Width,
			Height:  img.Height,
			Bytes:   int64(len(img.Data)),
		})
	}

	if _, err := stage.Write(ctx, CopyFile, []byte(set.Copy)); err != nil {
		return nil, &domain.PersistenceError{Op: "write " + CopyFile, Err: err}
	}

	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, &domain.PersistenceError{Op: "encode " + MetaFile, Err: err}
	}
	if _, err := stage.Write(ctx, MetaFile, encoded); err != nil {
		return nil, &domain.PersistenceError{Op: "write " + MetaFile, Err: err}
	}

	if err := stage.Commit(); err != nil {
		return nil, &domain.PersistenceError{Op: "commit", Err: err}
	}
	if stage.Merged() {
		zerolog.Ctx(ctx).Warn().Str("generation_id", set.ID).Msg("artifact directory already existed, files replaced")
	}
	return &meta, nil
}
