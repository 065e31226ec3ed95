package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campaignomatic/internal/domain"
	"campaignomatic/internal/storage"
	"campaignomatic/pkg/zip"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type generationView struct {
	domain.MetadataRecord
	URLs    map[domain.Variant]string `json:"urls"`
	CopyURL string                    `json:"copyUrl"`
}

func newGenerationView(rec domain.MetadataRecord) generationView {
	return generationView{
		MetadataRecord: rec,
		URLs:           domain.ImageURLs(rec.ID),
		CopyURL:        path.Join(domain.AssetsPrefix, rec.ID, storage.CopyFile),
	}
}

// ListGenerations returns the most recent generations, newest first.
func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr := domain.NewValidationError()
			verr.AddField("limit", "Expected a positive integer")
			a.fail(w, r, verr)
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := a.Index.ListRecent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]generationView, 0, len(records))
	for _, rec := range records {
		items = append(items, newGenerationView(rec))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.lookup(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, newGenerationView(*rec))
}

// GenerationArchive streams copy.txt, meta.json and the images of one
// generation as a zip.
func (a *App) GenerationArchive(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.lookup(w, r)
	if !ok {
		return
	}

	keys := []string{storage.CopyFile, storage.MetaFile}
	for _, spec := range domain.ImageSpecs {
		keys = append(keys, path.Join(storage.ImagesDir, spec.FileName()))
	}
	assets := make([]zip.Asset, 0, len(keys))
	for _, key := range keys {
		data, err := a.Store.Read(r.Context(), path.Join(rec.ID, key))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				a.error(w, http.StatusNotFound, "artifact missing: "+key)
				return
			}
			a.fail(w, r, err)
			return
		}
		assets = append(assets, zip.Asset{Filename: key, Data: data, Modified: rec.CreatedAt})
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=campaign-%s.zip", rec.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) lookup(w http.ResponseWriter, r *http.Request) (*domain.MetadataRecord, bool) {
	id := chi.URLParam(r, "id")
	if !domain.IsGenerationID(id) {
		verr := domain.NewValidationError()
		verr.AddField("id", fmt.Sprintf("Expected %d lowercase hex characters", domain.GenerationIDLength))
		a.fail(w, r, verr)
		return nil, false
	}
	rec, err := a.Index.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return rec, true
}
