package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"campaignomatic/internal/domain"
	"campaignomatic/internal/infra"
	"campaignomatic/internal/storage"
)

// Generator runs one campaign generation.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Result, error)
}

type App struct {
	Config    *infra.Config
	Generator Generator
	Index     domain.GenerationIndex
	Store     *storage.FileStore
	Logger    zerolog.Logger
}

func NewApp(cfg *infra.Config, gen Generator, index domain.GenerationIndex, store *storage.FileStore, logger zerolog.Logger) *App {
	return &App{Config: cfg, Generator: gen, Index: index, Store: store, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error any `json:"error"`
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, errorResponse{Error: message})
}

// fail maps the domain error taxonomy onto HTTP status codes.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *domain.ValidationError
		upstream *domain.UpstreamError
		persist  *domain.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		a.json(w, http.StatusBadRequest, errorResponse{Error: verr})
	case errors.As(err, &upstream):
		a.error(w, http.StatusBadGateway, upstream.Error())
	case errors.As(err, &persist):
		a.error(w, http.StatusInternalServerError, persist.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not found")
	default:
		a.logger(r).Error().Err(err).Msg("unhandled error")
		a.error(w, http.StatusInternalServerError, "internal server error")
	}
}

func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
