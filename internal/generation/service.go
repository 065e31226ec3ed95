// Package generation runs one campaign generation end to end: copy, three
// images, staged persistence and the response contract.
package generation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"campaignomatic/internal/domain"
	"campaignomatic/internal/metrics"
	imageprovider "campaignomatic/internal/providers/image"
	textprovider "campaignomatic/internal/providers/text"
)

// CopyWriter produces marketing copy from a prompt.
type CopyWriter interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageRenderer renders one base64 image at the given size.
type ImageRenderer interface {
	Txt2Img(ctx context.Context, prompt string, width, height int) (string, error)
}

// ArtifactStore persists a complete artifact set atomically.
type ArtifactStore interface {
	SaveArtifacts(ctx context.Context, set domain.ArtifactSet, meta domain.MetadataRecord) (*domain.MetadataRecord, error)
}

// State is a step of the generation state machine.
type State string

const (
	StateValidating       State = "validating"
	StateGeneratingCopy   State = "generating_copy"
	StateGeneratingImages State = "generating_images"
	StatePersisting       State = "persisting"
	StateResponding       State = "responding"
	StateFailed           State = "failed"
)

type Options struct {
	Text   CopyWriter
	Images ImageRenderer
	Store  ArtifactStore
	// Index is optional.
	Index            domain.GenerationIndex
	Logger           zerolog.Logger
	Model            string
	ImageConcurrency int
	Now              func() time.Time
}

type Service struct {
	text        CopyWriter
	images      ImageRenderer
	store       ArtifactStore
	index       domain.GenerationIndex
	logger      zerolog.Logger
	model       string
	concurrency int
	now         func() time.Time
}

func NewService(opts Options) *Service {
	concurrency := opts.ImageConcurrency
	if concurrency <= 0 {
		concurrency = len(domain.ImageSpecs)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		text:        opts.Text,
		images:      opts.Images,
		store:       opts.Store,
		index:       opts.Index,
		logger:      opts.Logger,
		model:       opts.Model,
		concurrency: concurrency,
		now:         now,
	}
}

// Generate validates req, calls the copy model once and the image service
// once per size, and persists the set only when every call succeeded.
// Upstream calls and persistence are detached from ctx cancellation: a client
// that disconnects does not abort work already issued.
func (s *Service) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Result, error) {
	log := s.loggerFor(ctx)
	s.enter(log, StateValidating)
	if err := req.Validate(); err != nil {
		return nil, s.fail(log, StateValidating, metrics.StatusValidationError, err)
	}
	req = req.Normalize()

	createdAt := s.now().UTC()
	id := domain.NewGenerationID(createdAt, req.MarketingDescription, req.ImagePrompt)
	log = log.With().Str("generation_id", id).Logger()
	work := context.WithoutCancel(ctx)

	s.enter(log, StateGeneratingCopy)
	copyText, err := s.generateCopy(work, req)
	if err != nil {
		return nil, s.fail(log, StateGeneratingCopy, metrics.StatusUpstreamError, err)
	}

	s.enter(log, StateGeneratingImages)
	images, err := s.generateImages(work, req)
	if err != nil {
		return nil, s.fail(log, StateGeneratingImages, metrics.StatusUpstreamError, err)
	}

	s.enter(log, StatePersisting)
	set := domain.ArtifactSet{ID: id, Request: req, Copy: copyText, Images: images}
	rec, err := s.store.SaveArtifacts(work, set, domain.MetadataRecord{
		ID:                   id,
		MarketingDescription: req.MarketingDescription,
		ImagePrompt:          req.ImagePrompt,
		CreatedAt:            createdAt,
		Model:                s.model,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = &domain.PersistenceError{Op: "save", Err: err}
		}
		return nil, s.fail(log, StatePersisting, metrics.StatusPersistError, err)
	}
	if s.index != nil {
		if err := s.index.Record(work, *rec); err != nil {
			log.Warn().Err(err).Msg("generation index update failed")
		}
	}

	s.enter(log, StateResponding)
	metrics.GenerationTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return &domain.Result{ID: id, Copy: copyText, Images: domain.ImageURLs(id)}, nil
}

func (s *Service) generateCopy(ctx context.Context, req domain.GenerationRequest) (string, error) {
	start := time.Now()
	out, err := s.text.Generate(ctx, CopyPrompt(req))
	metrics.UpstreamDuration.WithLabelValues(textprovider.ServiceName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues(textprovider.ServiceName).Inc()
		return "", asUpstream(textprovider.ServiceName, err)
	}
	return out, nil
}

func (s *Service) generateImages(ctx context.Context, req domain.GenerationRequest) ([]domain.GeneratedImage, error) {
	prompt := ImagePrompt(req)
	results := make([]domain.GeneratedImage, len(domain.ImageSpecs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, spec := range domain.ImageSpecs {
		g.Go(func() error {
			start := time.Now()
			payload, err := s.images.Txt2Img(ctx, prompt, spec.Width, spec.Height)
			metrics.UpstreamDuration.WithLabelValues(imageprovider.ServiceName).Observe(time.Since(start).Seconds())
			if err == nil {
				results[i], err = imageprovider.DecodePNG(spec, payload)
			}
			if err != nil {
				metrics.UpstreamErrors.WithLabelValues(imageprovider.ServiceName).Inc()
				return asUpstream(imageprovider.ServiceName, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func asUpstream(service string, err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return &domain.UpstreamError{Service: service, Err: err}
}

func (s *Service) enter(log zerolog.Logger, state State) {
	log.Debug().Str("state", string(state)).Msg("generation state")
}

func (s *Service) fail(log zerolog.Logger, from State, status string, err error) error {
	metrics.GenerationTotal.WithLabelValues(status).Inc()
	event := log.Warn()
	if status == metrics.StatusPersistError {
		event = log.Error()
	}
	event.Err(err).Str("state", string(StateFailed)).Str("from", string(from)).Msg("generation failed")
	return err
}

func (s *Service) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return s.logger
}
