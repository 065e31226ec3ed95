package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	stdimage "image"
	"image/png"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"campaignomatic/internal/domain"
	"campaignomatic/internal/storage"
)

type stubText struct {
	mu      sync.Mutex
	out     string
	err     error
	prompts []string
}

func (s *stubText) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

func (s *stubText) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type imageCall struct {
	prompt string
	width  int
	height int
}

type stubImages struct {
	mu     sync.Mutex
	calls  []imageCall
	failAt map[int]error
	// payload overrides the generated PNG when set.
	payload string
}

func (s *stubImages) Txt2Img(ctx context.Context, prompt string, width, height int) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, imageCall{prompt: prompt, width: width, height: height})
	err := s.failAt[width*10000+height]
	payload := s.payload
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if payload != "" {
		return payload, nil
	}
	return pngBase64(width, height), nil
}

func (s *stubImages) sizes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		out = append(out, domain.ImageSpec{Width: c.width, Height: c.height}.FileName())
	}
	sort.Strings(out)
	return out
}

type stubIndex struct {
	mu      sync.Mutex
	records []domain.MetadataRecord
	err     error
}

func (s *stubIndex) Record(ctx context.Context, rec domain.MetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func (s *stubIndex) ListRecent(ctx context.Context, limit int) ([]domain.MetadataRecord, error) {
	return nil, nil
}

func (s *stubIndex) Get(ctx context.Context, id string) (*domain.MetadataRecord, error) {
	return nil, domain.ErrNotFound
}

type failingStore struct{ err error }

func (f failingStore) SaveArtifacts(ctx context.Context, set domain.ArtifactSet, meta domain.MetadataRecord) (*domain.MetadataRecord, error) {
	return nil, f.err
}

func pngBase64(w, h int) string {
	var buf bytes.Buffer
	_ = png.Encode(&buf, stdimage.NewGray(stdimage.Rect(0, 0, w, h)))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fixture struct {
	text   *stubText
	images *stubImages
	index  *stubIndex
	store  *storage.FileStore
	svc    *Service
}

func newFixture(t *testing.T, concurrency int) *fixture {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	f := &fixture{
		text:   &stubText{out: "Built for the long trail."},
		images: &stubImages{},
		index:  &stubIndex{},
		store:  store,
	}
	f.svc = NewService(Options{
		Text:             f.text,
		Images:           f.images,
		Store:            store,
		Index:            f.index,
		Logger:           zerolog.Nop(),
		Model:            "llama3.1:8b",
		ImageConcurrency: concurrency,
		Now:              func() time.Time { return time.UnixMilli(1767225600000) },
	})
	return f
}

var validRequest = domain.GenerationRequest{
	MarketingDescription: "Outdoor gear brand for hikers and backpackers.",
	ImagePrompt:          "A hiker with a rugged backpack on a mountain trail at sunrise",
}

func TestGenerateIssuesOneCopyAndThreeImageCalls(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		f := newFixture(t, concurrency)
		res, err := f.svc.Generate(context.Background(), validRequest)
		if err != nil {
			t.Fatalf("concurrency=%d: Generate error: %v", concurrency, err)
		}
		if f.text.calls() != 1 {
			t.Fatalf("text calls = %d, want 1", f.text.calls())
		}
		want := []string{"450x800.png", "800x450.png", "800x800.png"}
		got := f.images.sizes()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("image sizes = %v, want %v", got, want)
		}
		for _, c := range f.images.calls {
			if c.prompt != ImagePrompt(validRequest) {
				t.Fatalf("unexpected image prompt: %q", c.prompt)
			}
		}
		if res.Copy != "Built for the long trail." {
			t.Fatalf("copy = %q", res.Copy)
		}
		if !domain.IsGenerationID(res.ID) {
			t.Fatalf("invalid id %q", res.ID)
		}
		for _, spec := range domain.ImageSpecs {
			if res.Images[spec.Variant] != domain.ImageURL(res.ID, spec) {
				t.Fatalf("image url for %s = %q", spec.Variant, res.Images[spec.Variant])
			}
		}
		if len(f.index.records) != 1 || f.index.records[0].ID != res.ID {
			t.Fatalf("index not updated: %+v", f.index.records)
		}
		data, err := f.store.Read(context.Background(), res.ID+"/images/800x450.png")
		if err != nil {
			t.Fatalf("landscape image not persisted: %v", err)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil || cfg.Width != 800 || cfg.Height != 450 {
			t.Fatalf("landscape png = %dx%d, err %v", cfg.Width, cfg.Height, err)
		}
	}
}

func TestGenerateValidationMakesNoUpstreamCalls(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.svc.Generate(context.Background(), domain.GenerationRequest{MarketingDescription: "ab", ImagePrompt: "valid prompt"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.FieldErrors["marketingDescription"]) == 0 {
		t.Fatalf("expected marketingDescription field error: %+v", verr)
	}
	if f.text.calls() != 0 || len(f.images.calls) != 0 {
		t.Fatalf("upstream called: text=%d images=%d", f.text.calls(), len(f.images.calls))
	}
}

func TestGenerateTextFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, 3)
	f.text.err = &domain.UpstreamError{Service: "Ollama", StatusCode: http.StatusInternalServerError, Body: "boom"}

	_, err := f.svc.Generate(context.Background(), validRequest)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Ollama error 500") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if len(f.images.calls) != 0 {
		t.Fatalf("image calls after copy failure: %d", len(f.images.calls))
	}
	assertNoArtifacts(t, f)
}

func TestGenerateImageFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, 1)
	f.images.failAt = map[int]error{800*10000 + 450: &domain.UpstreamError{Service: "StableDiffusion", StatusCode: 500, Body: "oom"}}

	_, err := f.svc.Generate(context.Background(), validRequest)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	assertNoArtifacts(t, f)
}

func TestGenerateWrapsPlainClientErrors(t *testing.T) {
	f := newFixture(t, 3)
	f.text.err = errors.New("connection refused")

	_, err := f.svc.Generate(context.Background(), validRequest)
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Service != "Ollama" {
		t.Fatalf("expected wrapped Ollama upstream error, got %v", err)
	}
}

func TestGenerateRejectsNonPNGPayload(t *testing.T) {
	f := newFixture(t, 3)
	f.images.payload = base64.StdEncoding.EncodeToString([]byte("not an image"))

	_, err := f.svc.Generate(context.Background(), validRequest)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	assertNoArtifacts(t, f)
}

func TestGeneratePersistenceFailure(t *testing.T) {
	f := newFixture(t, 3)
	f.svc.store = failingStore{err: errors.New("disk full")}

	_, err := f.svc.Generate(context.Background(), validRequest)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(f.index.records) != 0 {
		t.Fatalf("index updated after failed persistence")
	}
}

func TestGenerateIndexFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, 3)
	f.index.err = errors.New("db down")

	if _, err := f.svc.Generate(context.Background(), validRequest); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
}

func TestGenerateIdenticalRequestsAtDifferentTimes(t *testing.T) {
	f := newFixture(t, 3)
	tick := time.UnixMilli(1767225600000)
	f.svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	first, err := f.svc.Generate(context.Background(), validRequest)
	if err != nil {
		t.Fatalf("first Generate error: %v", err)
	}
	second, err := f.svc.Generate(context.Background(), validRequest)
	if err != nil {
		t.Fatalf("second Generate error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("identical requests share id %s", first.ID)
	}
	for _, id := range []string{first.ID, second.ID} {
		if _, err := f.store.Read(context.Background(), id+"/meta.json"); err != nil {
			t.Fatalf("meta.json for %s missing: %v", id, err)
		}
	}
}

func TestGenerateIgnoresClientCancellation(t *testing.T) {
	f := newFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Generate(ctx, validRequest); err != nil {
		t.Fatalf("Generate error with cancelled client context: %v", err)
	}
}

func assertNoArtifacts(t *testing.T, f *fixture) {
	t.Helper()
	records, err := storage.NewMetaIndex(f.store).ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("artifacts persisted after failure: %+v", records)
	}
	if len(f.index.records) != 0 {
		t.Fatalf("index updated after failure: %+v", f.index.records)
	}
}
