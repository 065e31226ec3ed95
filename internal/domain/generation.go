package domain

import (
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinFieldLength is the minimum rune count for both request fields.
const MinFieldLength = 3

// GenerationRequest is the validated input of one generation.
type GenerationRequest struct {
	MarketingDescription string `json:"marketingDescription"`
	ImagePrompt          string `json:"imagePrompt"`
}

// Normalize applies NFC so equal text hashes equally. It runs after Validate
// and never changes what the caller typed beyond the composition form.
func (r GenerationRequest) Normalize() GenerationRequest {
	return GenerationRequest{
		MarketingDescription: norm.NFC.String(r.MarketingDescription),
		ImagePrompt:          norm.NFC.String(r.ImagePrompt),
	}
}

// Validate returns a *ValidationError when a field is missing or too short.
// Lengths are counted on the raw value; whitespace counts.
func (r GenerationRequest) Validate() error {
	verr := NewValidationError()
	checkField(verr, "marketingDescription", r.MarketingDescription)
	checkField(verr, "imagePrompt", r.ImagePrompt)
	if verr.Empty() {
		return nil
	}
	return verr
}

func checkField(verr *ValidationError, field, value string) {
	if value == "" {
		verr.AddField(field, "Required")
		return
	}
	if utf8.RuneCountInString(value) < MinFieldLength {
		verr.AddField(field, "String must contain at least 3 character(s)")
	}
}

// Variant names one of the fixed image formats of an artifact set.
type Variant string

const (
	VariantSquare    Variant = "square"
	VariantLandscape Variant = "landscape"
	VariantPortrait  Variant = "portrait"
)

// ImageSpec describes the target dimensions of a variant and its file name.
type ImageSpec struct {
	Variant Variant
	Width   int
	Height  int
}

// FileName is the stored file name, e.g. 800x450.png.
func (s ImageSpec) FileName() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height) + ".png"
}

// ImageSpecs lists the variants in generation order.
var ImageSpecs = []ImageSpec{
	{Variant: VariantSquare, Width: 800, Height: 800},
	{Variant: VariantLandscape, Width: 800, Height: 450},
	{Variant: VariantPortrait, Width: 450, Height: 800},
}

// GeneratedImage is a decoded PNG returned by the image service. Width and
// Height are the decoded dimensions, which the service may round.
type GeneratedImage struct {
	Spec   ImageSpec
	Data   []byte
	Width  int
	Height int
}

// ArtifactSet is everything produced for one generation before persistence.
type ArtifactSet struct {
	ID      string
	Request GenerationRequest
	Copy    string
	Images  []GeneratedImage
}

// ImageArtifact describes a stored image inside meta.json.
type ImageArtifact struct {
	Variant Variant `json:"variant"`
	File    string  `json:"file"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Bytes   int64   `json:"bytes"`
}

// MetadataRecord is written once as meta.json next to the artifacts.
type MetadataRecord struct {
	ID                   string          `json:"id"`
	MarketingDescription string          `json:"marketingDescription"`
	ImagePrompt          string          `json:"imagePrompt"`
	CreatedAt            time.Time       `json:"createdAt"`
	Model                string          `json:"model,omitempty"`
	Images               []ImageArtifact `json:"images,omitempty"`
}

// Result is the response contract of a successful generation.
type Result struct {
	ID     string             `json:"id"`
	Copy   string             `json:"copy"`
	Images map[Variant]string `json:"images"`
}

// AssetsPrefix is the URL mount of the artifact root.
const AssetsPrefix = "/assets"

// ImageURL returns the server relative URL of a stored image.
func ImageURL(id string, spec ImageSpec) string {
	return AssetsPrefix + "/" + id + "/images/" + spec.FileName()
}

// ImageURLs maps every variant of id to its URL.
func ImageURLs(id string) map[Variant]string {
	urls := make(map[Variant]string, len(ImageSpecs))
	for _, spec := range ImageSpecs {
		urls[spec.Variant] = ImageURL(id, spec)
	}
	return urls
}
