package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"campaignomatic/internal/domain"
)

// DecodePNG turns a txt2img payload into PNG bytes. Data URI prefixes are
// tolerated; anything that is not a PNG is reported as an upstream failure.
func DecodePNG(spec domain.ImageSpec, payload string) (domain.GeneratedImage, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.Index(payload, ";base64,"); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.GeneratedImage{}, &domain.UpstreamError{
			Service: ServiceName,
			Message: fmt.Sprintf("StableDiffusion returned an invalid %s image", spec.Variant),
			Err:     err,
		}
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.GeneratedImage{}, &domain.UpstreamError{
			Service: ServiceName,
			Message: fmt.Sprintf("StableDiffusion returned a non-PNG %s image", spec.Variant),
			Err:     err,
		}
	}
	return domain.GeneratedImage{Spec: spec, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}
