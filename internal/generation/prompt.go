package generation

import (
	"fmt"
	"strings"

	"campaignomatic/internal/domain"
)

const copyInstruction = "Write one concise marketing paragraph (3-5 sentences). Avoid bullets."

const imageStyle = "Style: clean, modern, high-contrast, ad-ready."

// CopyPrompt is the text sent to the copy model.
func CopyPrompt(req domain.GenerationRequest) string {
	return fmt.Sprintf("%s\nCampaign: %s", copyInstruction, strings.TrimSpace(req.MarketingDescription))
}

// ImagePrompt is the prompt sent once per image size. The generated copy is
// deliberately not part of it so images can render alongside the copy.
func ImagePrompt(req domain.GenerationRequest) string {
	return fmt.Sprintf("%s. %s Campaign context: %s",
		strings.TrimSpace(req.ImagePrompt), imageStyle, strings.TrimSpace(req.MarketingDescription))
}
