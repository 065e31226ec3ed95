package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerationIDLength is the number of hex characters kept from the digest.
const GenerationIDLength = 16

// NewGenerationID hashes the wall-clock time together with both inputs. The
// time component, at nanosecond resolution, makes identical requests yield
// distinct ids even when submitted within the same millisecond.
func NewGenerationID(now time.Time, marketingDescription, imagePrompt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d-%s-%s", now.UnixNano(), marketingDescription, imagePrompt)))
	return hex.EncodeToString(sum[:])[:GenerationIDLength]
}

// IsGenerationID reports whether id has the shape produced by NewGenerationID.
func IsGenerationID(id string) bool {
	if len(id) != GenerationIDLength {
		return false
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
