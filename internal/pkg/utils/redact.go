package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// RedactSubject replaces a patient or resource identifier with a stable
// pseudonym for exported audit views. The same subject always maps to
// the same pseudonym so disclosure reports remain joinable without
// exposing the raw identifier.
func RedactSubject(subject string) string {
	if subject == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(subject))
	return "phi-" + hex.EncodeToString(sum[:8])
}
