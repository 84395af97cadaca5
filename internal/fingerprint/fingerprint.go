// Package fingerprint computes the normalized-content hash used for
// exact-duplicate detection at ingestion time.
//
// Normalization catches near-duplicates differing only in case or whitespace.
// Content differing in punctuation, numerals, or word order hashes differently;
// that is an accepted limitation, not a defect.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Normalize lowercases the text, collapses whitespace runs to a single space,
// and trims the ends.
func Normalize(text string) string {
	normalized := strings.ToLower(text)
	normalized = whitespaceRuns.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// Hash returns the hex SHA-256 digest of the normalized text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
