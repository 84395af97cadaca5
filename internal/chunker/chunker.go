// Package chunker splits document text into overlapping sentence-based spans
// before embedding.
package chunker

import (
	"regexp"
	"strings"
)

// Splitter produces sentence-based chunks with overlap.
type Splitter struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// New creates a Splitter. Non-positive sizes fall back to defaults.
func New(sentencesPerChunk, overlapSentences int) *Splitter {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 8
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 1
	}
	return &Splitter{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Split returns the chunk texts for the given document text. Text without
// sentence terminators becomes a single chunk; blank text yields none.
func (s *Splitter) Split(text string) []string {
	sentences := s.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i + s.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - s.overlapSentences
	}
	return chunks
}
