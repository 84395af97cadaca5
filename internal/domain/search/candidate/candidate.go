// Package candidate defines the ephemeral ranked search hit.
package candidate

import "github.com/nickhighforce/highforce/internal/domain/chunk"

// Candidate pairs a retrieved chunk with its raw similarity and, after rank
// fusion, its recency-decayed score. Produced per query and discarded.
type Candidate struct {
	chunk      chunk.Chunk
	similarity float64
	decayed    float64
}

// New creates a candidate with the raw similarity score. The decayed score
// starts equal to the similarity until rank fusion adjusts it.
func New(c chunk.Chunk, similarity float64) Candidate {
	return Candidate{chunk: c, similarity: similarity, decayed: similarity}
}

// Chunk returns the retrieved fragment.
func (c *Candidate) Chunk() chunk.Chunk { return c.chunk }

// Similarity returns the raw similarity score from the index.
func (c *Candidate) Similarity() float64 { return c.similarity }

// Decayed returns the recency-adjusted score.
func (c *Candidate) Decayed() float64 { return c.decayed }

// WithDecayed returns a copy with the decayed score set.
func (c Candidate) WithDecayed(score float64) Candidate {
	c.decayed = score
	return c
}
