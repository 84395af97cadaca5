package query

import (
	"math"
	"sort"
	"time"

	"github.com/nickhighforce/highforce/internal/domain/doctype"
	"github.com/nickhighforce/highforce/internal/domain/search/candidate"
)

const secondsPerDay = 86400

// DecayTable maps document types to ranking half-lives in days. Content loses
// half its ranking weight per half-life of age.
type DecayTable struct {
	HalfLives map[doctype.Type]float64
	// Default applies to types without an entry.
	Default float64
}

// DefaultDecayTable ages conversational content fast and reference material slowly.
func DefaultDecayTable() DecayTable {
	return DecayTable{
		HalfLives: map[doctype.Type]float64{
			doctype.Conversational: 30,
			doctype.Reference:      90,
		},
		Default: 90,
	}
}

func (t DecayTable) halfLifeFor(dt doctype.Type) float64 {
	if hl, ok := t.HalfLives[dt]; ok && hl > 0 {
		return hl
	}
	return t.Default
}

// rerank applies recency decay to raw similarities and orders candidates by
// the decayed score. Candidates without a timestamp keep their similarity
// unchanged. Ties break by raw similarity, then by document id, so equal
// inputs always rank identically.
func rerank(cands []candidate.Candidate, table DecayTable, now time.Time) []candidate.Candidate {
	ranked := make([]candidate.Candidate, 0, len(cands))
	nowTS := now.Unix()

	for _, c := range cands {
		ch := c.Chunk()
		createdAt := ch.CreatedAt()
		if createdAt == 0 {
			ranked = append(ranked, c)
			continue
		}

		ageDays := float64(nowTS-createdAt) / secondsPerDay
		if ageDays < 0 {
			ageDays = 0
		}

		halfLife := table.halfLifeFor(ch.Payload().Type)
		multiplier := math.Pow(0.5, ageDays/halfLife)
		ranked = append(ranked, c.WithDecayed(c.Similarity()*multiplier))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Decayed() != ranked[j].Decayed() {
			return ranked[i].Decayed() > ranked[j].Decayed()
		}
		if ranked[i].Similarity() != ranked[j].Similarity() {
			return ranked[i].Similarity() > ranked[j].Similarity()
		}
		ci, cj := ranked[i].Chunk(), ranked[j].Chunk()
		return ci.DocumentID() < cj.DocumentID()
	})

	return ranked
}
