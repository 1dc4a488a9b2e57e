// Package fusion merges ranked retrieval lists with reciprocal rank
// fusion (RRF). Each item contributes weight/(k+rank+1) per list it
// appears in; the fused score is the sum of its contributions, so an item
// present in several lists outranks one of equal position present in one.
package fusion

import (
	"sort"

	"Minerva_AI/backend/go/internal/retrieval_service/engine/schema"
)

// DefaultK is the standard RRF rank-damping constant.
const DefaultK = 60

// Fuse merges the given ranked lists (each already sorted best-first) into
// a single list sorted by descending fused score. weights[i] scales the
// contribution of lists[i]; missing weights default to 1. A non-positive k
// falls back to DefaultK; limit truncates the output when positive.
//
// Ties are broken by the original dense distance ascending, then by chunk
// id, so the output is deterministic for identical inputs regardless of
// map iteration order.
func Fuse(lists [][]*schema.RankedHit, weights []float64, k, limit int) []*schema.FusedHit {
	if k <= 0 {
		k = DefaultK
	}

	fused := make(map[string]*schema.FusedHit)
	for li, list := range lists {
		weight := 1.0
		if li < len(weights) {
			weight = weights[li]
		}
		for rank, hit := range list {
			contribution := weight / float64(k+rank+1)
			entry, ok := fused[hit.ChunkID]
			if !ok {
				entry = &schema.FusedHit{RankedHit: *hit}
				fused[hit.ChunkID] = entry
			} else if entry.Modality != schema.ModalityDense && hit.Modality == schema.ModalityDense {
				// Keep the dense hit as the representative so tie-breaking
				// always compares dense distances.
				score := entry.FusedScore
				*entry = schema.FusedHit{RankedHit: *hit, FusedScore: score}
			}
			entry.FusedScore += contribution
		}
	}

	out := make([]*schema.FusedHit, 0, len(fused))
	for _, entry := range fused {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AsRankedHits exposes the embedded hits of a fused list so it can feed a
// second fusion stage. The slice shares backing structs with the input.
func AsRankedHits(fused []*schema.FusedHit) []*schema.RankedHit {
	hits := make([]*schema.RankedHit, len(fused))
	for i := range fused {
		hits[i] = &fused[i].RankedHit
	}
	return hits
}
