// Package facematch implements the in-memory face matching core: cosine
// similarity over fixed-length embeddings, the shared embedding index, and
// the per-person search lifecycle (searchable / pending / resolved).
package facematch

import "math"

// Thresholds holds the similarity cutoffs used across the service.
// All values come from configuration; component code never hardcodes them.
type Thresholds struct {
	// Match is the minimum similarity for a live-camera candidate match.
	Match float32
	// Verify is the minimum similarity for two photos to count as the
	// same person during enrollment and resolve verification.
	Verify float32
	// Duplicate is the minimum similarity at which a new enrollment is
	// rejected as a duplicate of an existing record.
	Duplicate float32
}

// DefaultThresholds returns the stock threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Match:     0.5,
		Verify:    0.6,
		Duplicate: 0.7,
	}
}

// Similarity calculates the cosine similarity between two embeddings.
// The result is in [-1, 1]; identical directions score 1. Mismatched
// lengths and zero vectors score 0.
func Similarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// BestMatch scans records for the highest-similarity candidate strictly above
// threshold, skipping any record whose identity is excluded. It returns the
// winning record, its score, and whether a candidate was found. Highest score
// wins, not first-above-threshold.
func BestMatch(probe []float32, records []Record, threshold float32, excluded func(id string) bool) (Record, float32, bool) {
	var (
		best      Record
		bestScore float32
		found     bool
	)
	for _, rec := range records {
		if excluded != nil && excluded(rec.ID) {
			continue
		}
		score := Similarity(probe, rec.Vector)
		if score > threshold && score > bestScore {
			best, bestScore, found = rec, score, true
		}
	}
	return best, bestScore, found
}
