package services

import (
	"fmt"
	"math"
	"sort"

	"amora_server/models"
)

// RankedCandidate pairs a candidate profile with its similarity to the query
// embedding.
type RankedCandidate struct {
	Profile models.UserProfile
	Score   float64
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||) in [-1, 1]. A zero
// vector on either side yields 0.0 rather than an error. A dimension
// mismatch is a caller contract violation (profiles are stored with a fixed
// embedding dimension) and panics.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("embedding dimension mismatch: %d vs %d", len(a), len(b)))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2))
}

// RankCandidates scores every candidate against the query embedding and
// returns them ordered by similarity descending. Ties keep input order.
// Candidates without an embedding are skipped; inputs are not mutated.
func RankCandidates(query []float32, candidates []models.UserProfile) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if !candidate.HasEmbedding() {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			Profile: candidate,
			Score:   CosineSimilarity(query, candidate.Embedding),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// CompatibilityPercent converts a similarity score to an integer percentage,
// rounded and clamped to [0, 100].
func CompatibilityPercent(similarity float64) int {
	score := int(math.Round(similarity * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
