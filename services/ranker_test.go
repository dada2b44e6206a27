package services

import (
	"testing"

	"amora_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.5, 0.25, 0.1}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		a := []float32{1, 0}
		b := []float32{0, 1}
		assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{-1, -2, -3}
		assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := []float32{0.3, 0.9, 0.1, 0.4}
		b := []float32{0.8, 0.2, 0.5, 0.6}
		assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
	})

	t.Run("zero vector scores 0", func(t *testing.T) {
		a := []float32{0, 0, 0}
		b := []float32{1, 2, 3}
		assert.Equal(t, 0.0, CosineSimilarity(a, b))
		assert.Equal(t, 0.0, CosineSimilarity(b, a))
	})

	t.Run("dimension mismatch panics", func(t *testing.T) {
		assert.Panics(t, func() {
			CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		})
	})
}

func TestRankCandidates(t *testing.T) {
	query := []float32{1, 0}

	profiles := []models.UserProfile{
		{UserID: "Y", Embedding: []float32{0.5, 0.8660254}}, // ~0.5
		{UserID: "X", Embedding: []float32{0.9, 0.4358899}}, // ~0.9
		{UserID: "Z", Embedding: []float32{0.1, 0.9949874}}, // ~0.1
	}

	ranked := RankCandidates(query, profiles)
	require.Len(t, ranked, 3)
	assert.Equal(t, "X", ranked[0].Profile.UserID)
	assert.Equal(t, "Y", ranked[1].Profile.UserID)
	assert.Equal(t, "Z", ranked[2].Profile.UserID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Greater(t, ranked[1].Score, ranked[2].Score)
}

func TestRankCandidatesSkipsMissingEmbeddings(t *testing.T) {
	query := []float32{1, 0}
	profiles := []models.UserProfile{
		{UserID: "A", Embedding: []float32{1, 0}},
		{UserID: "B"},
		{UserID: "C", Embedding: []float32{0, 1}},
	}

	ranked := RankCandidates(query, profiles)
	require.Len(t, ranked, 2)
	assert.Equal(t, "A", ranked[0].Profile.UserID)
	assert.Equal(t, "C", ranked[1].Profile.UserID)
}

func TestRankCandidatesStableOnTies(t *testing.T) {
	query := []float32{1, 0}
	// Same vector, so identical scores; input order must survive.
	profiles := []models.UserProfile{
		{UserID: "first", Embedding: []float32{2, 0}},
		{UserID: "second", Embedding: []float32{3, 0}},
		{UserID: "third", Embedding: []float32{4, 0}},
	}

	ranked := RankCandidates(query, profiles)
	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Profile.UserID)
	assert.Equal(t, "second", ranked[1].Profile.UserID)
	assert.Equal(t, "third", ranked[2].Profile.UserID)
}

func TestRankCandidatesEmptyInput(t *testing.T) {
	ranked := RankCandidates([]float32{1, 0}, nil)
	assert.Empty(t, ranked)
}

func TestCompatibilityPercent(t *testing.T) {
	assert.Equal(t, 100, CompatibilityPercent(1.0))
	assert.Equal(t, 0, CompatibilityPercent(-1.0))
	assert.Equal(t, 0, CompatibilityPercent(0.0))
	assert.Equal(t, 76, CompatibilityPercent(0.755))
	assert.Equal(t, 50, CompatibilityPercent(0.5))
	assert.Equal(t, 100, CompatibilityPercent(1.2))
}
