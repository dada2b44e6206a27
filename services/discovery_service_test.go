package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"amora_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileStore struct {
	profiles   map[string]*models.UserProfile
	candidates []models.UserProfile
	scanErr    error
}

func (f *fakeProfileStore) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeProfileStore) ScanCandidates(ctx context.Context, excludeUserID string, filters DiscoveryFilters) ([]models.UserProfile, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.candidates, nil
}

type fakeInteractionFilter struct {
	excluded map[string]struct{}
}

func (f *fakeInteractionFilter) ExcludedUserIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	if f.excluded == nil {
		return map[string]struct{}{}, nil
	}
	return f.excluded, nil
}

type fakeExplainer struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (f *fakeExplainer) ExplainMatch(ctx context.Context, a, b models.ProfileSummary, similarity float64) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return "You and " + b.Name + " both love the outdoors.", nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]models.MatchCandidate
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]models.MatchCandidate{}}
}

func (f *fakeCache) Get(key string) ([]models.MatchCandidate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Set(key string, value []models.MatchCandidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
}

func profileWithEmbedding(userID string, embedding []float32) models.UserProfile {
	return models.UserProfile{
		UserID:    userID,
		Name:      "User " + userID,
		Age:       30,
		Bio:       "bio",
		Interests: "hiking, cooking",
		Embedding: embedding,
	}
}

func newDiscoveryService(profiles *fakeProfileStore, filter *fakeInteractionFilter, explain *fakeExplainer, cache MatchCache) *DiscoveryService {
	return &DiscoveryService{
		Profiles:       profiles,
		Interactions:   filter,
		Explain:        explain,
		Cache:          cache,
		ExplainTimeout: time.Second,
	}
}

func TestDiscoverUserNotFound(t *testing.T) {
	svc := newDiscoveryService(&fakeProfileStore{profiles: map[string]*models.UserProfile{}}, &fakeInteractionFilter{}, &fakeExplainer{}, nil)

	_, err := svc.Discover(context.Background(), "ghost", 5, DiscoveryFilters{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDiscoverIncompleteProfile(t *testing.T) {
	store := &fakeProfileStore{profiles: map[string]*models.UserProfile{
		"U": {UserID: "U", Name: "No Embedding"},
	}}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, &fakeExplainer{}, nil)

	_, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	assert.ErrorIs(t, err, ErrIncompleteProfile)
}

func TestDiscoverEmptyPoolIsNotAnError(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{profiles: map[string]*models.UserProfile{"U": &requester}}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, &fakeExplainer{}, nil)

	result, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDiscoverExcludesDecidedUsers(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{
		profiles: map[string]*models.UserProfile{"U": &requester},
		candidates: []models.UserProfile{
			profileWithEmbedding("A", []float32{1, 0}),
			profileWithEmbedding("B", []float32{0.9, 0.4358899}),
			profileWithEmbedding("C", []float32{0.5, 0.8660254}),
		},
	}
	// A was declined, B is already matched; only C may surface.
	filter := &fakeInteractionFilter{excluded: map[string]struct{}{
		"A": {},
		"B": {},
	}}
	svc := newDiscoveryService(store, filter, &fakeExplainer{}, nil)

	result, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "C", result[0].UserID)
}

func TestDiscoverAllCandidatesExcluded(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{
		profiles:   map[string]*models.UserProfile{"U": &requester},
		candidates: []models.UserProfile{profileWithEmbedding("A", []float32{1, 0})},
	}
	filter := &fakeInteractionFilter{excluded: map[string]struct{}{"A": {}}}
	svc := newDiscoveryService(store, filter, &fakeExplainer{}, nil)

	result, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDiscoverOrderAndTruncation(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{
		profiles: map[string]*models.UserProfile{"U": &requester},
		candidates: []models.UserProfile{
			profileWithEmbedding("low", []float32{0.1, 0.9949874}),
			profileWithEmbedding("high", []float32{1, 0}),
			profileWithEmbedding("mid", []float32{0.7, 0.7141428}),
		},
	}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, &fakeExplainer{}, nil)

	result, err := svc.Discover(context.Background(), "U", 2, DiscoveryFilters{})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "high", result[0].UserID)
	assert.Equal(t, "mid", result[1].UserID)
	assert.GreaterOrEqual(t, result[0].CompatibilityScore, result[1].CompatibilityScore)
}

func TestDiscoverOrderPreservedUnderConcurrentAnnotation(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	candidates := []models.UserProfile{
		profileWithEmbedding("c1", []float32{1, 0}),
		profileWithEmbedding("c2", []float32{0.9, 0.4358899}),
		profileWithEmbedding("c3", []float32{0.7, 0.7141428}),
		profileWithEmbedding("c4", []float32{0.5, 0.8660254}),
		profileWithEmbedding("c5", []float32{0.1, 0.9949874}),
	}
	store := &fakeProfileStore{
		profiles:   map[string]*models.UserProfile{"U": &requester},
		candidates: candidates,
	}
	// Nonzero latency so goroutines genuinely overlap.
	explain := &fakeExplainer{delay: 10 * time.Millisecond}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, explain, nil)

	result, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	require.Len(t, result, 5)
	for i, expected := range []string{"c1", "c2", "c3", "c4", "c5"} {
		assert.Equal(t, expected, result[i].UserID)
	}
}

func TestDiscoverExplanationFallback(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{
		profiles:   map[string]*models.UserProfile{"U": &requester},
		candidates: []models.UserProfile{profileWithEmbedding("A", []float32{1, 0})},
	}
	explain := &fakeExplainer{err: errors.New("model overloaded")}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, explain, nil)

	result, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, explanationFallback, result[0].Explanation)
}

func TestDiscoverExplanationTimeoutFallsBack(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{
		profiles:   map[string]*models.UserProfile{"U": &requester},
		candidates: []models.UserProfile{profileWithEmbedding("A", []float32{1, 0})},
	}
	explain := &fakeExplainer{delay: time.Second}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, explain, nil)
	svc.ExplainTimeout = 20 * time.Millisecond

	result, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, explanationFallback, result[0].Explanation)
}

func TestDiscoverCacheHitSkipsRecompute(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	store := &fakeProfileStore{
		profiles:   map[string]*models.UserProfile{"U": &requester},
		candidates: []models.UserProfile{profileWithEmbedding("A", []float32{1, 0})},
	}
	explain := &fakeExplainer{}
	cache := newFakeCache()
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, explain, cache)

	first, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, explain.calls)

	second, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, explain.calls, "cache hit must not re-run explanations")
}

func TestDiscoverScanErrorPropagates(t *testing.T) {
	requester := profileWithEmbedding("U", []float32{1, 0})
	scanErr := errors.New("throttled")
	store := &fakeProfileStore{
		profiles: map[string]*models.UserProfile{"U": &requester},
		scanErr:  scanErr,
	}
	svc := newDiscoveryService(store, &fakeInteractionFilter{}, &fakeExplainer{}, nil)

	_, err := svc.Discover(context.Background(), "U", 5, DiscoveryFilters{})
	assert.ErrorIs(t, err, scanErr)
}
