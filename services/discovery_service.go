package services

import (
	"context"
	"log"
	"sync"
	"time"

	"amora_server/metrics"
	"amora_server/models"
)

// explanationFallback is attached to a candidate whenever the explanation
// service fails or times out. Discovery never fails because of it.
const explanationFallback = "You both share similar interests and values, making you a great potential match!"

// DiscoveryFilters scope a candidate scan.
type DiscoveryFilters struct {
	MinAge *int
	MaxAge *int
	Gender string
}

// ProfileStore is the profile access the discovery and interaction services
// need.
type ProfileStore interface {
	// GetUserProfile returns the profile, or nil when the user has none.
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	// ScanCandidates returns profiles matching the filters, excluding
	// excludeUserID and anyone without an embedding.
	ScanCandidates(ctx context.Context, excludeUserID string, f DiscoveryFilters) ([]models.UserProfile, error)
}

// Explainer produces a short compatibility rationale for two profiles.
type Explainer interface {
	ExplainMatch(ctx context.Context, a, b models.ProfileSummary, similarity float64) (string, error)
}

// InteractionFilter supplies the users already decided on, who must not
// resurface in discovery.
type InteractionFilter interface {
	ExcludedUserIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}

// MatchCache caches whole discovery results. nil disables caching; discovery
// works the same, just slower.
type MatchCache interface {
	Get(key string) ([]models.MatchCandidate, bool)
	Set(key string, value []models.MatchCandidate)
}

// DiscoveryService composes the profile scan, the similarity ranker, the
// interaction filter and the explanation service into the discover
// operation.
type DiscoveryService struct {
	Profiles     ProfileStore
	Interactions InteractionFilter
	Explain      Explainer
	Cache        MatchCache

	// ExplainTimeout bounds each per-candidate explanation call.
	ExplainTimeout time.Duration
}

// Discover returns up to limit annotated candidates for userID, best first.
// An empty slice with a nil error means no candidates are available right
// now, which is distinct from ErrUserNotFound and ErrIncompleteProfile.
func (s *DiscoveryService) Discover(ctx context.Context, userID string, limit int, f DiscoveryFilters) ([]models.MatchCandidate, error) {
	timer := metrics.NewTimer(metrics.DiscoveryDuration)
	defer timer.ObserveDuration()
	metrics.DiscoveryRequests.Inc()

	cacheKey := DiscoverKey(userID, limit, f)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(cacheKey); ok {
			metrics.DiscoveryCacheHits.Inc()
			return cached, nil
		}
		metrics.DiscoveryCacheMisses.Inc()
	}

	profile, err := s.Profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	if !profile.HasEmbedding() {
		return nil, ErrIncompleteProfile
	}

	candidates, err := s.Profiles.ScanCandidates(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	// Rank the full candidate set, then subtract already-decided users
	// before truncating. Ranking everything up front means the result is
	// short only when candidates are genuinely exhausted, never because
	// an over-fetch factor was too small.
	ranked := RankCandidates(profile.Embedding, candidates)

	excluded, err := s.Interactions.ExcludedUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	surviving := make([]RankedCandidate, 0, limit)
	for _, candidate := range ranked {
		if _, decided := excluded[candidate.Profile.UserID]; decided {
			continue
		}
		surviving = append(surviving, candidate)
		if len(surviving) == limit {
			break
		}
	}
	if len(surviving) == 0 {
		return []models.MatchCandidate{}, nil
	}

	result := s.annotate(ctx, profile, surviving)

	if s.Cache != nil {
		s.Cache.Set(cacheKey, result)
	}
	return result, nil
}

// annotate attaches an explanation and compatibility percentage to each
// surviving candidate. Explanations fan out concurrently since the
// generation round trip dominates latency; each result is written back to
// its own slot so ranked order is preserved.
func (s *DiscoveryService) annotate(ctx context.Context, requester *models.UserProfile, surviving []RankedCandidate) []models.MatchCandidate {
	result := make([]models.MatchCandidate, len(surviving))

	var wg sync.WaitGroup
	for i, candidate := range surviving {
		wg.Add(1)
		go func(i int, candidate RankedCandidate) {
			defer wg.Done()
			result[i] = models.MatchCandidate{
				UserID:             candidate.Profile.UserID,
				Name:               candidate.Profile.Name,
				Age:                candidate.Profile.Age,
				Gender:             candidate.Profile.Gender,
				Bio:                candidate.Profile.Bio,
				Interests:          candidate.Profile.InterestList(),
				Photos:             candidate.Profile.Photos,
				Location:           candidate.Profile.Location,
				CompatibilityScore: CompatibilityPercent(candidate.Score),
				Explanation:        s.explainCandidate(ctx, requester, candidate),
			}
		}(i, candidate)
	}
	wg.Wait()
	return result
}

// explainCandidate runs a single timeout-bounded explanation call and
// degrades to the fallback text on any failure.
func (s *DiscoveryService) explainCandidate(ctx context.Context, requester *models.UserProfile, candidate RankedCandidate) string {
	if s.Explain == nil {
		metrics.ExplanationFallbacks.Inc()
		return explanationFallback
	}

	timeout := s.ExplainTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	explainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	explanation, err := s.Explain.ExplainMatch(explainCtx, requester.Summary(), candidate.Profile.Summary(), candidate.Score)
	if err != nil {
		log.Printf("explanation degraded for candidate %s: %v", candidate.Profile.UserID, err)
		metrics.ExplanationFallbacks.Inc()
		return explanationFallback
	}
	return explanation
}
