package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"amora_server/metrics"
	"amora_server/models"

	"github.com/google/uuid"
)

// ActionResult is returned after a like/pass action.
type ActionResult struct {
	MatchID string `json:"matchId,omitempty"`
	Status  string `json:"status"`
	IsMatch bool   `json:"isMatch"`
}

// Invalidator evicts cached discovery results for a user. Satisfied by
// *CacheService; nil disables invalidation (and therefore caching must be
// off too).
type Invalidator interface {
	InvalidateUser(userID string)
}

// InteractionService owns the like/pass state machine:
//
//	none -> pending   (first like)
//	none -> declined  (pass with no prior record)
//	pending -> matched   (the second party likes back)
//	pending|matched -> declined (either party passes after the fact;
//	    unmatching an active match collapses into the same status as a
//	    pre-match decline, mirroring the original product behavior)
//	blocked: terminal, no transitions out
type InteractionService struct {
	Store    InteractionStore
	Profiles ProfileStore
	Explain  Explainer
	Cache    Invalidator

	// ExplainTimeout bounds the best-effort explanation generated when a
	// pair becomes matched.
	ExplainTimeout time.Duration
}

// ProcessAction applies a like or pass from actorID to targetID and returns
// the resulting pair status.
func (s *InteractionService) ProcessAction(ctx context.Context, actorID, targetID, action string) (*ActionResult, error) {
	if action != models.ActionLike && action != models.ActionPass {
		return nil, ErrInvalidAction
	}
	if actorID == targetID {
		return nil, ErrSelfAction
	}

	result, err := s.applyAction(ctx, actorID, targetID, action)
	if err != nil {
		return nil, err
	}

	// Showing an already-decided candidate again is a correctness bug, so
	// both members' cached discovery results go immediately.
	if s.Cache != nil {
		s.Cache.InvalidateUser(actorID)
		s.Cache.InvalidateUser(targetID)
	}
	metrics.InteractionActions.WithLabelValues(action, result.Status).Inc()
	return result, nil
}

func (s *InteractionService) applyAction(ctx context.Context, actorID, targetID, action string) (*ActionResult, error) {
	userID1, userID2, pairID := models.CanonicalPair(actorID, targetID)

	// First attempt: create a fresh record. A conditional put keeps the
	// pair unique even when both users act within the same instant; the
	// loser of that race falls through to the update path below.
	rec := models.Interaction{
		PairID:      pairID,
		ID:          uuid.NewString(),
		UserID1:     userID1,
		UserID2:     userID2,
		InitiatorID: actorID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if action == models.ActionLike {
		rec.Status = models.StatusPending
		rec.CompatibilityScore = s.pairCompatibility(ctx, actorID, targetID)
	} else {
		rec.Status = models.StatusDeclined
	}

	err := s.Store.CreateInteraction(ctx, rec)
	if err == nil {
		return &ActionResult{MatchID: rec.ID, Status: rec.Status, IsMatch: false}, nil
	}
	if !errors.Is(err, ErrInteractionExists) {
		return nil, err
	}

	// A record exists; apply the transition against it. The transition is
	// conditional on the status it was read in, retried once if a
	// concurrent writer moved it first.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.Store.GetInteraction(ctx, pairID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("interaction %s vanished after conflict", pairID)
		}

		result, stale, err := s.transition(ctx, existing, actorID, action)
		if err != nil {
			return nil, err
		}
		if !stale {
			return result, nil
		}
	}
	return nil, fmt.Errorf("interaction %s kept changing concurrently", pairID)
}

// transition applies one action to an existing record. stale=true means the
// record moved under us and the caller should re-read and retry.
func (s *InteractionService) transition(ctx context.Context, existing *models.Interaction, actorID, action string) (*ActionResult, bool, error) {
	current := existing.Status

	// blocked is terminal.
	if current == models.StatusBlocked {
		return &ActionResult{MatchID: existing.ID, Status: current, IsMatch: false}, false, nil
	}

	if action == models.ActionPass {
		if current == models.StatusDeclined {
			return &ActionResult{MatchID: existing.ID, Status: current, IsMatch: false}, false, nil
		}
		updated, err := s.Store.TransitionStatus(ctx, existing.PairID, current, models.StatusDeclined)
		if errors.Is(err, ErrStaleTransition) {
			return nil, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		return &ActionResult{MatchID: updated.ID, Status: updated.Status, IsMatch: false}, false, nil
	}

	// Like on an existing record.
	switch current {
	case models.StatusPending:
		if existing.InitiatorID == actorID {
			// Duplicate like from the same side.
			return &ActionResult{MatchID: existing.ID, Status: current, IsMatch: false}, false, nil
		}
		updated, err := s.Store.TransitionStatus(ctx, existing.PairID, models.StatusPending, models.StatusMatched)
		if errors.Is(err, ErrStaleTransition) {
			// The concurrent writer may already have completed the
			// match; re-reading settles it.
			return nil, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		log.Printf("Match created between %s and %s", updated.UserID1, updated.UserID2)
		s.storeExplanation(ctx, updated)
		return &ActionResult{MatchID: updated.ID, Status: updated.Status, IsMatch: true}, false, nil
	case models.StatusMatched:
		return &ActionResult{MatchID: existing.ID, Status: current, IsMatch: true}, false, nil
	default:
		// A like does not resurrect a declined pair.
		return &ActionResult{MatchID: existing.ID, Status: current, IsMatch: false}, false, nil
	}
}

// pairCompatibility computes the stored compatibility percentage for a new
// record. Missing profiles or embeddings degrade to 0 rather than failing
// the action.
func (s *InteractionService) pairCompatibility(ctx context.Context, actorID, targetID string) int {
	if s.Profiles == nil {
		return 0
	}
	actor, err := s.Profiles.GetUserProfile(ctx, actorID)
	if err != nil || actor == nil || !actor.HasEmbedding() {
		return 0
	}
	target, err := s.Profiles.GetUserProfile(ctx, targetID)
	if err != nil || target == nil || !target.HasEmbedding() {
		return 0
	}
	return CompatibilityPercent(CosineSimilarity(actor.Embedding, target.Embedding))
}

// storeExplanation generates and stores a rationale for a fresh match.
// Best-effort: failures are logged and swallowed.
func (s *InteractionService) storeExplanation(ctx context.Context, rec *models.Interaction) {
	if s.Explain == nil || s.Profiles == nil {
		return
	}
	a, err := s.Profiles.GetUserProfile(ctx, rec.UserID1)
	if err != nil || a == nil {
		return
	}
	b, err := s.Profiles.GetUserProfile(ctx, rec.UserID2)
	if err != nil || b == nil {
		return
	}

	timeout := s.ExplainTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	explainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	similarity := float64(rec.CompatibilityScore) / 100
	explanation, err := s.Explain.ExplainMatch(explainCtx, a.Summary(), b.Summary(), similarity)
	if err != nil {
		log.Printf("explanation for match %s skipped: %v", rec.ID, err)
		return
	}
	if err := s.Store.SetExplanation(ctx, rec.PairID, explanation); err != nil {
		log.Printf("failed to store explanation for match %s: %v", rec.ID, err)
	}
}

// ExcludedUserIDs returns the set of users who must not resurface in
// discovery for userID: anyone sharing an interaction record, regardless of
// status.
func (s *InteractionService) ExcludedUserIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	interactions, err := s.Store.ListInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(interactions))
	for _, rec := range interactions {
		excluded[rec.OtherUser(userID)] = struct{}{}
	}
	return excluded, nil
}

// GetCurrentMatches returns the user's mutual matches enriched with the
// counterpart profile, newest first.
func (s *InteractionService) GetCurrentMatches(ctx context.Context, userID string) ([]models.MatchedUser, error) {
	interactions, err := s.Store.ListInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}

	matches := make([]models.MatchedUser, 0, len(interactions))
	for _, rec := range interactions {
		if rec.Status != models.StatusMatched {
			continue
		}
		otherID := rec.OtherUser(userID)
		profile, err := s.Profiles.GetUserProfile(ctx, otherID)
		if err != nil || profile == nil {
			// Orphaned record; skip rather than fail the listing.
			continue
		}
		matches = append(matches, models.MatchedUser{
			MatchID:            rec.ID,
			UserID:             otherID,
			Name:               profile.Name,
			Age:                profile.Age,
			Bio:                profile.Bio,
			Interests:          profile.InterestList(),
			Photos:             profile.Photos,
			Location:           profile.Location,
			CompatibilityScore: rec.CompatibilityScore,
			Explanation:        rec.Explanation,
			MatchedAt:          rec.UpdatedAt,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchedAt > matches[j].MatchedAt
	})
	return matches, nil
}

// GetMatchDetail returns the counterpart profile for an active match.
func (s *InteractionService) GetMatchDetail(ctx context.Context, userID, otherUserID string) (*models.MatchedUser, error) {
	_, _, pairID := models.CanonicalPair(userID, otherUserID)
	rec, err := s.Store.GetInteraction(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	if rec.Status != models.StatusMatched {
		return nil, ErrNotMatched
	}

	profile, err := s.Profiles.GetUserProfile(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	return &models.MatchedUser{
		MatchID:            rec.ID,
		UserID:             otherUserID,
		Name:               profile.Name,
		Age:                profile.Age,
		Bio:                profile.Bio,
		Interests:          profile.InterestList(),
		Photos:             profile.Photos,
		Location:           profile.Location,
		CompatibilityScore: rec.CompatibilityScore,
		Explanation:        rec.Explanation,
		MatchedAt:          rec.UpdatedAt,
	}, nil
}

// MatchedPair returns the interaction record when the two users are matched.
func (s *InteractionService) MatchedPair(ctx context.Context, userID, otherUserID string) (*models.Interaction, error) {
	_, _, pairID := models.CanonicalPair(userID, otherUserID)
	rec, err := s.Store.GetInteraction(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Status != models.StatusMatched {
		return nil, ErrNotMatched
	}
	return rec, nil
}
