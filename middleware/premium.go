package middleware

import (
	"context"
	"net/http"
	"time"

	"amora_server/models"
)

// ProfileFetcher is the slice of the profile service the premium gate needs.
type ProfileFetcher interface {
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// RequirePremium gates a route behind an active premium subscription. It
// must run after RequireUser.
func RequirePremium(profiles ProfileFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserID(r)
			if userID == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			profile, err := profiles.GetUserProfile(r.Context(), userID)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to verify subscription")
				return
			}
			if profile == nil || !premiumActive(profile) {
				writeJSONError(w, http.StatusForbidden, "premium subscription required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func premiumActive(profile *models.UserProfile) bool {
	if !profile.IsPremium {
		return false
	}
	if profile.PremiumUntil == "" {
		return true
	}
	until, err := time.Parse(time.RFC3339, profile.PremiumUntil)
	if err != nil {
		return false
	}
	return until.After(time.Now())
}
