package models

// MatchCandidate is one annotated entry in a discovery result, ordered by
// compatibility. It is ephemeral: candidates are recomputed per request and
// only cached for a short window.
type MatchCandidate struct {
	UserID             string   `json:"userId"`
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Gender             string   `json:"gender"`
	Bio                string   `json:"bio"`
	Interests          []string `json:"interests"`
	Photos             []string `json:"photos"`
	Location           string   `json:"location"`
	CompatibilityScore int      `json:"compatibilityScore"`
	Explanation        string   `json:"explanation"`
}

// MatchedUser is one entry in a user's matches list, enriched with the
// counterpart profile and the stored score/explanation.
type MatchedUser struct {
	MatchID            string   `json:"matchId"`
	UserID             string   `json:"userId"`
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Bio                string   `json:"bio"`
	Interests          []string `json:"interests"`
	Photos             []string `json:"photos"`
	Location           string   `json:"location"`
	CompatibilityScore int      `json:"compatibilityScore"`
	Explanation        string   `json:"explanation,omitempty"`
	MatchedAt          string   `json:"matchedAt,omitempty"`
}
