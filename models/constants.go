package models

// Interaction statuses
const (
	StatusPending  = "pending"
	StatusMatched  = "matched"
	StatusDeclined = "declined"
	StatusBlocked  = "blocked"
)

// Actions a user can take on a candidate
const (
	ActionLike = "like"
	ActionPass = "pass"
)

// ValidStatus reports whether s is a known interaction status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusMatched, StatusDeclined, StatusBlocked:
		return true
	}
	return false
}
