package services

import "errors"

// Sentinel errors surfaced to the HTTP layer. Anything else coming out of a
// service is treated as an upstream failure (500-equivalent).
var (
	// ErrUserNotFound means the user or their profile does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrIncompleteProfile means the profile exists but has no embedding
	// yet; the caller must finish onboarding before discovery can work.
	ErrIncompleteProfile = errors.New("profile has no embedding")

	// ErrSelfAction rejects like/pass actions targeting the acting user.
	ErrSelfAction = errors.New("cannot act on yourself")

	// ErrInvalidAction rejects actions other than like/pass.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNotMatched rejects chat operations on pairs that are not matched.
	ErrNotMatched = errors.New("users are not matched")
)
