package uuidutil

import "github.com/google/uuid"

// NewV4 generates a random UUID v4 string.
func NewV4() string {
	return uuid.NewString()
}

// NewShort returns the first 12 hex digits of a fresh UUID. Used for ids that
// only need to be unique within one report or one history sequence.
func NewShort() string {
	u := uuid.New()
	s := u.String()
	return s[:8] + s[9:13]
}
