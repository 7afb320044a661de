package tracking

import "time"

// Session is an explicit auth snapshot injected at construction instead of
// read from ambient state, so tests can hand the tracker authenticated,
// expired, or absent sessions deterministically.
type Session struct {
	UserID    string
	ExpiresAt time.Time // zero = no expiry
}

func (s Session) Authenticated(now time.Time) bool {
	if s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
