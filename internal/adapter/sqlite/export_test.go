package sqlite

import "time"

// SetClock replaces the session store's time source.
func SetClock(s *SessionStore, now func() time.Time) {
	s.now = now
}
