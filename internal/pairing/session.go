package pairing

import (
	"kickelo/internal/domain"
	"time"
)

// Split divides chronological matches into the current session and the rest.
// The session is the trailing run with no gap above sessionGap, and it is empty
// once the latest match is more than sessionGap before now.
func Split(chronological []domain.Match, sessionGap time.Duration, now time.Time) (session, historic []domain.Match) {
	if len(chronological) == 0 {
		return nil, nil
	}
	gap := sessionGap.Milliseconds()

	last := chronological[len(chronological)-1]
	if !now.IsZero() && now.UnixMilli()-last.Timestamp > gap {
		return nil, chronological
	}

	start := len(chronological) - 1
	for start > 0 && chronological[start].Timestamp-chronological[start-1].Timestamp <= gap {
		start--
	}
	return chronological[start:], chronological[:start]
}

// SessionKey identifies a session for tie-breaking: its first match, else the
// latest match overall, else zero.
func SessionKey(session, chronological []domain.Match) int64 {
	if len(session) > 0 {
		return session[0].Timestamp
	}
	if len(chronological) > 0 {
		return chronological[len(chronological)-1].Timestamp
	}
	return 0
}
