package scheduler

import (
	"time"

	"github.com/brian7m3/DRX/internal/domain/track"
)

type randomState struct {
	lastTrigger time.Time
	currentPath string
}

// selectRandom replays the current selection until the interval has
// elapsed, then picks uniformly among all available tracks. Repeats
// are allowed. A selection whose file has disappeared forces a fresh
// pick regardless of the interval.
func (s *Set) selectRandom(b Block, entries []track.Entry) track.Entry {
	st, ok := s.random[b.Base]
	if !ok {
		st = &randomState{}
		s.random[b.Base] = st
	}

	now := s.now()
	if current, ok := findByPath(entries, st.currentPath); ok &&
		!st.lastTrigger.IsZero() && now.Sub(st.lastTrigger) < b.Interval {
		return current
	}

	pick := entries[s.rng.Intn(len(entries))]
	st.currentPath = pick.Path
	st.lastTrigger = now
	return pick
}

func findByPath(entries []track.Entry, path string) (track.Entry, bool) {
	if path == "" {
		return track.Entry{}, false
	}
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return track.Entry{}, false
}
