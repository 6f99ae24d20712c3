package scheduler

import (
	"time"

	"github.com/brian7m3/DRX/internal/domain/track"
)

type sudoState struct {
	lastTrigger time.Time
	currentPath string
	played      map[string]struct{}
}

// selectSudoRandom draws without replacement from the tracks not yet
// played this cycle. When every track has been played the cycle
// resets to the full set, so no track repeats before a full pass
// completes, except possibly across the reset edge. Within the hold
// interval the current selection replays instead of drawing.
func (s *Set) selectSudoRandom(b Block, entries []track.Entry) track.Entry {
	st, ok := s.sudo[b.Base]
	if !ok {
		st = &sudoState{played: make(map[string]struct{})}
		s.sudo[b.Base] = st
	}

	now := s.now()
	if current, ok := findByPath(entries, st.currentPath); ok &&
		!st.lastTrigger.IsZero() && now.Sub(st.lastTrigger) < b.Interval {
		return current
	}

	unused := entries[:0:0]
	for _, e := range entries {
		if _, done := st.played[e.Path]; !done {
			unused = append(unused, e)
		}
	}
	if len(unused) == 0 {
		st.played = make(map[string]struct{})
		unused = entries
	}

	pick := unused[s.rng.Intn(len(unused))]
	st.played[pick.Path] = struct{}{}
	st.currentPath = pick.Path
	st.lastTrigger = now
	return pick
}

// CycleExhausted reports whether a sudo-random base has played every
// available track in its current cycle.
func (s *Set) CycleExhausted(base int) bool {
	st, ok := s.sudo[base]
	if !ok {
		return false
	}
	entries := s.lib.Available(base, s.endOf(base))
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if _, done := st.played[e.Path]; !done {
			return false
		}
	}
	return true
}

func (s *Set) endOf(base int) int {
	for _, b := range s.blocks {
		if b.Base == base {
			return b.End
		}
	}
	return base
}
