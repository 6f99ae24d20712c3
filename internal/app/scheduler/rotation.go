package scheduler

import (
	"time"

	"github.com/brian7m3/DRX/internal/domain/track"
)

type rotationState struct {
	lastTrigger time.Time
	currentCode int
}

// selectRotation walks the available tracks in code order. The index
// advances only when the configured hold time has elapsed since the
// last trigger; the first trigger plays the first available track
// without advancing. Missing files shift the enumeration, they are
// not errors.
func (s *Set) selectRotation(b Block, entries []track.Entry) track.Entry {
	st, ok := s.rotation[b.Base]
	if !ok {
		st = &rotationState{}
		s.rotation[b.Base] = st
	}

	idx := 0
	for i, e := range entries {
		if e.Code == st.currentCode {
			idx = i
			break
		}
	}

	now := s.now()
	switch {
	case st.lastTrigger.IsZero():
		st.lastTrigger = now
	case now.Sub(st.lastTrigger) >= b.Interval:
		idx = (idx + 1) % len(entries)
		st.lastTrigger = now
	}

	st.currentCode = entries[idx].Code
	return entries[idx]
}
