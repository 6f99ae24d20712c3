// Package scheduler implements the per-base track selection policies:
// rotation, random, sudo-random (random without replacement per
// cycle) and the alternate-series pointers.
package scheduler

import (
	"math/rand"
	"time"

	"github.com/brian7m3/DRX/internal/domain/track"
)

// Kind names a selection policy.
type Kind string

const (
	KindRotation   Kind = "rotation"
	KindRandom     Kind = "random"
	KindSudoRandom Kind = "sudo_random"
)

// Block is one configured base range governed by a single scheduler
// instance. Interval is the hold time before the selection may move
// on (rotation advance time, random/sudo-random re-pick interval).
type Block struct {
	Kind     Kind
	Base     int
	End      int
	Interval time.Duration
}

// Library is the slice of the track library the schedulers need.
type Library interface {
	Available(base, end int) []track.Entry
}

// Match classifies how a code relates to a configured block.
type Match int

const (
	MatchNone  Match = iota // code is outside every block
	MatchBase               // code equals a block's base: trigger selection
	MatchRange              // code inside (base, end]: direct play
)

// Set owns the mutable selection state for every configured block.
// All methods must be called from the single dispatch goroutine; the
// state needs no locking because each base is only ever touched by
// its own scheduling call path.
type Set struct {
	blocks []Block
	lib    Library
	now    func() time.Time
	rng    *rand.Rand

	rotation map[int]*rotationState
	random   map[int]*randomState
	sudo     map[int]*sudoState
	series   map[string]*seriesState
}

// Option configures a Set.
type Option func(*Set)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Set) { s.now = now }
}

// WithRand injects the random source, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Set) { s.rng = rng }
}

// NewSet creates scheduler state for the given blocks. Block order is
// the configured order and decides lookup priority.
func NewSet(lib Library, blocks []Block, opts ...Option) *Set {
	s := &Set{
		blocks:   blocks,
		lib:      lib,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		rotation: make(map[int]*rotationState),
		random:   make(map[int]*randomState),
		sudo:     make(map[int]*sudoState),
		series:   make(map[string]*seriesState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Blocks returns the configured blocks in priority order.
func (s *Set) Blocks() []Block { return s.blocks }

// Lookup finds the first configured block the code belongs to,
// scanning in configured order. A code equal to a base triggers that
// block's selection policy; a code strictly inside the range plays
// directly.
func (s *Set) Lookup(code int) (Block, Match) {
	for _, b := range s.blocks {
		if code == b.Base {
			return b, MatchBase
		}
		if b.Base < code && code <= b.End {
			return b, MatchRange
		}
	}
	return Block{}, MatchNone
}

// Select runs the block's selection policy and returns the track to
// play now. It returns false when no file in the range exists.
func (s *Set) Select(b Block) (track.Entry, bool) {
	entries := s.lib.Available(b.Base, b.End)
	if len(entries) == 0 {
		return track.Entry{}, false
	}
	switch b.Kind {
	case KindRotation:
		return s.selectRotation(b, entries), true
	case KindRandom:
		return s.selectRandom(b, entries), true
	case KindSudoRandom:
		return s.selectSudoRandom(b, entries), true
	default:
		return track.Entry{}, false
	}
}

// SeriesNext returns the segment index an alternate series should
// play on this trigger and marks the pointer so the next trigger
// advances by one, wrapping modulo n. The pointer for a key is
// created lazily on first use.
func (s *Set) SeriesNext(key string, n int) int {
	st, ok := s.series[key]
	if !ok {
		st = &seriesState{}
		s.series[key] = st
	}
	if st.started {
		st.index = (st.index + 1) % n
	}
	st.started = true
	if st.index >= n {
		st.index = 0
	}
	return st.index
}

type seriesState struct {
	index   int
	started bool
}
