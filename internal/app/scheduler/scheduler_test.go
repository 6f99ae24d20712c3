package scheduler

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian7m3/DRX/internal/domain/track"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func makeLibrary(t *testing.T, codes ...string) *track.Library {
	t.Helper()
	dir := t.TempDir()
	for _, code := range codes {
		require.NoError(t, os.WriteFile(filepath.Join(dir, code+".wav"), []byte("x"), 0o644))
	}
	return track.NewLibrary(dir, ".wav")
}

func newTestSet(lib *track.Library, clock *fakeClock, blocks ...Block) *Set {
	return NewSet(lib, blocks,
		WithClock(clock.now),
		WithRand(rand.New(rand.NewSource(1))))
}

func TestLookup_ConfigOrderWins(t *testing.T) {
	lib := makeLibrary(t)
	set := newTestSet(lib, newFakeClock(),
		Block{Kind: KindRandom, Base: 3000, End: 3099},
		Block{Kind: KindRotation, Base: 3050, End: 3150},
	)

	b, m := set.Lookup(3000)
	assert.Equal(t, MatchBase, m)
	assert.Equal(t, KindRandom, b.Kind)

	// 3050 is the rotation base but sits inside the random range,
	// and the random block is listed first.
	b, m = set.Lookup(3050)
	assert.Equal(t, MatchRange, m)
	assert.Equal(t, KindRandom, b.Kind)

	b, m = set.Lookup(3120)
	assert.Equal(t, MatchRange, m)
	assert.Equal(t, KindRotation, b.Kind)

	_, m = set.Lookup(9000)
	assert.Equal(t, MatchNone, m)
}

func TestRotation_AdvanceOnlyAfterHoldTime(t *testing.T) {
	lib := makeLibrary(t, "4001", "4002")
	clock := newFakeClock()
	block := Block{Kind: KindRotation, Base: 4000, End: 4002, Interval: time.Minute}
	set := newTestSet(lib, clock, block)

	// First trigger plays the first available track without advancing.
	e, ok := set.Select(block)
	require.True(t, ok)
	assert.Equal(t, 4001, e.Code)

	// Within the hold time the same track replays.
	clock.advance(30 * time.Second)
	e, _ = set.Select(block)
	assert.Equal(t, 4001, e.Code)

	// After the hold time the index advances.
	clock.advance(31 * time.Second)
	e, _ = set.Select(block)
	assert.Equal(t, 4002, e.Code)

	// And wraps around.
	clock.advance(61 * time.Second)
	e, _ = set.Select(block)
	assert.Equal(t, 4001, e.Code)
}

func TestRotation_SkipsMissingFiles(t *testing.T) {
	lib := makeLibrary(t, "4001", "4004")
	clock := newFakeClock()
	block := Block{Kind: KindRotation, Base: 4000, End: 4010, Interval: 0}
	set := newTestSet(lib, clock, block)

	e, ok := set.Select(block)
	require.True(t, ok)
	assert.Equal(t, 4001, e.Code)
	clock.advance(time.Second)
	e, _ = set.Select(block)
	assert.Equal(t, 4004, e.Code)
}

func TestRandom_ReplaysWithinInterval(t *testing.T) {
	lib := makeLibrary(t, "3001", "3002", "3003")
	clock := newFakeClock()
	block := Block{Kind: KindRandom, Base: 3000, End: 3010, Interval: 10 * time.Minute}
	set := newTestSet(lib, clock, block)

	first, ok := set.Select(block)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		clock.advance(time.Minute)
		e, _ := set.Select(block)
		assert.Equal(t, first.Code, e.Code, "selection must hold within the interval")
	}
}

func TestSudoRandom_FullCycleWithoutRepeats(t *testing.T) {
	lib := makeLibrary(t, "5001", "5002", "5003")
	clock := newFakeClock()
	block := Block{Kind: KindSudoRandom, Base: 5000, End: 5010, Interval: 0}
	set := newTestSet(lib, clock, block)

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		e, ok := set.Select(block)
		require.True(t, ok)
		assert.False(t, seen[e.Code], "track %d repeated within a cycle", e.Code)
		seen[e.Code] = true
		clock.advance(time.Second)
	}
	assert.Len(t, seen, 3)
	assert.True(t, set.CycleExhausted(5000))

	// The next trigger starts a fresh cycle and may repeat anything.
	e, ok := set.Select(block)
	require.True(t, ok)
	assert.True(t, seen[e.Code])
	assert.False(t, set.CycleExhausted(5000))
}

func TestSelect_EmptyRange(t *testing.T) {
	lib := makeLibrary(t)
	set := newTestSet(lib, newFakeClock())
	_, ok := set.Select(Block{Kind: KindRotation, Base: 4000, End: 4010})
	assert.False(t, ok)
}

func TestSeriesNext_AdvancesOncePerTrigger(t *testing.T) {
	lib := makeLibrary(t)
	set := newTestSet(lib, newFakeClock())

	assert.Equal(t, 0, set.SeriesNext("5300-5400", 2))
	assert.Equal(t, 1, set.SeriesNext("5300-5400", 2))
	assert.Equal(t, 0, set.SeriesNext("5300-5400", 2))

	// Independent keys hold independent pointers.
	assert.Equal(t, 0, set.SeriesNext("1000-2000", 2))
}
