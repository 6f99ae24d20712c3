package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brian7m3/DRX/internal/app/playback"
)

func TestManager_SetStateNotifiesSubscribers(t *testing.T) {
	m := NewManager()

	var mu sync.Mutex
	var got []Snapshot
	id := m.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})
	defer m.Unsubscribe(id)

	m.SetState(playback.StatePlaying, "4001 - weather")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, playback.StatePlaying, got[0].State)
	assert.Equal(t, "4001 - weather", got[0].NowPlaying)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
}

func TestManager_HistoryKeepsNewestTen(t *testing.T) {
	m := NewManager()
	for i := 0; i < 12; i++ {
		m.RecordCommand("P4000", true)
	}
	m.RecordCommand("garbage", false)

	snap := m.Snapshot()
	require.Len(t, snap.History, 10)
	assert.Equal(t, "garbage", snap.History[0].Raw)
	assert.False(t, snap.History[0].Accepted)
	assert.Equal(t, "P4000", snap.History[1].Raw)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	calls := 0
	id := m.Subscribe(func(Snapshot) { calls++ })
	m.SetState(playback.StatePlaying, "x")
	m.Unsubscribe(id)
	m.SetState(playback.StateIdle, "")

	assert.Equal(t, 1, calls)
	assert.Zero(t, m.SubscriberCount())
}

func TestManager_SequenceNoMonotonic(t *testing.T) {
	m := NewManager()
	m.SetState(playback.StatePlaying, "a")
	m.RecordCommand("P1000", true)
	m.SetState(playback.StateIdle, "")
	assert.Equal(t, uint64(3), m.Snapshot().SequenceNo)
}
