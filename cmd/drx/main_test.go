package main

import (
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Dispatch(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, raw)
	return nil
}

func (s *recordingSink) dispatched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func TestDispatchLoop_RoutesUntilSignal(t *testing.T) {
	lines := make(chan string, 2)
	stop := make(chan os.Signal, 1)
	sink := &recordingSink{}

	done := make(chan struct{})
	go func() {
		dispatchLoop(sink, lines, stop)
		close(done)
	}()

	lines <- "P1234"
	lines <- "P4000"
	require.Eventually(t, func() bool {
		return len(sink.dispatched()) == 2
	}, 2*time.Second, time.Millisecond)

	stop <- syscall.SIGTERM
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not return on signal")
	}
	assert.Equal(t, []string{"P1234", "P4000"}, sink.dispatched())
}

func TestDispatchLoop_ClosedSourceParksUntilSignal(t *testing.T) {
	lines := make(chan string)
	close(lines)
	stop := make(chan os.Signal, 1)
	sink := &recordingSink{}

	done := make(chan struct{})
	go func() {
		dispatchLoop(sink, lines, stop)
		close(done)
	}()

	// The closed channel must not be treated as an endless stream of
	// empty commands.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.dispatched())

	stop <- syscall.SIGTERM
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop did not return on signal")
	}
}
