package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Request describes one playback session.
type Request struct {
	File         string
	Display      string // name shown on the status surface; File basename if empty
	Mode         Mode
	WaitForClear bool   // wait for the channel to clear before starting
	FollowUp     string // file played uninterruptibly iff the primary is cut short by the channel

	// Segments, when set, plays a joined sequence of files in one
	// session instead of File. Each segment carries its own mode.
	Segments []Segment
}

// Segment is one file of a joined sequence.
type Segment struct {
	File         string
	Mode         Mode
	WaitForClear bool
}

// Config holds supervisor tuning knobs.
type Config struct {
	PollInterval     time.Duration // control loop tick, default 50ms
	JoinTimeout      time.Duration // bounded wait for a preempted session, default 2s
	Debounce         time.Duration // channel must stay clear this long before a deferred start, default 500ms
	MaxInterruptions int           // busy hits before pausing gives up / repeating stops restarting, default 3
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = 2 * time.Second
	}
	if c.Debounce <= 0 {
		c.Debounce = 500 * time.Millisecond
	}
	if c.MaxInterruptions <= 0 {
		c.MaxInterruptions = 3
	}
	return c
}

// Supervisor owns the single "now playing" slot. At most one session
// is live at a time; a newer Play or Stop cancels the live session's
// context, which is the generation token stale control loops observe.
type Supervisor struct {
	player   Player
	cos      BusyDetector
	out      BusyOutput
	duration DurationFunc
	status   StatusSink
	config   Config

	eventCh chan Event

	mu      sync.Mutex
	current *session
}

type session struct {
	id     string
	req    Request
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor wires a supervisor over the given collaborators.
// duration may be nil when pausing mode is unused; status may be nil.
func NewSupervisor(player Player, cos BusyDetector, out BusyOutput, duration DurationFunc, status StatusSink, config Config) *Supervisor {
	if status == nil {
		status = nopStatus{}
	}
	return &Supervisor{
		player:   player,
		cos:      cos,
		out:      out,
		duration: duration,
		status:   status,
		config:   config.withDefaults(),
		eventCh:  make(chan Event, 16),
	}
}

// Events returns the session event stream. Events are dropped, never
// blocked on, when the receiver falls behind.
func (s *Supervisor) Events() <-chan Event {
	return s.eventCh
}

// Play preempts any live session and supervises the new one
// asynchronously. The most recent call always wins.
func (s *Supervisor) Play(req Request) {
	s.joinOld(s.preempt())

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     uuid.NewString()[:8],
		req:    req,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	go s.run(sess)
}

// Stop preempts unconditionally without starting anything new. The
// busy output is deasserted within one poll interval.
func (s *Supervisor) Stop() {
	s.joinOld(s.preempt())
}

// Busy reports whether a session currently owns the audio device.
func (s *Supervisor) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *Supervisor) preempt() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.current
	s.current = nil
	if old != nil {
		old.cancel()
	}
	return old
}

// joinOld waits, bounded, for a preempted session to tear down its
// subprocess so two sessions never drive the busy output at once. A
// player process refusing to die must not wedge new commands.
func (s *Supervisor) joinOld(old *session) {
	if old == nil {
		return
	}
	select {
	case <-old.done:
	case <-time.After(s.config.JoinTimeout):
		zlog.Warn().Str("session", old.id).Msg("preempted session did not stop within join timeout")
	}
}

func (s *Supervisor) run(sess *session) {
	defer close(sess.done)
	defer func() {
		s.mu.Lock()
		if s.current == sess {
			s.current = nil
		}
		// A successor that started after a join timeout owns the
		// output now; this session's late teardown must not touch it.
		owner := s.current == nil
		s.mu.Unlock()
		if owner {
			s.out.SetBusy(false)
			s.status.SetState(StateIdle, "")
		}
	}()

	req := sess.req
	s.emit(sess, EventStarted)
	zlog.Debug().Str("session", sess.id).Str("file", req.File).Stringer("mode", req.Mode).Msg("playback session starting")

	var outcome EventType
	switch {
	case len(req.Segments) > 0:
		outcome = s.runSegments(sess)
	case req.FollowUp != "":
		outcome = s.runAlternate(sess)
	default:
		if req.WaitForClear {
			s.status.SetState(StateWaitingForClear, req.Display)
			if !s.waitForClear(sess.ctx) {
				s.emit(sess, EventPreempted)
				return
			}
		}
		outcome = s.runMode(sess, req.File, req.Mode)
	}

	s.emit(sess, outcome)
	zlog.Info().Str("session", sess.id).Str("file", req.File).Stringer("mode", req.Mode).Stringer("outcome", outcome).Msg("playback session ended")
}

func (s *Supervisor) runMode(sess *session, file string, mode Mode) EventType {
	switch mode {
	case ModePausing:
		return s.runPausing(sess, file)
	case ModeRepeating:
		return s.runRepeating(sess, file)
	case ModeInterruptible:
		return s.runOnce(sess, file, true)
	default:
		return s.runOnce(sess, file, false)
	}
}

// runSegments plays a joined sequence file by file within a single
// session. A segment ending for any reason other than natural
// completion abandons the rest of the sequence.
func (s *Supervisor) runSegments(sess *session) EventType {
	for _, seg := range sess.req.Segments {
		if seg.WaitForClear {
			s.status.SetState(StateWaitingForClear, sess.req.Display)
			if !s.waitForClear(sess.ctx) {
				return EventPreempted
			}
		}
		if outcome := s.runMode(sess, seg.File, seg.Mode); outcome != EventCompleted {
			return outcome
		}
	}
	return EventCompleted
}

// runOnce plays the file once from the start. With cosSensitive set
// the session ends the instant the channel goes busy.
func (s *Supervisor) runOnce(sess *session, file string, cosSensitive bool) EventType {
	h, err := s.player.Start(file, 0)
	if err != nil {
		zlog.Error().Err(err).Str("file", file).Msg("player failed to start")
		return EventFailed
	}
	s.out.SetBusy(true)
	s.status.SetState(StatePlaying, sess.req.Display)

	switch s.poll(sess.ctx, h, cosSensitive) {
	case pollCompleted:
		return EventCompleted
	case pollBusyHit:
		return EventInterrupted
	default:
		return EventPreempted
	}
}

// runPausing plays the file in segments, accumulating played time and
// resuming from the recorded offset after each busy interruption.
func (s *Supervisor) runPausing(sess *session, file string) EventType {
	total, err := s.totalDuration(file)
	if err != nil || total <= 0 {
		zlog.Warn().Err(err).Str("file", file).Msg("cannot probe duration, falling back to plain playback")
		return s.runOnce(sess, file, false)
	}

	var played time.Duration
	interruptions := 0
	for played < total {
		h, err := s.player.Start(file, played)
		if err != nil {
			zlog.Error().Err(err).Str("file", file).Msg("player failed to start")
			return EventFailed
		}
		s.out.SetBusy(true)
		s.status.SetState(StatePlaying, sess.req.Display)
		segmentStart := time.Now()

		switch s.poll(sess.ctx, h, true) {
		case pollCompleted:
			return EventCompleted
		case pollCancelled:
			return EventPreempted
		case pollBusyHit:
			played += time.Since(segmentStart)
			interruptions++
			s.out.SetBusy(false)
			if interruptions >= s.config.MaxInterruptions {
				zlog.Debug().Str("file", file).Int("interruptions", interruptions).Msg("pausing mode giving up after repeated busy hits")
				return EventInterrupted
			}
			s.status.SetState(StatePausedForBusy, sess.req.Display)
			if !s.waitForClear(sess.ctx) {
				return EventPreempted
			}
		}
	}
	return EventCompleted
}

// runRepeating restarts the file from zero after every busy hit and
// ends only once a full pass completes uninterrupted. After the
// interruption cap the final pass runs with the channel ignored.
func (s *Supervisor) runRepeating(sess *session, file string) EventType {
	interruptions := 0
	ignoreChannel := false
	for {
		if !ignoreChannel && s.cos.Busy() {
			s.out.SetBusy(false)
			s.status.SetState(StatePausedForBusy, sess.req.Display)
			if !s.waitForClear(sess.ctx) {
				return EventPreempted
			}
		}

		h, err := s.player.Start(file, 0)
		if err != nil {
			zlog.Error().Err(err).Str("file", file).Msg("player failed to start")
			return EventFailed
		}
		s.out.SetBusy(true)
		s.status.SetState(StatePlaying, sess.req.Display)

		switch s.poll(sess.ctx, h, !ignoreChannel) {
		case pollCompleted:
			return EventCompleted
		case pollCancelled:
			return EventPreempted
		case pollBusyHit:
			interruptions++
			s.out.SetBusy(false)
			if interruptions >= s.config.MaxInterruptions {
				zlog.Debug().Str("file", file).Int("interruptions", interruptions).Msg("repeat mode ignoring channel for final pass")
				ignoreChannel = true
			}
		}
	}
}

// runAlternate is the two-stage interrupt-to-another sequence. The
// primary plays channel-interruptible; the follow-up plays
// uninterruptibly, but only if the primary was cut short. With the
// channel already busy at the start the follow-up plays immediately.
func (s *Supervisor) runAlternate(sess *session) EventType {
	req := sess.req
	if s.cos.Busy() {
		return s.runOnce(sess, req.FollowUp, false)
	}

	switch s.runOnce(sess, req.File, true) {
	case EventCompleted:
		return EventCompleted
	case EventInterrupted:
		s.out.SetBusy(false)
		s.status.SetState(StateWaitingForClear, req.Display)
		if !s.waitForClear(sess.ctx) {
			return EventPreempted
		}
		return s.runOnce(sess, req.FollowUp, false)
	case EventFailed:
		return EventFailed
	default:
		return EventPreempted
	}
}

type pollOutcome int

const (
	pollCompleted pollOutcome = iota
	pollBusyHit
	pollCancelled
)

// poll drives one playback process: a short fixed-interval loop that
// checks process exit, session cancellation and (optionally) the
// channel signal. The loop never blocks on the process itself so
// preemption stays responsive.
func (s *Supervisor) poll(ctx context.Context, h Handle, cosSensitive bool) pollOutcome {
	for {
		if !h.Running() {
			return pollCompleted
		}
		if ctx.Err() != nil {
			h.Terminate()
			return pollCancelled
		}
		if cosSensitive && s.cos.Busy() {
			h.Terminate()
			return pollBusyHit
		}
		time.Sleep(s.config.PollInterval)
	}
}

// waitForClear blocks until the channel has stayed idle for a full
// debounce window. It returns false when the session is cancelled
// while waiting. The busy output is never asserted in here.
func (s *Supervisor) waitForClear(ctx context.Context) bool {
	for {
		for s.cos.Busy() {
			if ctx.Err() != nil {
				return false
			}
			time.Sleep(s.config.PollInterval)
		}

		deadline := time.Now().Add(s.config.Debounce)
		stayedClear := true
		for time.Now().Before(deadline) {
			if ctx.Err() != nil {
				return false
			}
			if s.cos.Busy() {
				stayedClear = false
				break
			}
			time.Sleep(s.config.PollInterval)
		}
		if stayedClear {
			return true
		}
	}
}

func (s *Supervisor) totalDuration(file string) (time.Duration, error) {
	if s.duration == nil {
		return 0, nil
	}
	return s.duration(file)
}

func (s *Supervisor) emit(sess *session, t EventType) {
	e := Event{
		Type:    t,
		Session: sess.id,
		File:    sess.req.File,
		Display: sess.req.Display,
		Mode:    sess.req.Mode,
	}
	select {
	case s.eventCh <- e:
	default:
	}
}
