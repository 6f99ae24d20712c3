// Package dispatcher routes parsed serial commands to the scheduler
// set and the playback supervisor.
package dispatcher

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/brian7m3/DRX/internal/app/playback"
	"github.com/brian7m3/DRX/internal/app/scheduler"
	"github.com/brian7m3/DRX/internal/domain/command"
)

// Controller is the playback surface the dispatcher drives.
type Controller interface {
	Play(playback.Request)
	Stop()
	Busy() bool
}

// Library resolves codes and filenames to playable paths.
type Library interface {
	ResolveCode(code int) (string, error)
	ResolveFile(name string) (string, error)
}

// Recorder receives every processed command for the status surface.
type Recorder interface {
	RecordCommand(raw string, accepted bool)
}

// MessageTimer is the rate limit applied to M-suffixed commands.
// Never suppresses them entirely; a zero Interval always allows them.
type MessageTimer struct {
	Never    bool
	Interval time.Duration
}

// Config carries the dispatcher's routing policy.
type Config struct {
	MessageTimer      MessageTimer
	DirectPlayEnabled bool // play unconfigured codes straight from the library
}

// Dispatcher owns command routing and the cross-trigger state that
// goes with it: series pointers live in the scheduler set, the message
// timer and the rotation re-trigger guard live here. All methods must
// be called from the single command-ingestion goroutine.
type Dispatcher struct {
	lib    Library
	sched  *scheduler.Set
	ctl    Controller
	rec    Recorder
	config Config

	now                func() time.Time
	lastMessage        time.Time
	activeRotationBase int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a dispatcher. rec may be nil.
func New(lib Library, sched *scheduler.Set, ctl Controller, rec Recorder, config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		lib:                lib,
		sched:              sched,
		ctl:                ctl,
		rec:                rec,
		config:             config,
		now:                time.Now,
		activeRotationBase: -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch parses one raw serial line and routes it. Invalid commands
// are recorded and returned as errors; the caller logs and carries on.
func (d *Dispatcher) Dispatch(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	cmd, err := command.Parse(raw)
	if err != nil {
		d.record(raw, false)
		return errors.Wrapf(err, "dispatch %q", raw)
	}

	err = d.route(cmd)
	d.record(raw, err == nil)
	if err != nil {
		return errors.Wrapf(err, "dispatch %q", raw)
	}
	return nil
}

func (d *Dispatcher) route(cmd command.Command) error {
	switch c := cmd.(type) {
	case command.Direct:
		return d.routeDirect(c)
	case command.AlternateAtomic:
		return d.routeAtomic(c)
	case command.AlternateSeries:
		return d.routeSeries(c)
	case command.JoinSeries:
		return d.routeJoin(c)
	case command.PlayFile:
		return d.routeFile(c)
	default:
		return errors.Newf("unroutable command type %T", cmd)
	}
}

// routeDirect resolves a 4-digit code against the configured scheduler
// blocks, scanning them in configuration order. The code matching a
// base triggers that block's selection; a code inside a range, or
// outside every block, plays its own file.
func (d *Dispatcher) routeDirect(c command.Direct) error {
	if c.Mods.Message && !d.messageAllowed() {
		zlog.Debug().Int("code", c.Code).Msg("message suppressed by message timer")
		return nil
	}

	block, match := d.sched.Lookup(c.Code)
	switch match {
	case scheduler.MatchBase:
		if block.Kind == scheduler.KindRotation && d.activeRotationBase == c.Code && d.ctl.Busy() {
			zlog.Debug().Int("base", c.Code).Msg("rotation base re-trigger ignored while its track is playing")
			return nil
		}
		entry, ok := d.sched.Select(block)
		if !ok {
			return errors.Newf("no playable tracks for base %04d", c.Code)
		}
		if block.Kind == scheduler.KindRotation {
			d.activeRotationBase = c.Code
		} else {
			d.activeRotationBase = -1
		}
		d.play(entry.Path, entry.Name(), c.Mods)
		return nil

	case scheduler.MatchRange:
		d.activeRotationBase = -1
		path, err := d.lib.ResolveCode(c.Code)
		if err != nil {
			return err
		}
		d.play(path, displayName(path), c.Mods)
		return nil

	default:
		if !d.config.DirectPlayEnabled {
			return errors.Newf("code %04d matches no scheduler and direct play is disabled", c.Code)
		}
		d.activeRotationBase = -1
		path, err := d.lib.ResolveCode(c.Code)
		if err != nil {
			return err
		}
		d.play(path, displayName(path), c.Mods)
		return nil
	}
}

// routeAtomic starts the two-stage sequence as a single session. Both
// codes resolve scheduler-aware, so a base code as either stage plays
// that base's current selection.
func (d *Dispatcher) routeAtomic(c command.AlternateAtomic) error {
	d.activeRotationBase = -1

	primary, display, err := d.resolveCode(c.Primary)
	if err != nil {
		return err
	}
	followUp, _, err := d.resolveCode(c.FollowUp)
	if err != nil {
		return err
	}

	d.ctl.Play(playback.Request{
		File:     primary,
		Display:  display,
		Mode:     playback.ModeInterruptible,
		FollowUp: followUp,
	})
	return nil
}

// routeSeries advances the shared pointer one step and routes the
// selected segment as a standalone command.
func (d *Dispatcher) routeSeries(c command.AlternateSeries) error {
	if len(c.Segments) == 0 {
		return errors.New("empty alternate series")
	}
	idx := d.sched.SeriesNext(c.Key(), len(c.Segments))
	return d.route(c.Segments[idx])
}

// routeJoin plays every segment back to back in one session. Segments
// whose file is missing are skipped with a warning rather than
// aborting the series.
func (d *Dispatcher) routeJoin(c command.JoinSeries) error {
	if c.OverallMessage && !d.messageAllowed() {
		zlog.Debug().Str("command", c.String()).Msg("join series suppressed by message timer")
		return nil
	}
	d.activeRotationBase = -1

	hasMessage := c.OverallMessage
	segments := make([]playback.Segment, 0, len(c.Segments))
	displays := make([]string, 0, len(c.Segments))
	for _, seg := range c.Segments {
		if seg.Mods.Message {
			if !d.messageAllowed() {
				continue
			}
			hasMessage = true
		}
		path, display, err := d.resolveCode(seg.Code)
		if err != nil {
			zlog.Warn().Err(err).Int("code", seg.Code).Msg("skipping unresolvable join segment")
			continue
		}
		segments = append(segments, playback.Segment{
			File:         path,
			Mode:         modeFor(seg.Mods),
			WaitForClear: seg.Mods.WaitForClear,
		})
		displays = append(displays, display)
	}
	if len(segments) == 0 {
		return errors.Newf("no playable segments in %s", c.String())
	}

	d.ctl.Play(playback.Request{
		Display:  strings.Join(displays, " + "),
		Segments: segments,
	})
	if hasMessage {
		d.commitMessage()
	}
	return nil
}

func (d *Dispatcher) routeFile(c command.PlayFile) error {
	d.activeRotationBase = -1
	path, err := d.lib.ResolveFile(c.Name)
	if err != nil {
		return err
	}
	d.ctl.Play(playback.Request{File: path, Display: displayName(path)})
	return nil
}

// resolveCode maps a code to a file the way routeDirect does, but
// without side effects on the rotation guard.
func (d *Dispatcher) resolveCode(code int) (path, display string, err error) {
	block, match := d.sched.Lookup(code)
	if match == scheduler.MatchBase {
		entry, ok := d.sched.Select(block)
		if !ok {
			return "", "", errors.Newf("no playable tracks for base %04d", code)
		}
		return entry.Path, entry.Name(), nil
	}
	p, err := d.lib.ResolveCode(code)
	if err != nil {
		return "", "", err
	}
	return p, displayName(p), nil
}

func (d *Dispatcher) play(file, display string, mods command.Modifiers) {
	d.ctl.Play(playback.Request{
		File:         file,
		Display:      display,
		Mode:         modeFor(mods),
		WaitForClear: mods.WaitForClear,
	})
	if mods.Message {
		d.commitMessage()
	}
}

// messageAllowed reports whether the message timer has a free slot.
// It never advances the timestamp; commitMessage does that once a
// message actually plays, so a message whose file is missing does not
// burn the slot.
func (d *Dispatcher) messageAllowed() bool {
	if d.config.MessageTimer.Never {
		return false
	}
	if d.config.MessageTimer.Interval <= 0 {
		return true
	}
	return d.lastMessage.IsZero() || d.now().Sub(d.lastMessage) >= d.config.MessageTimer.Interval
}

func (d *Dispatcher) commitMessage() {
	d.lastMessage = d.now()
}

func (d *Dispatcher) record(raw string, accepted bool) {
	if d.rec != nil {
		d.rec.RecordCommand(raw, accepted)
	}
}

func modeFor(m command.Modifiers) playback.Mode {
	switch {
	case m.Pausing:
		return playback.ModePausing
	case m.Repeating:
		return playback.ModeRepeating
	case m.Interruptible:
		return playback.ModeInterruptible
	default:
		return playback.ModePlain
	}
}

func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
