// Package command defines the serial command grammar and its parser.
package command

import (
	"fmt"
	"sort"
	"strings"
)

// Modifiers holds the playback modifier flags carried by a command
// suffix. A command with no flags set plays in plain mode.
type Modifiers struct {
	Interruptible bool // I: terminate the instant the channel goes busy
	Pausing       bool // P: pause on busy, resume from offset when clear
	Repeating     bool // R: restart from zero after each busy hit
	WaitForClear  bool // W: wait for the channel to clear before starting
	Message       bool // M: subject to the message rate-limit timer
}

// Normalize resolves conflicting flags. Pause and repeat cannot both
// be honored; pause takes precedence.
func (m Modifiers) Normalize() Modifiers {
	if m.Pausing && m.Repeating {
		m.Repeating = false
	}
	return m
}

// Suffix renders the modifier flags back to their wire form.
func (m Modifiers) Suffix() string {
	var b strings.Builder
	if m.Interruptible {
		b.WriteByte('I')
	}
	if m.Pausing {
		b.WriteByte('P')
	}
	if m.Repeating {
		b.WriteByte('R')
	}
	if m.WaitForClear {
		b.WriteByte('W')
	}
	if m.Message {
		b.WriteByte('M')
	}
	return b.String()
}

// Command is a parsed serial command. Implementations are immutable
// value types produced by Parse.
type Command interface {
	isCommand()
	String() string
}

// Direct plays a single track code, either straight by filename or
// through a scheduler if the code anchors or falls inside a
// configured base range.
type Direct struct {
	Code int
	Mods Modifiers
}

func (Direct) isCommand() {}

func (d Direct) String() string {
	return fmt.Sprintf("P%04d%s", d.Code, d.Mods.Suffix())
}

// PlayFile plays a sound file by bare filename.
type PlayFile struct {
	Name string
}

func (PlayFile) isCommand() {}

func (p PlayFile) String() string { return p.Name }

// AlternateAtomic is the two-stage interrupt-to-another form
// (P1234i5678): the primary code plays interruptible on channel busy,
// and the follow-up code plays uninterruptibly if and only if the
// primary was cut short.
type AlternateAtomic struct {
	Primary  int
	FollowUp int
}

func (AlternateAtomic) isCommand() {}

func (a AlternateAtomic) String() string {
	return fmt.Sprintf("P%04di%04d", a.Primary, a.FollowUp)
}

// AlternateSeries cycles through its segments one per trigger,
// remembering its position between triggers. Each segment is a
// standalone Direct or AlternateAtomic command.
type AlternateSeries struct {
	Segments []Command
}

func (AlternateSeries) isCommand() {}

func (s AlternateSeries) String() string {
	parts := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		parts[i] = strings.TrimPrefix(seg.String(), "P")
	}
	return "P" + strings.Join(parts, "A")
}

// Bases returns the base code of every segment, in segment order.
func (s AlternateSeries) Bases() []int {
	bases := make([]int, 0, len(s.Segments))
	for _, seg := range s.Segments {
		switch c := seg.(type) {
		case Direct:
			bases = append(bases, c.Code)
		case AlternateAtomic:
			bases = append(bases, c.Primary)
		}
	}
	return bases
}

// Key identifies the series pointer shared by all orderings of the
// same base set.
func (s AlternateSeries) Key() string {
	bases := s.Bases()
	sort.Ints(bases)
	parts := make([]string, len(bases))
	for i, b := range bases {
		parts[i] = fmt.Sprintf("%04d", b)
	}
	return strings.Join(parts, "-")
}

// JoinSeries plays all of its segments back to back in one trigger,
// holding the busy output for the whole run. OverallMessage applies
// the message timer to the series as a unit.
type JoinSeries struct {
	Segments       []Direct
	OverallMessage bool
}

func (JoinSeries) isCommand() {}

func (j JoinSeries) String() string {
	parts := make([]string, len(j.Segments))
	for i, seg := range j.Segments {
		parts[i] = strings.TrimPrefix(seg.String(), "P")
	}
	s := "P" + strings.Join(parts, "J")
	if j.OverallMessage {
		s += "M"
	}
	return s
}
