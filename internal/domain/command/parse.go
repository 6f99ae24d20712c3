package command

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidCommand is returned for any token the grammar does not
// recognize. Callers log and discard; an invalid token never has a
// playback side effect.
var ErrInvalidCommand = errors.New("invalid command")

var (
	// P1234i5678: anything after the second code is ignored.
	altAtomicRe = regexp.MustCompile(`^[Pp](\d{4})i(\d{4})`)
	directRe    = regexp.MustCompile(`^[Pp](\d{4})([IPRWM]*)$`)
	joinPartRe  = regexp.MustCompile(`^(\d{4})([A-Z]*)$`)
)

// Parse turns one trimmed serial token into a typed Command.
//
// Recognition order mirrors the wire protocol: bare .wav filenames,
// join series (J separators), alternate series (A separators), the
// two-code interrupt form (lowercase i), then a plain code with an
// optional modifier suffix. Everything else is ErrInvalidCommand.
func Parse(raw string) (Command, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return nil, ErrInvalidCommand
	}

	if strings.HasSuffix(strings.ToLower(token), ".wav") {
		return PlayFile{Name: token}, nil
	}

	if strings.Contains(token, "J") {
		if cmd, ok := parseJoinSeries(token); ok {
			return cmd, nil
		}
	}

	if strings.Contains(token, "A") {
		if cmd, ok := parseAlternateSeries(token); ok {
			return cmd, nil
		}
	}

	if cmd, ok := parseSimple(token); ok {
		return cmd, nil
	}
	return nil, ErrInvalidCommand
}

// parseSimple handles the two single-segment forms: P1234i5678 and
// P1234 with an optional IPRWM suffix.
func parseSimple(token string) (Command, bool) {
	if m := altAtomicRe.FindStringSubmatch(token); m != nil {
		return AlternateAtomic{
			Primary:  mustAtoi(m[1]),
			FollowUp: mustAtoi(m[2]),
		}, true
	}
	if m := directRe.FindStringSubmatch(token); m != nil {
		mods, ok := parseModifiers(m[2])
		if !ok {
			return nil, false
		}
		return Direct{Code: mustAtoi(m[1]), Mods: mods}, true
	}
	return nil, false
}

// parseJoinSeries parses P1001RJ2002IM style tokens: uppercase J
// separates code+suffix segments, and a trailing M after the last
// segment is the overall message flag rather than a per-segment
// modifier.
func parseJoinSeries(token string) (JoinSeries, bool) {
	body := strings.TrimPrefix(token, "P")
	parts := strings.Split(body, "J")
	if len(parts) < 2 {
		return JoinSeries{}, false
	}

	raws := make([][2]string, 0, len(parts))
	for _, part := range parts {
		m := joinPartRe.FindStringSubmatch(part)
		if m == nil {
			return JoinSeries{}, false
		}
		raws = append(raws, [2]string{m[1], m[2]})
	}

	overall := false
	last := raws[len(raws)-1]
	if strings.HasSuffix(last[1], "M") {
		overall = true
		raws[len(raws)-1][1] = strings.TrimSuffix(last[1], "M")
	}

	segments := make([]Direct, 0, len(raws))
	for _, r := range raws {
		mods, ok := parseModifiers(r[1])
		if !ok {
			return JoinSeries{}, false
		}
		segments = append(segments, Direct{Code: mustAtoi(r[0]), Mods: mods})
	}
	return JoinSeries{Segments: segments, OverallMessage: overall}, true
}

// parseAlternateSeries splits P5300RA5400i6000A2801P on every A into
// standalone segments (each re-prefixed with P) and parses each as a
// simple command. A series needs at least two segments.
func parseAlternateSeries(token string) (AlternateSeries, bool) {
	if !strings.HasPrefix(token, "P") {
		return AlternateSeries{}, false
	}
	var raws []string
	curr := "P"
	for _, c := range token[1:] {
		if c == 'A' {
			raws = append(raws, curr)
			curr = "P"
			continue
		}
		curr += string(c)
	}
	raws = append(raws, curr)
	if len(raws) < 2 {
		return AlternateSeries{}, false
	}

	segments := make([]Command, 0, len(raws))
	for _, r := range raws {
		seg, ok := parseSimple(r)
		if !ok {
			return AlternateSeries{}, false
		}
		segments = append(segments, seg)
	}
	return AlternateSeries{Segments: segments}, true
}

func parseModifiers(suffix string) (Modifiers, bool) {
	var m Modifiers
	for _, c := range suffix {
		switch c {
		case 'I':
			m.Interruptible = true
		case 'P':
			m.Pausing = true
		case 'R':
			m.Repeating = true
		case 'W':
			m.WaitForClear = true
		case 'M':
			m.Message = true
		default:
			return Modifiers{}, false
		}
	}
	return m.Normalize(), true
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(err) // unreachable: callers match \d{4}
	}
	return n
}
