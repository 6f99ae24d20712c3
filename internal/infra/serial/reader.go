// Package serial reads command lines from the controller's serial
// port, reconnecting with backoff when the port goes away.
package serial

import (
	"bufio"
	"context"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	initialBackoff = 5 * time.Second
	maxBackoff     = 60 * time.Second
)

// Config describes the port to read from.
type Config struct {
	Port string
	Baud int
}

// Reader owns the port lifecycle and delivers trimmed, non-empty
// lines on its channel. A USB adapter being unplugged and replugged
// is an expected event, not an error.
type Reader struct {
	config Config
	lines  chan string
}

// NewReader creates a reader; call Run to start it.
func NewReader(config Config) *Reader {
	return &Reader{
		config: config,
		lines:  make(chan string, 16),
	}
}

// Lines returns the received command lines.
func (r *Reader) Lines() <-chan string {
	return r.lines
}

// Run opens the port and reads until ctx is cancelled, reopening with
// growing backoff after open failures or read errors.
func (r *Reader) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		port, err := serial.Open(r.config.Port, &serial.Mode{BaudRate: r.config.Baud})
		if err != nil {
			zlog.Warn().Err(err).Str("port", r.config.Port).Dur("retry_in", backoff).Msg("cannot open serial port")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*3/2, maxBackoff)
			continue
		}

		zlog.Info().Str("port", r.config.Port).Int("baud", r.config.Baud).Msg("serial port open")
		backoff = initialBackoff
		r.readFrom(ctx, port)
		_ = port.Close()
	}
}

// readFrom scans lines until the port errors out or ctx is cancelled.
// Cancellation closes the port to unblock the pending read.
func (r *Reader) readFrom(ctx context.Context, port serial.Port) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = port.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case r.lines <- line:
		default:
			zlog.Warn().Str("line", line).Msg("dropping serial line, dispatcher is behind")
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		zlog.Warn().Err(err).Str("port", r.config.Port).Msg("serial read failed, reopening")
	}
}
