package main

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
)

func durationMs(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// idleChannel is the --no-hardware channel detector: never busy.
type idleChannel struct{}

func (idleChannel) Busy() bool { return false }

// nopBusyOutput discards busy transitions when no GPIO is present.
type nopBusyOutput struct{}

func (nopBusyOutput) SetBusy(bool) {}

// stdinLines feeds commands typed on stdin, one per line.
func stdinLines(ctx context.Context) <-chan string {
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			zlog.Warn().Err(err).Msg("stdin read failed")
		}
	}()
	return lines
}
