// Package player launches audio playback subprocesses.
package player

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/brian7m3/DRX/internal/app/playback"
)

// ProcessPlayer plays files through aplay. A resume with a nonzero
// offset pipes sox with a trim into aplay instead, since aplay cannot
// seek.
type ProcessPlayer struct {
	device string
}

// New creates a player for the given ALSA device name.
func New(device string) *ProcessPlayer {
	return &ProcessPlayer{device: device}
}

// Start launches the playback process and returns immediately.
func (p *ProcessPlayer) Start(file string, offset time.Duration) (playback.Handle, error) {
	var cmd *exec.Cmd
	if offset > 0 {
		trim := strconv.FormatFloat(offset.Seconds(), 'f', 2, 64)
		pipeline := fmt.Sprintf("sox %q -t wav - trim %s | aplay -q -D %q -",
			file, trim, p.device)
		cmd = exec.Command("/bin/sh", "-c", pipeline)
	} else {
		cmd = exec.Command("aplay", "-q", "-D", p.device, file)
	}
	// Own process group, so Terminate can take the sox|aplay pipeline
	// down as a unit.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start playback of %s", file)
	}
	zlog.Debug().Str("file", file).Dur("offset", offset).Int("pid", cmd.Process.Pid).Msg("playback process started")

	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go h.wait()
	return h, nil
}

type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu     sync.Mutex
	exited bool
}

func (h *processHandle) wait() {
	_ = h.cmd.Wait()
	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()
	close(h.done)
}

// Running reports whether the process is still playing.
func (h *processHandle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.exited
}

// Terminate signals the whole process group and waits briefly for it
// to go away. Safe to call on an already-exited process.
func (h *processHandle) Terminate() {
	h.mu.Lock()
	exited := h.exited
	h.mu.Unlock()
	if exited {
		return
	}

	if err := syscall.Kill(-h.cmd.Process.Pid, syscall.SIGTERM); err != nil {
		_ = h.cmd.Process.Kill()
	}
	select {
	case <-h.done:
	case <-time.After(time.Second):
		_ = syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL)
	}
}
