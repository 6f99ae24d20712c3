package playback

import "time"

// Player launches the external audio process for a file. Offset is
// nonzero only for pausing-mode resumes.
type Player interface {
	Start(file string, offset time.Duration) (Handle, error)
}

// Handle supervises one running playback process.
type Handle interface {
	// Running reports whether the process is still playing.
	Running() bool
	// Terminate stops the process. It must be safe to call on an
	// already-exited process.
	Terminate()
}

// BusyDetector reads the channel-busy (COS) hardware signal.
type BusyDetector interface {
	Busy() bool
}

// BusyOutput drives the remote-busy output signal for the repeater
// controller hardware.
type BusyOutput interface {
	SetBusy(busy bool)
}

// DurationFunc probes a sound file's total playback length. Pausing
// mode uses it to decide when the file has been fully played.
type DurationFunc func(path string) (time.Duration, error)
