package track

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2/wav"
)

// Duration reads the wav header of a file and returns its playback
// length. Pausing mode needs this to know when the cumulative played
// time covers the whole file.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open sound file")
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return 0, errors.Wrapf(err, "decode wav header of %s", path)
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
