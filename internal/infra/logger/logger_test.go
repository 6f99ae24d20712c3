package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		value string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.value), "level %q", tt.value)
	}
}

func TestInit_FileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drx.log")
	require.NoError(t, Init(Config{Level: "info", File: path}))
	defer func() { require.NoError(t, Init(Config{})) }()

	zlog.Info().Str("port", "/dev/ttyUSB0").Msg("serial port open")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"serial port open"`)
	assert.Contains(t, string(data), `"port":"/dev/ttyUSB0"`)
}

func TestInit_UnopenableFileFails(t *testing.T) {
	err := Init(Config{File: filepath.Join(t.TempDir(), "missing", "drx.log")})
	assert.Error(t, err)
}
