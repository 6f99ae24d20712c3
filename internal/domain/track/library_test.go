package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSoundDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	return dir
}

func TestMatchCodeFile(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		code  string
		match bool
	}{
		{"Exact", "1234.wav", "1234", true},
		{"Title suffix", "1234-station-id.wav", "1234", true},
		{"Leading zeros in code", "42.wav", "0042", true},
		{"Leading zeros in file", "0042.wav", "42", true},
		{"P prefix stripped", "1234.wav", "P1234", true},
		{"Uppercase extension", "1234.WAV", "1234", true},
		{"Different code", "1235.wav", "1234", false},
		{"Prefix without dash", "12345.wav", "1234", false},
		{"Wrong extension", "1234.mp3", "1234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, matchCodeFile(tt.file, tt.code, ".wav"))
		})
	}
}

func TestLibrary_Resolve(t *testing.T) {
	dir := makeSoundDir(t, "1234-bravo.wav", "1234-alpha.wav", "5678.wav")
	lib := NewLibrary(dir, ".wav")

	// Lexicographically first match wins.
	path, err := lib.Resolve("1234")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1234-alpha.wav"), path)

	path, err = lib.ResolveCode(5678)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "5678.wav"), path)

	_, err = lib.Resolve("9999")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestLibrary_ResolveFileStaysInsideSoundDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "sounds")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.wav"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "escape.wav"), []byte("x"), 0o644))
	lib := NewLibrary(dir, ".wav")

	path, err := lib.ResolveFile("id.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "id.wav"), path)

	// Traversal is rejected even when the target exists.
	for _, name := range []string{"../escape.wav", "sub/id.wav", "/etc/passwd", ""} {
		_, err := lib.ResolveFile(name)
		assert.ErrorIs(t, err, ErrTrackNotFound, "name %q", name)
	}
}

func TestLibrary_Available(t *testing.T) {
	dir := makeSoundDir(t, "4001.wav", "4002-title.wav", "4005.wav", "3999.wav")
	lib := NewLibrary(dir, ".wav")

	entries := lib.Available(4000, 4004)
	require.Len(t, entries, 2)
	assert.Equal(t, 4001, entries[0].Code)
	assert.Equal(t, 4002, entries[1].Code)
	assert.Equal(t, "4002-title", entries[1].Name())

	// The base code's own file is never part of its range.
	assert.Empty(t, lib.Available(4005, 4005))
}
