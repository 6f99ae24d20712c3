// Package track resolves numeric track codes to sound files on disk.
package track

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrTrackNotFound is returned when no file in the sound directory
// matches a resolved code.
var ErrTrackNotFound = errors.New("track not found")

// Entry is one playable track discovered in the library.
type Entry struct {
	Code int    // numeric track code
	Path string // absolute file path
}

// Name returns the file name without directory or extension, used as
// the display name for status reporting.
func (e Entry) Name() string {
	base := filepath.Base(e.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Library maps 4-digit track codes to files in a single sound
// directory. A code matches "<code><ext>" or "<code>-<title><ext>",
// ignoring leading zeros on either side. When several files share a
// code prefix the lexicographically first wins, so resolution is
// deterministic regardless of directory listing order.
type Library struct {
	dir string
	ext string
}

// NewLibrary creates a library over dir for files with the given
// extension (leading dot included, e.g. ".wav").
func NewLibrary(dir, ext string) *Library {
	return &Library{dir: dir, ext: strings.ToLower(ext)}
}

// Dir returns the sound directory path.
func (l *Library) Dir() string { return l.dir }

// Resolve returns the file for a raw code string such as "1234" or
// "P1234". It returns ErrTrackNotFound when nothing matches.
func (l *Library) Resolve(code string) (string, error) {
	names, err := l.listSorted()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if matchCodeFile(name, code, l.ext) {
			return filepath.Join(l.dir, name), nil
		}
	}
	return "", fmt.Errorf("%w: %s%s in %s", ErrTrackNotFound, code, l.ext, l.dir)
}

// ResolveCode resolves a numeric code, zero-padded to the 4-digit
// wire form.
func (l *Library) ResolveCode(code int) (string, error) {
	return l.Resolve(fmt.Sprintf("%04d", code))
}

// ResolveFile resolves a bare filename inside the sound directory.
// Names carrying path separators are rejected, so a serial command
// can never reach a file outside the directory.
func (l *Library) ResolveFile(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %s", ErrTrackNotFound, name)
	}
	path := filepath.Join(l.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrTrackNotFound, name)
	}
	return path, nil
}

// Available enumerates the tracks present for codes in (base, end],
// one entry per code, silently skipping codes with no file.
func (l *Library) Available(base, end int) []Entry {
	names, err := l.listSorted()
	if err != nil {
		return nil
	}
	var entries []Entry
	for code := base + 1; code <= end; code++ {
		want := fmt.Sprintf("%04d", code)
		for _, name := range names {
			if matchCodeFile(name, want, l.ext) {
				entries = append(entries, Entry{
					Code: code,
					Path: filepath.Join(l.dir, name),
				})
				break
			}
		}
	}
	return entries
}

func (l *Library) listSorted() ([]string, error) {
	dirents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(dirents))
	for _, de := range dirents {
		if !de.IsDir() {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// matchCodeFile reports whether a file name belongs to a track code.
// Comparison is leading-zero-insensitive on both sides and accepts a
// "-title" tail after the code.
func matchCodeFile(name, code, ext string) bool {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ext) {
		return false
	}
	code = strings.TrimPrefix(strings.TrimPrefix(code, "P"), "p")

	withZeros := code
	withoutZeros := strings.TrimLeft(code, "0")
	if withoutZeros == "" {
		withoutZeros = "0"
	}

	base := lower[:len(lower)-len(ext)]
	baseTrimmed := strings.TrimLeft(base, "0")
	if baseTrimmed == "" {
		baseTrimmed = "0"
	}

	return base == withZeros ||
		base == withoutZeros ||
		baseTrimmed == withoutZeros ||
		strings.HasPrefix(base, withZeros+"-") ||
		strings.HasPrefix(base, withoutZeros+"-")
}
