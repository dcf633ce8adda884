// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FReader always returns an error on Read
type FReader struct{}

func (f *FReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

// SquadMember describes one member written by [WriteSquad].
type SquadMember struct {
	Name   string
	Tracks [][]string // title followed by artist names
}

// WriteSquad writes a squad manifest and one CSV playlist per member under dir and
// returns the manifest path.
func WriteSquad(t *testing.T, dir, name string, members ...SquadMember) string {
	t.Helper()

	var manifest strings.Builder
	fmt.Fprintf(&manifest, "name = %q\n", name)

	for i, member := range members {
		playlist := filepath.Join("playlists", fmt.Sprintf("%02d.csv", i))
		fmt.Fprintf(&manifest, "\n[[members]]\nname = %q\nplaylist = %q\n", member.Name, filepath.ToSlash(playlist))

		var csv strings.Builder
		csv.WriteString("id,title,artists\n")
		for j, track := range member.Tracks {
			fmt.Fprintf(&csv, "%s-%d,%q,%q\n", member.Name, j, track[0], strings.Join(track[1:], ";"))
		}
		MustWriteFile(t, filepath.Join(dir, playlist), csv.String())
	}

	path := filepath.Join(dir, "squad.toml")
	MustWriteFile(t, path, manifest.String())
	return path
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
