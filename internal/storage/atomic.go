// Package storage provides crash-safe primitives for writing Edison's
// file-based entity records: atomic whole-file replacement and
// lock-guarded append-only JSONL streams.
package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/edison-dev/edison/internal/edisonerr"
)

// WriteTextAtomic writes data to path by creating a tempfile in the same
// directory, fsyncing it, then renaming it over path. Rename within a
// directory is atomic on every platform Edison targets, so readers never
// observe a partially written file.
func WriteTextAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return edisonerr.IOError(path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return edisonerr.IOError(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return edisonerr.IOError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return edisonerr.IOError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return edisonerr.IOError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return edisonerr.IOError(path, err)
	}
	return syncDir(dir)
}

// WriteJSONAtomic marshals v as indented JSON and writes it atomically.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, path, "marshalling JSON", err)
	}
	data = append(data, '\n')
	return WriteTextAtomic(path, data)
}

// WriteYAMLAtomic marshals v as YAML and writes it atomically. Used for
// entity frontmatter headers, where field order is controlled by the
// caller's struct tags.
func WriteYAMLAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, path, "marshalling YAML", err)
	}
	if err := enc.Close(); err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, path, "marshalling YAML", err)
	}
	return WriteTextAtomic(path, buf.Bytes())
}

// ReadText reads a whole file, translating a missing file into a
// edisonerr.NotFound so callers don't need to special-case os.IsNotExist.
func ReadText(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, edisonerr.NotFound(path, "file does not exist")
		}
		return nil, edisonerr.IOError(path, err)
	}
	return data, nil
}

// AppendJSONL appends one JSON-encoded record, newline-terminated, to
// path under an advisory exclusive flock held for the duration of the
// append. This is the only concurrency primitive audit streams need:
// writers are expected to be short-lived CLI invocations, never
// long-running holders.
func AppendJSONL(path string, record any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return edisonerr.IOError(path, err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, path, "marshalling JSONL record", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return edisonerr.IOError(path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, path, "acquiring exclusive lock", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	if _, err := f.Write(data); err != nil {
		return edisonerr.IOError(path, err)
	}
	return f.Sync()
}

// syncDir fsyncs a directory so the rename itself is durable, not just
// the file contents. Best-effort: some platforms (and tmpfs) reject
// fsync on directories, which we tolerate.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return nil
	}
	return nil
}

// WithLock runs fn while holding an advisory exclusive flock on path,
// creating path if needed. Used by components (entity repositories,
// graph edges) that need a critical section wider than a single append.
func WithLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return edisonerr.IOError(path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return edisonerr.IOError(path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, path, "acquiring exclusive lock", err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return fn()
}
