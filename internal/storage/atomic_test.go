package storage

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextAtomicCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.md")

	require.NoError(t, WriteTextAtomic(path, []byte("hello")))

	data, err := ReadText(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover tempfile")
}

func TestWriteTextAtomicOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.md")

	require.NoError(t, WriteTextAtomic(path, []byte("v1")))
	require.NoError(t, WriteTextAtomic(path, []byte("v2")))

	data, err := ReadText(path)
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}

func TestReadTextMissingFile(t *testing.T) {
	_, err := ReadText(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
}

func TestWriteYAMLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entity.yaml")

	type header struct {
		ID     string `yaml:"id"`
		Status string `yaml:"status"`
	}
	require.NoError(t, WriteYAMLAtomic(path, header{ID: "T1", Status: "ready"}))

	data, err := ReadText(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "id: T1")
	require.Contains(t, string(data), "status: ready")
}

func TestAppendJSONLSequentialOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.jsonl")

	for i := 0; i < 5; i++ {
		require.NoError(t, AppendJSONL(path, map[string]int{"seq": i}))
	}

	data, err := ReadText(path)
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Equal(t, 5, len(lines))
	for i, line := range lines {
		require.Equal(t, `{"seq":`+strconv.Itoa(i)+`}`, line)
	}
}

func TestAppendJSONLConcurrentWritersDoNotCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "concurrent.jsonl")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = AppendJSONL(path, map[string]int{"writer": n})
		}(i)
	}
	wg.Wait()

	data, err := ReadText(path)
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 20, "every writer's record survived intact")
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
