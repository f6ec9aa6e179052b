package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExtractor serves fixed content per entry index.
type mockExtractor struct {
	content map[int][]byte
	errs    map[int]error
}

func (m *mockExtractor) Extract(i int) ([]byte, error) {
	if err, ok := m.errs[i]; ok {
		return nil, err
	}
	data, ok := m.content[i]
	if !ok {
		return nil, fmt.Errorf("no entry %d", i)
	}
	return data, nil
}

// mockSink captures committed items for testing.
type mockSink struct {
	mu            sync.Mutex
	shouldProcess func(*Item) bool
	written       map[string][]byte
	discarded     []string
}

func newMockSink() *mockSink {
	return &mockSink{
		shouldProcess: func(*Item) bool { return true },
		written:       make(map[string][]byte),
	}
}

func (s *mockSink) ShouldProcess(item *Item) bool {
	return s.shouldProcess(item)
}

func (s *mockSink) Writer(item *Item) (Committer, error) {
	return &mockCommitter{sink: s, path: item.Path}, nil
}

type mockCommitter struct {
	sink *mockSink
	path string
	data []byte
}

func (c *mockCommitter) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *mockCommitter) Commit() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.written[c.path] = c.data
	return nil
}

func (c *mockCommitter) Discard() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.discarded = append(c.sink.discarded, c.path)
	return nil
}

func testItems(n int) ([]Item, *mockExtractor) {
	items := make([]Item, n)
	ex := &mockExtractor{content: make(map[int][]byte), errs: make(map[int]error)}
	for i := range items {
		data := []byte(fmt.Sprintf("content of entry %d", i))
		items[i] = Item{Index: i, Hash: uint64(i) + 100, Path: fmt.Sprintf("dir%d/file%d.bin", i%3, i), Size: uint64(len(data))}
		ex.content[i] = data
	}
	return items, ex
}

func TestProcess(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{-1, 0, 1, 4, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()
			items, ex := testItems(20)
			sink := newMockSink()

			var progressCalls int
			var lastDone int
			p := NewProcessor(ex, WithWorkers(workers), WithProgress(func(done, total int, _ *Item) {
				progressCalls++
				lastDone = done
				assert.Equal(t, 20, total)
			}))
			stats, err := p.Process(context.Background(), items, sink)
			require.NoError(t, err)

			assert.Equal(t, 20, stats.Processed)
			assert.Zero(t, stats.Skipped)
			var total uint64
			for _, it := range items {
				assert.Equal(t, ex.content[it.Index], sink.written[it.Path])
				total += it.Size
			}
			assert.Equal(t, total, stats.TotalBytes)
			assert.Equal(t, 20, progressCalls)
			assert.Equal(t, 20, lastDone)
		})
	}
}

func TestProcessSkips(t *testing.T) {
	t.Parallel()

	items, ex := testItems(6)
	sink := newMockSink()
	sink.shouldProcess = func(item *Item) bool { return item.Index%2 == 0 }

	stats, err := NewProcessor(ex).Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, stats.Skipped)
	assert.Len(t, sink.written, 3)

	sink.shouldProcess = func(*Item) bool { return false }
	stats, err = NewProcessor(ex).Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 6}, stats)
}

func TestProcessError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	items, ex := testItems(10)
	ex.errs[4] = errBoom

	_, err := NewProcessor(ex, WithWorkers(-1)).Process(context.Background(), items, newMockSink())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), items[4].Path)
}

func TestProcessCanceled(t *testing.T) {
	t.Parallel()

	items, ex := testItems(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := newMockSink()
	_, err := NewProcessor(ex).Process(ctx, items, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.written)
}

func TestProcessEmpty(t *testing.T) {
	t.Parallel()

	stats, err := NewProcessor(&mockExtractor{}).Process(context.Background(), nil, newMockSink())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestFileSink(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out")
	items, ex := testItems(5)
	sink := NewFileSink(dest)

	stats, err := NewProcessor(ex, WithWorkers(2)).Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Processed)

	for _, it := range items {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(it.Path)))
		require.NoError(t, err)
		assert.Equal(t, ex.content[it.Index], got)
	}

	// A second pass skips files that already exist.
	stats, err = NewProcessor(ex).Process(context.Background(), items, sink)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Skipped)
	assert.Zero(t, stats.Processed)

	// Overwrite replaces them.
	ex.content[0] = []byte("replaced")
	stats, err = NewProcessor(ex).Process(context.Background(), items, NewFileSink(dest, WithOverwrite(true)))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Processed)
	got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(items[0].Path)))
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))

	assertNoTempFiles(t, dest)
}

func TestFileSinkMode(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	sink := NewFileSink(dest, WithFileMode(0o600))
	w, err := sink.Writer(&Item{Path: "a.bin"})
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	info, err := os.Stat(filepath.Join(dest, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileSinkDiscard(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	sink := NewFileSink(dest)
	w, err := sink.Writer(&Item{Path: "nested/partial.bin"})
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)
	require.NoError(t, w.Discard())

	_, err = os.Stat(filepath.Join(dest, "nested", "partial.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assertNoTempFiles(t, dest)
}

func TestFileSinkInvalidPath(t *testing.T) {
	t.Parallel()

	sink := NewFileSink(t.TempDir())
	for _, p := range []string{"../escape", "/abs", "a/../../b", ".", ""} {
		_, err := sink.Writer(&Item{Path: p})
		assert.Error(t, err, "path %q", p)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		assert.NotContains(t, d.Name(), tempPrefix, "leftover temp file %s", path)
		return nil
	})
	require.NoError(t, err)
}
