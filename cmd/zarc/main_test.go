package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PMArkive/zarc"
	"github.com/PMArkive/zarc/internal/testutil"
)

func testFiles() []testutil.TestFile {
	return []testutil.TestFile{
		{Name: "data/readme.txt", Blocks: []testutil.TestBlock{{Data: []byte("Hello, ZARC!")}}},
		{Name: "data/chara/sophie.bin", Blocks: testutil.SplitBlocks(testutil.Pattern(zarc.BlockSize+77, 3), true)},
	}
}

// fixture writes an archive, a names file and an empty config into a temp dir.
func fixture(t *testing.T) (archive, names, config string) {
	t.Helper()
	dir := t.TempDir()
	archive = filepath.Join(dir, "test.zarc")
	require.NoError(t, os.WriteFile(archive, testutil.BuildArchive(t, testFiles()), 0o600))

	names = filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(names, []byte("data/readme.txt\ndata/chara/sophie.bin\n"), 0o600))

	config = filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(config, nil, 0o600))
	return archive, names, config
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"trace", zerolog.TraceLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"off", zerolog.Disabled, false},
		{"none", zerolog.Disabled, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseLogLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(`
[archive]
byte_order = little
max_entry_size = 1024
names = /tmp/names.txt

[log]
level = debug

[cache]
dir = /tmp/zarc-cache
max_bytes = 4096

[extract]
workers = 3
overwrite = true
`), 0o600))

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, Config{
		ByteOrder:     "little",
		MaxEntrySize:  1024,
		Names:         "/tmp/names.txt",
		LogLevel:      "debug",
		CacheDir:      "/tmp/zarc-cache",
		CacheMaxBytes: 4096,
		Workers:       3,
		Overwrite:     true,
	}, cfg)

	t.Run("missing optional", func(t *testing.T) {
		t.Parallel()
		cfg, err := loadConfig(filepath.Join(dir, "nope.ini"), false)
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		_, err := loadConfig(filepath.Join(dir, "nope.ini"), true)
		require.Error(t, err)
	})

	t.Run("bad value", func(t *testing.T) {
		t.Parallel()
		bad := filepath.Join(t.TempDir(), "bad.ini")
		require.NoError(t, os.WriteFile(bad, []byte("[extract]\nworkers = many\n"), 0o600))
		_, err := loadConfig(bad, true)
		require.ErrorContains(t, err, "extract.workers")
	})

	t.Run("negative cache size", func(t *testing.T) {
		t.Parallel()
		bad := filepath.Join(t.TempDir(), "bad.ini")
		require.NoError(t, os.WriteFile(bad, []byte("[cache]\nmax_bytes = -1\n"), 0o600))
		_, err := loadConfig(bad, true)
		require.ErrorContains(t, err, "cache.max_bytes")
	})
}

func TestHashCmd(t *testing.T) {
	t.Parallel()

	_, _, config := fixture(t)
	out, err := run(t, "--config", config, "hash", "a", "foo")
	require.NoError(t, err)
	assert.Equal(t, "ee63c6b3fb321542  a\nff8b3f4b9bf27f16  foo\n", out)
}

func TestInfoCmd(t *testing.T) {
	t.Parallel()

	archive, _, config := fixture(t)
	out, err := run(t, "--config", config, "info", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "byte order:")
	assert.Contains(t, out, "big")
	assert.Contains(t, out, "entries:")
	assert.Contains(t, out, fmt.Sprint(zarc.BlockSize+77+12))
}

func TestListCmd(t *testing.T) {
	t.Parallel()

	archive, names, config := fixture(t)
	out, err := run(t, "--config", config, "--names", names, "list", "--digest", archive)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "DIGEST")
	for _, f := range testFiles() {
		assert.Contains(t, out, f.Name)
		assert.Contains(t, out, fmt.Sprintf("%016x", f.HashValue()))
	}
	assert.Contains(t, out, "sha256:")
}

func TestCatCmd(t *testing.T) {
	t.Parallel()

	archive, _, config := fixture(t)
	files := testFiles()

	for _, arg := range []string{
		files[1].Name,
		fmt.Sprintf("0x%016x", files[1].HashValue()),
	} {
		out, err := run(t, "--config", config, "cat", archive, arg)
		require.NoError(t, err, arg)
		assert.True(t, bytes.Equal(files[1].Content(), []byte(out)), arg)
	}

	_, err := run(t, "--config", config, "cat", archive, "missing.txt")
	require.ErrorIs(t, err, zarc.ErrNotFound)

	_, err = run(t, "--config", config, "cat", archive, "#9")
	require.ErrorIs(t, err, zarc.ErrIndex)

	_, err = run(t, "--config", config, "cat", archive, "#x")
	require.Error(t, err)
}

func TestBlocksCmd(t *testing.T) {
	t.Parallel()

	archive, _, config := fixture(t)
	out, err := run(t, "--config", config, "blocks", archive, "data/chara/sophie.bin")
	require.NoError(t, err)
	assert.Contains(t, out, "lzma")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestExtractCmd(t *testing.T) {
	t.Parallel()

	archive, names, config := fixture(t)
	dest := t.TempDir()

	out, err := run(t, "--config", config, "--names", names, "extract", "-o", dest, "--workers", "2", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "extracted 2 entries")

	for _, f := range testFiles() {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(f.Name)))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(f.Content(), got), f.Name)
	}

	out, err = run(t, "--config", config, "--names", names, "extract", "-o", dest, archive)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped 2")
}

func TestVerifyCmd(t *testing.T) {
	t.Parallel()

	archive, _, config := fixture(t)
	out, err := run(t, "--config", config, "verify", archive)
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 entries\n", out)

	_, err = run(t, "--config", config, "--byte-order", "little", "verify", archive)
	require.Error(t, err)
}

func TestConfigOverrides(t *testing.T) {
	t.Parallel()

	archive, _, _ := fixture(t)
	config := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(config, []byte("[archive]\nbyte_order = little\n"), 0o600))

	_, err := run(t, "--config", config, "verify", archive)
	require.Error(t, err, "config byte order applies")

	_, err = run(t, "--config", config, "--byte-order", "big", "verify", archive)
	require.NoError(t, err, "flag overrides config")

	_, err = run(t, "--config", config, "--log-level", "loud", "verify", archive)
	require.ErrorContains(t, err, "invalid log level")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.ini"), "verify", archive)
	require.Error(t, err, "explicit config must exist")
}

func TestCacheDir(t *testing.T) {
	t.Parallel()

	archive, _, config := fixture(t)
	cacheDir := t.TempDir()
	files := testFiles()

	for range 2 {
		out, err := run(t, "--config", config, "--cache-dir", cacheDir, "cat", archive, files[0].Name)
		require.NoError(t, err)
		assert.Equal(t, string(files[0].Content()), out)
	}

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
