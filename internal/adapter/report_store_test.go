package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

func TestYAMLReportStore_SaveLoad(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), "reports"))

	reports := []m.FileReport{
		{
			Path:   "content/b.js",
			Hash:   "bb",
			Status: m.Failed,
			Messages: []m.Message{{
				Severity: m.SeverityFailure,
				Code:     "sandbox-eval",
				Message:  "dynamic evaluation in sandbox is disallowed",
				API:      "Components.utils.evalInSandbox",
				Location: m.Location{Line: 3, Column: 1},
			}},
			Bindings: []m.Binding{{Name: "Cu", Kind: "var", Value: "Components.utils"}},
		},
		{Path: "a.js", Hash: "aa", Status: m.Passed},
	}

	require.NoError(t, store.SaveReports(dir, reports))

	data, err := os.ReadFile(filepath.Join(string(dir), ReportsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 1")
	assert.Contains(t, string(data), "status: failed")
	assert.Contains(t, string(data), "severity: failure")

	loaded, err := store.LoadReports(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, m.Path("a.js"), loaded[0].Path)
	assert.Equal(t, reports[0], loaded[1])

	// The caller's slice keeps its order.
	assert.Equal(t, m.Path("content/b.js"), reports[0].Path)
}

func TestYAMLReportStore_Overwrite(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, store.SaveReports(dir, []m.FileReport{{Path: "a.js"}, {Path: "b.js"}}))
	require.NoError(t, store.SaveReports(dir, []m.FileReport{{Path: "c.js"}}))

	loaded, err := store.LoadReports(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, m.Path("c.js"), loaded[0].Path)

	entries, err := os.ReadDir(string(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestYAMLReportStore_LoadErrors(t *testing.T) {
	store := NewReportStore()

	t.Run("missing", func(t *testing.T) {
		_, err := store.LoadReports(m.Path(t.TempDir()))
		assert.ErrorIs(t, err, ErrNoReports)
	})

	t.Run("version", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, ReportsFileName), "version: 9\nreports: []\n")

		_, err := store.LoadReports(m.Path(dir))
		assert.ErrorIs(t, err, ErrReportsVersion)
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, ReportsFileName), "version: [\n")

		_, err := store.LoadReports(m.Path(dir))
		assert.Error(t, err)
	})

	t.Run("bad status", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, ReportsFileName), "version: 1\nreports:\n  - path: a.js\n    status: exploded\n")

		_, err := store.LoadReports(m.Path(dir))
		assert.Error(t, err)
	})
}

func TestYAMLReportStore_ShardDirs(t *testing.T) {
	store := NewReportStore()
	root := t.TempDir()

	mustMkdir(t, string(ShardPath(m.Path(root), 1)))
	mustMkdir(t, string(ShardPath(m.Path(root), 0)))
	mustMkdir(t, filepath.Join(root, "other"))
	writeTestFile(t, filepath.Join(root, "shard_file"), "")

	shards, err := store.ShardDirs(m.Path(root))
	require.NoError(t, err)
	assert.Equal(t, []m.Path{
		m.Path(filepath.Join(root, "shard_0")),
		m.Path(filepath.Join(root, "shard_1")),
	}, shards)

	_, err = store.ShardDirs(m.Path(filepath.Join(root, "missing")))
	assert.Error(t, err)
}
