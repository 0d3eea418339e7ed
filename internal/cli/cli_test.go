package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/gen"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// shopConfig writes a configuration generating the shop fixture into a
// temporary target and returns its path.
func shopConfig(t *testing.T, extra string) string {
	t.Helper()
	shop, err := filepath.Abs("../../compiler/testdata/shop")
	require.NoError(t, err)
	security, err := filepath.Abs("../../compiler/testdata/security")
	require.NoError(t, err)
	dir := t.TempDir()
	path := filepath.Join(dir, "spiderly.yaml")
	writeFile(t, path, "local:\n  dir: "+shop+"\nreferences:\n  - dir: "+security+"\ntarget: out\n"+extra)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--no-color"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		dir := t.TempDir()
		c, err := LoadConfig(dir, "")
		require.NoError(t, err)
		assert.Equal(t, dir, c.Project().Local.Dir)
		assert.Equal(t, dir, c.TargetDir())
		assert.Equal(t, "300ms", c.Debounce)
	})

	t.Run("file paths are relative to the file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "spiderly.yaml"), `
local:
  dir: app
references:
  - snapshot: deps/security.msgpack
    name: security
target: gen
enable: [filtering/strict]
disable: [apiclient]
workers: 2
`)
		c, err := LoadConfig(dir, "")
		require.NoError(t, err)
		p := c.Project()
		assert.Equal(t, filepath.Join(dir, "app"), p.Local.Dir)
		require.Len(t, p.References, 1)
		assert.Equal(t, filepath.Join(dir, "deps/security.msgpack"), p.References[0].Snapshot)
		assert.Equal(t, "security", p.References[0].Name)
		assert.Equal(t, filepath.Join(dir, "gen"), c.TargetDir())

		cfg, err := gen.NewConfig(c.Options(zap.NewNop())...)
		require.NoError(t, err)
		assert.True(t, cfg.FeatureEnabled(gen.FeatureStrictFilters.Name))
		assert.False(t, cfg.FeatureEnabled(gen.FeatureAPIClient.Name))
		assert.Equal(t, 2, cfg.Workers)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "spiderly.yaml"), "target: gen\n")
		t.Setenv("SPIDERLY_TARGET", "env")
		c, err := LoadConfig(dir, "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "env"), c.TargetDir())
	})

	t.Run("dotenv file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".env"), "SPIDERLY_DEBOUNCE=1s\n")
		t.Cleanup(func() { os.Unsetenv("SPIDERLY_DEBOUNCE") })
		c, err := LoadConfig(dir, "")
		require.NoError(t, err)
		assert.Equal(t, "1s", c.Debounce)
	})

	t.Run("unknown feature", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "spiderly.yaml"), "enable: [graphql]\n")
		_, err := LoadConfig(dir, "")
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestGenerateCommand(t *testing.T) {
	path := shopConfig(t, "")

	out, err := run(t, "generate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 written, 0 unchanged")
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "out", gen.HandlersFile))

	out, err = run(t, "g", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 written, 3 unchanged")
}

func TestGenerateCommandNothingToDo(t *testing.T) {
	tiny, err := filepath.Abs("../../compiler/testdata/tiny")
	require.NoError(t, err)
	dir := t.TempDir()
	path := filepath.Join(dir, "spiderly.yaml")
	writeFile(t, path, "local:\n  dir: "+tiny+"\n")

	out, err := run(t, "generate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to generate")
}

func TestAuditCommand(t *testing.T) {
	path := shopConfig(t, "")
	out, err := run(t, "audit", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Product.Discount")
	assert.Contains(t, out, "Category.Legacy")

	_, err = run(t, "audit", "--fail", "-c", path)
	assert.ErrorIs(t, err, ErrAuditFailed)
}

func TestDescribeCommand(t *testing.T) {
	out, err := run(t, "describe", "-c", shopConfig(t, ""))
	require.NoError(t, err)
	assert.Contains(t, out, "unit: example.com/shop")
	assert.Contains(t, out, "relation: many-to-many")
}

func TestSnapshotCommand(t *testing.T) {
	security, err := filepath.Abs("../../compiler/testdata/security")
	require.NoError(t, err)
	dest := filepath.Join(t.TempDir(), "security.msgpack")

	out, err := run(t, "snapshot", security, dest)
	require.NoError(t, err)
	assert.Contains(t, out, "of example.com/security")
	assert.FileExists(t, dest)

	_, err = run(t, "snapshot", security)
	assert.Error(t, err)
}

func TestFeaturesCommand(t *testing.T) {
	out, err := run(t, "features")
	require.NoError(t, err)
	assert.Contains(t, out, "filtering/strict")
	assert.Contains(t, out, "beta")
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gen")
	ignore := artifactFilter(target)
	w, err := NewWatcher([]string{dir}, 200*time.Millisecond, ignore, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(files []string) { changes <- files }) }()

	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored\n")
	writeFile(t, filepath.Join(dir, "b.go"), "package a\n")

	select {
	case files := <-changes:
		assert.Equal(t, []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go")}, files)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestArtifactFilter(t *testing.T) {
	target := t.TempDir()
	ignore := artifactFilter(target)
	assert.True(t, ignore(filepath.Join(target, gen.FilteringFile)))
	assert.False(t, ignore(filepath.Join(target, "filtering", "custom.go")))
}
