package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithTarget(t *testing.T) {
	t.Run("sets target directory", func(t *testing.T) {
		c := &Config{}
		err := WithTarget("./app")(c)

		require.NoError(t, err)
		assert.Equal(t, "./app", c.Target)
	})

	t.Run("empty target returns error", func(t *testing.T) {
		c := &Config{}
		err := WithTarget("")(c)

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestWithFeatures(t *testing.T) {
	t.Run("adds single feature", func(t *testing.T) {
		c := &Config{}
		err := WithFeatures(FeatureStrictFilters)(c)

		require.NoError(t, err)
		require.Len(t, c.Features, 1)
		assert.Equal(t, "filtering/strict", c.Features[0].Name)
	})

	t.Run("ignores duplicates", func(t *testing.T) {
		c := &Config{Features: []Feature{FeatureAPIClient}}
		err := WithFeatures(FeatureAPIClient, FeatureHandlers)(c)

		require.NoError(t, err)
		assert.Len(t, c.Features, 2)
	})
}

func TestWithoutFeatures(t *testing.T) {
	t.Run("removes named features", func(t *testing.T) {
		c := &Config{Features: DefaultFeatures()}
		err := WithoutFeatures(FeatureAPIClient.Name)(c)

		require.NoError(t, err)
		assert.False(t, c.FeatureEnabled(FeatureAPIClient.Name))
		assert.True(t, c.FeatureEnabled(FeatureHandlers.Name))
	})

	t.Run("unknown name returns error", func(t *testing.T) {
		c := &Config{Features: DefaultFeatures()}
		err := WithoutFeatures("graphql")(c)

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Len(t, c.Features, len(DefaultFeatures()))
	})
}

func TestWithFeatureNames(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithFeatureNames("filtering", "filtering/strict")(c))
	assert.True(t, c.FeatureEnabled(FeatureFiltering.Name))
	assert.True(t, c.FeatureEnabled(FeatureStrictFilters.Name))

	err := WithFeatureNames("privacy")(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiclient, handlers, filtering, filtering/strict")
}

func TestWithWorkers(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithWorkers(3)(c))
	assert.Equal(t, 3, c.Workers)
	assert.True(t, IsConfigError(WithWorkers(0)(c)))
}

func TestWithLogger(t *testing.T) {
	c := &Config{}
	log := zap.NewExample()
	require.NoError(t, WithLogger(log)(c))
	assert.Same(t, log, c.Logger)
	assert.True(t, IsConfigError(WithLogger(nil)(c)))
}

func TestConfigApply(t *testing.T) {
	t.Run("applies multiple options", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(
			WithTarget("./app"),
			WithWorkers(2),
		)

		require.NoError(t, err)
		assert.Equal(t, "./app", c.Target)
		assert.Equal(t, 2, c.Workers)
	})

	t.Run("stops on first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(
			WithTarget(""), // Error
			WithWorkers(2), // Should not be applied
		)

		require.Error(t, err)
		assert.Empty(t, c.Target)
		assert.Zero(t, c.Workers)
	})
}

func TestConfigApplyAll(t *testing.T) {
	t.Run("collects all errors", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(
			WithTarget(""), // Error
			WithWorkers(0), // Error
		)

		require.Error(t, err)
		// errors.Join returns an error with Unwrap() []error
		unwrapper, ok := err.(interface{ Unwrap() []error })
		require.True(t, ok, "error should implement Unwrap() []error")
		assert.Len(t, unwrapper.Unwrap(), 2)
	})

	t.Run("returns nil when all succeed", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, c.ApplyAll(WithTarget("./app"), WithWorkers(1)))
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		c, err := NewConfig()

		require.NoError(t, err)
		assert.Positive(t, c.Workers)
		assert.NotNil(t, c.Logger)
		for _, f := range AllFeatures {
			assert.Equal(t, f.Default, c.FeatureEnabled(f.Name), f.Name)
		}
	})

	t.Run("returns error on invalid option", func(t *testing.T) {
		c, err := NewConfig(WithTarget(""))

		require.Error(t, err)
		assert.Nil(t, c)
	})
}

func TestMustNewConfig(t *testing.T) {
	t.Run("returns config on success", func(t *testing.T) {
		c := MustNewConfig(WithTarget("./app"))
		assert.Equal(t, "./app", c.Target)
	})

	t.Run("panics on error", func(t *testing.T) {
		assert.Panics(t, func() {
			MustNewConfig(WithTarget(""))
		})
	})
}

func TestFeatureByName(t *testing.T) {
	for _, f := range AllFeatures {
		got, err := FeatureByName(f.Name)
		require.NoError(t, err)
		assert.Equal(t, f.Name, got.Name)
	}
	_, err := FeatureByName("sql/upsert")
	assert.True(t, IsConfigError(err))
}

func TestFeatureCleanup(t *testing.T) {
	t.Run("removes artifact and empty directory", func(t *testing.T) {
		target := t.TempDir()
		path := filepath.Join(target, filepath.FromSlash(APIClientFile))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package apiclient\n"), 0o644))

		require.NoError(t, FeatureAPIClient.Cleanup(&Config{Target: target}))
		assert.NoFileExists(t, path)
		assert.NoDirExists(t, filepath.Dir(path))
	})

	t.Run("keeps non-empty directory", func(t *testing.T) {
		target := t.TempDir()
		path := filepath.Join(target, filepath.FromSlash(HandlersFile))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("package controllers\n"), 0o644))
		other := filepath.Join(filepath.Dir(path), "catalog.go")
		require.NoError(t, os.WriteFile(other, []byte("package controllers\n"), 0o644))

		require.NoError(t, FeatureHandlers.Cleanup(&Config{Target: target}))
		assert.NoFileExists(t, path)
		assert.FileExists(t, other)
	})

	t.Run("missing artifact is not an error", func(t *testing.T) {
		require.NoError(t, FeatureFiltering.Cleanup(&Config{Target: t.TempDir()}))
		require.NoError(t, FeatureStrictFilters.Cleanup(&Config{Target: t.TempDir()}))
	})
}
