package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepakshirkem/spiderly/compiler/gen"
	"github.com/deepakshirkem/spiderly/compiler/load"
)

var shop = Project{
	Local:      load.Source{Dir: "testdata/shop"},
	References: []load.Source{{Dir: "testdata/security"}},
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	target := t.TempDir()

	report, err := Generate(ctx, shop, gen.WithTarget(target))
	require.NoError(t, err)
	require.Len(t, report.Artifacts, 3)
	for _, a := range report.Artifacts {
		assert.Equal(t, gen.StatusWritten, a.Status, a.Name)
	}

	controllers, err := os.ReadFile(filepath.Join(target, gen.HandlersFile))
	require.NoError(t, err)
	assert.Contains(t, string(controllers), "// "+gen.Header)
	assert.Contains(t, string(controllers), "type CatalogBaseController struct")
	assert.NotContains(t, string(controllers), "Stale", "previous output in the sources is not read")

	assert.FileExists(t, filepath.Join(target, gen.APIClientFile))
	assert.FileExists(t, filepath.Join(target, gen.FilteringFile))

	t.Run("second run is a no-op", func(t *testing.T) {
		report, err := Generate(ctx, shop, gen.WithTarget(target))
		require.NoError(t, err)
		assert.False(t, report.Changed())
	})

	t.Run("disabled feature removes its artifact", func(t *testing.T) {
		report, err := Generate(ctx, shop, gen.WithTarget(target), gen.WithoutFeatures(gen.FeatureAPIClient.Name))
		require.NoError(t, err)
		assert.Equal(t, gen.StatusDisabled, report.Artifacts[0].Status)
		assert.NoFileExists(t, filepath.Join(target, gen.APIClientFile))
	})

	t.Run("strict filters", func(t *testing.T) {
		_, err := Generate(ctx, shop, gen.WithTarget(t.TempDir()), gen.WithFeatures(gen.FeatureStrictFilters))
		assert.ErrorIs(t, err, gen.ErrValidationFailed)
	})
}

func TestGenerateNothingToDo(t *testing.T) {
	target := t.TempDir()
	report, err := Generate(context.Background(), Project{Local: load.Source{Dir: "testdata/tiny"}}, gen.WithTarget(target))
	require.NoError(t, err)
	assert.Contains(t, report.Skipped, "nothing to generate")
	assert.Empty(t, report.Artifacts)
	assert.NoFileExists(t, filepath.Join(target, gen.HandlersFile))
}

func TestGenerateRequiresTarget(t *testing.T) {
	_, err := Generate(context.Background(), shop)
	assert.True(t, gen.IsConfigError(err))
}

func TestGenerateFromSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "security.msgpack")
	u, err := Snapshot(ctx, load.Source{Dir: "testdata/security"}, path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/security", u.Name)

	p := Project{Local: shop.Local, References: []load.Source{{Snapshot: path}}}
	d, err := Describe(ctx, p)
	require.NoError(t, err)
	origins := make(map[string]string)
	for _, e := range d.Entities {
		origins[e.Name] = e.Origin
	}
	assert.Equal(t, "example.com/security", origins["User"])
	assert.Equal(t, "example.com/shop", origins["Product"])
}

func TestAudit(t *testing.T) {
	entries, err := Audit(context.Background(), shop)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	fields := []string{entries[0].Entity + "." + entries[0].Field, entries[1].Entity + "." + entries[1].Field}
	assert.ElementsMatch(t, []string{"Category.Legacy", "Product.Discount"}, fields)
}

func TestLoadMissingSource(t *testing.T) {
	_, err := Load(context.Background(), Project{Local: load.Source{}})
	assert.Error(t, err)
}
