package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Artifact paths relative to Config.Target.
const (
	APIClientFile = "apiclient/api_client.generated.go"
	HandlersFile  = "controllers/base_controllers.generated.go"
	FilteringFile = "filtering/paginated_result.generated.go"
)

var (
	// FeatureAPIClient generates the typed remote-API client.
	FeatureAPIClient = Feature{
		Name:        "apiclient",
		Stage:       Stable,
		Default:     true,
		Description: "Generates a typed API client with one method per endpoint",
		cleanup: func(c *Config) error {
			return removeArtifact(c.Target, APIClientFile)
		},
	}

	// FeatureHandlers generates the base controllers serving the CRUD endpoints.
	FeatureHandlers = Feature{
		Name:        "handlers",
		Stage:       Stable,
		Default:     true,
		Description: "Generates chi base controllers for the companion operations of every entity",
		cleanup: func(c *Config) error {
			return removeArtifact(c.Target, HandlersFile)
		},
	}

	// FeatureFiltering generates the filter predicate builders.
	FeatureFiltering = Feature{
		Name:        "filtering",
		Stage:       Stable,
		Default:     true,
		Description: "Generates predicate builders translating table filters into queries",
		cleanup: func(c *Config) error {
			return removeArtifact(c.Target, FilteringFile)
		},
	}

	// FeatureStrictFilters fails generation when a DTO field cannot be
	// resolved to a filterable path.
	FeatureStrictFilters = Feature{
		Name:        "filtering/strict",
		Stage:       Beta,
		Default:     false,
		Description: "Fails generation when a DTO field has no filterable source",
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureAPIClient,
		FeatureHandlers,
		FeatureFiltering,
		FeatureStrictFilters,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development.
	Experimental

	// Alpha features are complete but their output may still change.
	Alpha

	// Beta features are documented and not expected to change.
	Beta

	// Stable features are enabled in production projects.
	Stable
)

func (s FeatureStage) String() string {
	return enumName([]string{"unknown", "experimental", "alpha", "beta", "stable"}, int(s))
}

// A Feature of the spiderly codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup removes the output of a previous run once the feature is
	// disabled.
	cleanup func(*Config) error
}

// Cleanup removes what the feature generated in earlier runs.
func (f Feature) Cleanup(c *Config) error {
	if f.cleanup == nil {
		return nil
	}
	return f.cleanup(c)
}

// DefaultFeatures returns the features enabled by default.
func DefaultFeatures() []Feature {
	var fs []Feature
	for _, f := range AllFeatures {
		if f.Default {
			fs = append(fs, f)
		}
	}
	return fs
}

// FeatureByName returns the feature with the given name.
func FeatureByName(name string) (Feature, error) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, nil
		}
	}
	names := make([]string, len(AllFeatures))
	for i, f := range AllFeatures {
		names[i] = f.Name
	}
	return Feature{}, NewConfigError("Features", name, fmt.Sprintf("unknown feature; use one of %s", strings.Join(names, ", ")))
}

// FeatureEnabled reports whether the named feature is enabled.
func (c *Config) FeatureEnabled(name string) bool {
	return slices.ContainsFunc(c.Features, func(f Feature) bool {
		return f.Name == name
	})
}

func removeArtifact(target, rel string) error {
	p := filepath.Join(target, filepath.FromSlash(rel))
	return remove(filepath.Dir(p), filepath.Base(p))
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}
