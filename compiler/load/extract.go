package load

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Source describes where a compilation unit comes from. Exactly one of
// Snapshot, Patterns or Dir is used, in that order of precedence.
type Source struct {
	// Name overrides the unit name, which defaults to the module path.
	Name string `mapstructure:"name" yaml:"name,omitempty"`
	// Dir is the unit root. Patterns are resolved relative to it.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
	// Patterns are go package patterns, e.g. "./...".
	Patterns []string `mapstructure:"patterns" yaml:"patterns,omitempty"`
	// Snapshot is the path of a unit snapshot.
	Snapshot string `mapstructure:"snapshot" yaml:"snapshot,omitempty"`
	// External marks referenced units.
	External   bool     `mapstructure:"external" yaml:"external,omitempty"`
	BuildFlags []string `mapstructure:"build_flags" yaml:"buildFlags,omitempty"`
}

// Load extracts the unit described by s.
func (s Source) Load(ctx context.Context) (*Unit, error) {
	var (
		u   *Unit
		err error
	)
	switch {
	case s.Snapshot != "":
		u, err = ReadSnapshot(s.Snapshot)
	case len(s.Patterns) > 0:
		u, err = Packages(ctx, s.Dir, s.Patterns, s.BuildFlags)
	case s.Dir != "":
		u, err = ScanDir(s.Dir)
	default:
		err = errors.New("load: source has no dir, patterns or snapshot")
	}
	if err != nil {
		return nil, err
	}
	if s.Name != "" {
		u.Name = s.Name
	}
	u.External = u.External || s.External
	return u, nil
}

// Extract loads every source concurrently. Units are returned in source
// order; the first failure cancels the remaining loads.
func Extract(ctx context.Context, sources []Source, workers int) ([]*Unit, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	units := make([]*Unit, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			u, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("extract source %d: %w", i, err)
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}
