// Package compiler runs the spiderly pipeline: it extracts the declarations
// of a project and its referenced units, merges and classifies them, and
// emits the API client, the base controllers and the filter builders.
//
//	report, err := compiler.Generate(ctx, compiler.Project{
//		Local:      load.Source{Dir: "."},
//		References: []load.Source{{Snapshot: "security.msgpack"}},
//	}, gen.WithTarget("."))
package compiler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/gen"
	"github.com/deepakshirkem/spiderly/compiler/gen/emit"
	"github.com/deepakshirkem/spiderly/compiler/load"
)

// Project lists the units of one pipeline run.
type Project struct {
	// Local is the unit code is generated for.
	Local load.Source `mapstructure:"local" yaml:"local"`
	// References are the units the local one builds on. Their declarations
	// lose merge ties against local ones.
	References []load.Source `mapstructure:"references" yaml:"references,omitempty"`
}

// Load extracts, merges and classifies the units of p.
func Load(ctx context.Context, p Project, opts ...gen.Option) (*gen.Graph, error) {
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return classify(ctx, c, p)
}

func classify(ctx context.Context, c *gen.Config, p Project) (*gen.Graph, error) {
	sources := append([]load.Source{p.Local}, p.References...)
	units, err := load.Extract(ctx, sources, c.Workers)
	if err != nil {
		return nil, err
	}
	for _, u := range units[1:] {
		u.External = true
	}
	mg, err := gen.Merge(c, units[0], units[1:]...)
	if err != nil {
		return nil, err
	}
	return gen.Classify(c, mg)
}

// Generate runs the pipeline and writes the artifacts of the enabled
// features under the configured target. When the local unit declares at
// most one qualifying class nothing is written and the returned report
// carries the reason in Skipped.
func Generate(ctx context.Context, p Project, opts ...gen.Option) (*gen.Report, error) {
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if c.Target == "" {
		return nil, gen.NewConfigError("Target", "", "target directory is required")
	}
	g, err := classify(ctx, c, p)
	if err != nil {
		return nil, err
	}
	if n := g.Declared(); n <= 1 {
		c.Logger.Info("nothing to generate", zap.String("dir", p.Local.Dir), zap.Int("declarations", n))
		return &gen.Report{Skipped: fmt.Sprintf("nothing to generate: %s has %d declarations", p.Local.Dir, n)}, nil
	}
	return gen.NewJenniferGenerator(g, emit.All()...).Generate(ctx)
}

// Audit returns the DTO fields of the local entities that filters cannot
// address.
func Audit(ctx context.Context, p Project, opts ...gen.Option) ([]gen.AuditEntry, error) {
	g, err := Load(ctx, p, opts...)
	if err != nil {
		return nil, err
	}
	return gen.Audit(g), nil
}

// Describe returns a serializable view of the classified graph of p.
func Describe(ctx context.Context, p Project, opts ...gen.Option) (*gen.Description, error) {
	g, err := Load(ctx, p, opts...)
	if err != nil {
		return nil, err
	}
	return gen.Describe(g), nil
}

// Snapshot extracts src and writes it to path, so that projects referencing
// it can load it without its sources.
func Snapshot(ctx context.Context, src load.Source, path string) (*load.Unit, error) {
	u, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	u.External = true
	if err := load.WriteSnapshot(path, u); err != nil {
		return nil, err
	}
	return u, nil
}
