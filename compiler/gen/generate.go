package gen

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ArtifactStatus is the outcome of one emitter.
type ArtifactStatus int

// Artifact outcomes.
const (
	StatusWritten ArtifactStatus = iota
	StatusUnchanged
	StatusRemoved
	StatusDisabled
	StatusFailed
)

func (s ArtifactStatus) String() string {
	return enumName([]string{"written", "unchanged", "removed", "disabled", "failed"}, int(s))
}

// MarshalYAML implements yaml.Marshaler.
func (s ArtifactStatus) MarshalYAML() (any, error) { return s.String(), nil }

// Artifact reports what happened to one output file.
type Artifact struct {
	Name   string         `yaml:"name"`
	Path   string         `yaml:"path"`
	Status ArtifactStatus `yaml:"status"`
	Err    error          `yaml:"-"`
}

// Report summarizes a generation run. Artifacts are in emitter order.
type Report struct {
	Artifacts []Artifact
	Metrics   WriterMetrics
	// Skipped is set when the run emitted nothing on purpose and holds the
	// reason.
	Skipped string
}

// Changed reports whether any file was written or removed.
func (r *Report) Changed() bool {
	for _, a := range r.Artifacts {
		if a.Status == StatusWritten || a.Status == StatusRemoved {
			return true
		}
	}
	return false
}

// JenniferGenerator runs emitters concurrently against a classified graph.
// Emitters do not cancel each other: every artifact is attempted and the
// errors of the failing ones are joined.
type JenniferGenerator struct {
	graph    *Graph
	emitters []Emitter
	workers  int
	writer   *FileWriter
}

// NewJenniferGenerator creates a generator writing under g.Config.Target.
//
// Example:
//
//	import "github.com/deepakshirkem/spiderly/compiler/gen/emit"
//
//	gen := gen.NewJenniferGenerator(graph, emit.All()...)
//	report, err := gen.Generate(ctx)
func NewJenniferGenerator(g *Graph, emitters ...Emitter) *JenniferGenerator {
	workers := runtime.GOMAXPROCS(0)
	target := ""
	if g != nil && g.Config != nil {
		target = g.Config.Target
		if g.Config.Workers > 0 {
			workers = g.Config.Workers
		}
	}
	return &JenniferGenerator{
		graph:    g,
		emitters: emitters,
		workers:  workers,
		writer:   NewFileWriter(target),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Generate renders every enabled emitter and writes the artifacts whose
// content changed. Disabled emitters remove the output of earlier runs.
func (g *JenniferGenerator) Generate(ctx context.Context) (*Report, error) {
	if g.graph == nil || g.graph.Config == nil || g.graph.Config.Target == "" {
		return nil, NewConfigError("Target", nil, "missing target directory in config")
	}
	if len(g.emitters) == 0 {
		return nil, NewConfigError("Emitters", nil, "no emitters: pass at least one to NewJenniferGenerator")
	}
	log := g.graph.Config.logger().Named("generate")
	report := &Report{Artifacts: make([]Artifact, len(g.emitters))}

	var (
		errg errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	errg.SetLimit(g.workers)
	for i, e := range g.emitters {
		report.Artifacts[i] = Artifact{Name: e.Name(), Path: e.Path()}
		errg.Go(func() error {
			a := &report.Artifacts[i]
			a.Status, a.Err = g.run(ctx, e, log.With(zap.String("artifact", e.Name())))
			if a.Err != nil {
				a.Status = StatusFailed
				mu.Lock()
				errs = append(errs, a.Err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = errg.Wait()
	report.Metrics = g.writer.Metrics()
	return report, errors.Join(errs...)
}

func (g *JenniferGenerator) run(ctx context.Context, e Emitter, log *zap.Logger) (ArtifactStatus, error) {
	if err := ctx.Err(); err != nil {
		return StatusFailed, err
	}
	if !g.FeatureEnabled(e.Feature().Name) {
		if err := e.Feature().Cleanup(g.graph.Config); err != nil {
			return StatusFailed, NewGenerationError(e.Name(), e.Path(), "cleanup of disabled feature", err)
		}
		log.Debug("feature disabled", zap.String("feature", e.Feature().Name))
		return StatusDisabled, nil
	}
	f, err := e.Emit(&emitterHelper{JenniferGenerator: g, log: log})
	if err != nil {
		if !IsGenerationError(err) {
			err = NewGenerationError(e.Name(), e.Path(), "emit", err)
		}
		log.Error("artifact failed", zap.Error(err))
		return StatusFailed, err
	}
	if f == nil {
		removed, err := g.writer.Remove(e.Path())
		if err != nil {
			return StatusFailed, NewGenerationError(e.Name(), e.Path(), "remove stale artifact", err)
		}
		if removed {
			log.Info("removed stale artifact", zap.String("path", e.Path()))
			return StatusRemoved, nil
		}
		return StatusUnchanged, nil
	}
	changed, err := g.writer.Write(f, e.Path())
	if err != nil {
		return StatusFailed, NewGenerationError(e.Name(), e.Path(), "write", err)
	}
	if !changed {
		log.Debug("artifact unchanged", zap.String("path", e.Path()))
		return StatusUnchanged, nil
	}
	log.Info("wrote artifact", zap.String("path", e.Path()))
	return StatusWritten, nil
}

// =============================================================================
// GeneratorHelper interface implementation
// =============================================================================

// NewFile creates a new Jennifer file with the standard header comment.
func (g *JenniferGenerator) NewFile(pkg string) *jen.File {
	return NewFile(pkg)
}

// Graph returns the classified graph.
func (g *JenniferGenerator) Graph() *Graph {
	return g.graph
}

// FeatureEnabled reports if the given feature name is enabled.
func (g *JenniferGenerator) FeatureEnabled(name string) bool {
	return g.graph.Config.FeatureEnabled(name)
}

// Logger returns the generator logger.
func (g *JenniferGenerator) Logger() *zap.Logger {
	return g.graph.Config.logger()
}

// emitterHelper scopes the logger to one artifact.
type emitterHelper struct {
	*JenniferGenerator
	log *zap.Logger
}

func (h *emitterHelper) Logger() *zap.Logger { return h.log }

// Generate is the convenience function running emitters against g.
func Generate(ctx context.Context, g *Graph, emitters ...Emitter) (*Report, error) {
	if g == nil {
		return nil, NewConfigError("Graph", nil, "graph cannot be nil")
	}
	return NewJenniferGenerator(g, emitters...).Generate(ctx)
}

// String renders a one-line summary of the report.
func (r *Report) String() string {
	counts := make(map[ArtifactStatus]int)
	for _, a := range r.Artifacts {
		counts[a.Status]++
	}
	return fmt.Sprintf("%d written, %d unchanged, %d removed, %d disabled, %d failed",
		counts[StatusWritten], counts[StatusUnchanged], counts[StatusRemoved], counts[StatusDisabled], counts[StatusFailed])
}
