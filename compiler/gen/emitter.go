package gen

import (
	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/load"
)

// Emitter renders one artifact from the classified graph.
//
// Emitters run concurrently against the same read-only graph and each one
// owns a single output file, so they must not mutate the graph.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    JenniferGenerator                        │
//	│  (Orchestration: parallel execution, in-memory validation)  │
//	└─────────────────────────┬───────────────────────────────────┘
//	                          │ runs
//	          ┌───────────────┼───────────────┐
//	          ▼               ▼               ▼
//	   ┌─────────────┐ ┌─────────────┐ ┌─────────────┐
//	   │  APIClient  │ │  Handlers   │ │  Filtering  │
//	   │ (gen/emit)  │ │ (gen/emit)  │ │ (gen/emit)  │
//	   └─────────────┘ └─────────────┘ └─────────────┘
type Emitter interface {
	// Name returns the artifact name used in logs and errors.
	Name() string
	// Feature returns the feature flag gating the emitter.
	Feature() Feature
	// Path returns the output file, relative to Config.Target.
	Path() string
	// Emit renders the artifact. A nil file and a nil error mean there is
	// nothing to write, and a previously written file is removed.
	Emit(h GeneratorHelper) (*jen.File, error)
}

// GeneratorHelper provides helper methods for emitter implementations.
// JenniferGenerator implements this interface, allowing emitter packages
// to use helper methods without importing the full generator.
type GeneratorHelper interface {
	// NewFile creates a new Jennifer file with the standard header comment.
	NewFile(pkg string) *jen.File

	// Graph returns the classified graph.
	Graph() *Graph

	// FeatureEnabled reports if the given feature name is enabled.
	FeatureEnabled(name string) bool

	// Logger returns the logger of the running emitter.
	Logger() *zap.Logger
}

// Header is the header comment of every generated file. Scanning skips
// files that carry it.
const Header = load.OwnHeader

// NewFile creates a Jennifer file with the generated-code header.
func NewFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(Header)
	return f
}
