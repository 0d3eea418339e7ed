// Package gen turns extracted declarations into the model the spiderly
// emitters render, and runs the emitters.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Annotated Go packages (entities, dto, controllers, services, mappers)
//	        ↓
//	   load.Unit per source (compiler/load)
//	        ↓
//	   MergedGraph (Merge: local unit + referenced units)
//	        ↓
//	   Graph (Classify: relations, controls, shapes, operations)
//	        ↓
//	   Emitters (compiler/gen/emit)
//	        ↓
//	   apiclient/, controllers/, filtering/ artifacts
//
// # Key Types
//
//   - MergedGraph: every declaration keyed by role and name
//   - Graph: the classified model shared by all emitters
//   - Entity, Property: classified entities and their properties
//   - Shape, Field: the data-transfer structures mirrored by the client
//   - Op: a companion operation, named by the fixed naming contract
//   - Controller, Endpoint: hand-authored controllers and their methods
//   - FilterField: a filterable field resolved to an entity path
//
// # Error Handling
//
// The package uses structured error types:
//
//   - AmbiguityError: a declaration found twice (ErrAmbiguous)
//   - StructuralError: an entity that cannot be classified (ErrInvalidSchema)
//   - ConfigError: configuration errors (ErrMissingConfig)
//   - GenerationError: an artifact that failed to render (ErrGenerationFailed)
//   - ValidationError: a strict check that failed (ErrValidationFailed)
//
// Example error handling:
//
//	report, err := gen.Generate(ctx, graph, emit.All()...)
//	if gen.IsAmbiguityError(err) {
//	    // two units declare the same entity
//	}
//	if errors.Is(err, gen.ErrValidationFailed) {
//	    // strict filter audit failed
//	}
//
// # Features
//
// Each emitter is gated by a feature flag, enabled by default. Disabling a
// feature removes the artifact a previous run wrote:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithTarget("./app"),
//	    gen.WithoutFeatures(gen.FeatureAPIClient.Name),
//	)
package gen
