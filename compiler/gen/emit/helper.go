package emit

import (
	"fmt"
	"sort"

	"github.com/dave/jennifer/jen"

	"github.com/deepakshirkem/spiderly/compiler/gen"
)

// typeCode renders t as a jennifer type expression. Shapes render as local
// identifiers since they are declared next to the code using them.
func typeCode(t *gen.TypeRef) jen.Code {
	if t == nil {
		return jen.Id("any")
	}
	switch t.Kind {
	case gen.KindPointer:
		return jen.Op("*").Add(typeCode(t.Elem))
	case gen.KindSlice:
		return jen.Index().Add(typeCode(t.Elem))
	case gen.KindMap:
		return jen.Map(typeCode(t.Key)).Add(typeCode(t.Elem))
	case gen.KindOther:
		return jen.Id(t.Text)
	}
	var c *jen.Statement
	if t.Pkg == "" || t.Pkg == gen.ShapePkg {
		c = jen.Id(t.Name)
	} else {
		c = jen.Qual(t.Pkg, t.Name)
	}
	if len(t.Args) > 0 {
		args := make([]jen.Code, len(t.Args))
		for i, a := range t.Args {
			args[i] = typeCode(a)
		}
		c = c.Types(args...)
	}
	return c
}

// entityType renders the entity declaration type.
func entityType(e *gen.Entity) *jen.Statement {
	return jen.Qual(e.Pkg(), e.Name)
}

// queryType renders spiderly.Query[E].
func queryType(e *gen.Entity) *jen.Statement {
	return jen.Qual(gen.RuntimePkg, "Query").Types(entityType(e))
}

// queryMethod is the BaseControllerStore method returning the query of e.
func queryMethod(e *gen.Entity) string {
	return e.Name + "Query"
}

// ownerParam is the query parameter carrying the identifier of the entity
// a selection list is requested for.
func ownerParam(e *gen.Entity) string {
	return gen.JSONName(e.Name) + "Id"
}

// entityErr returns the generation error of the first broken entity.
func entityErr(artifact, path string, entities []*gen.Entity) error {
	for _, e := range entities {
		if e.Err != nil {
			return gen.NewGenerationError(artifact, path, "entity "+e.Name, e.Err)
		}
	}
	return nil
}

// NameSet accumulates the identifiers declared in one generated scope.
type NameSet map[string]struct{}

// Add records name and reports whether it was free.
func (s NameSet) Add(name string) bool {
	if _, ok := s[name]; ok {
		return false
	}
	s[name] = struct{}{}
	return true
}

// Has reports whether name was recorded.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the recorded names in sorted order.
func (s NameSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the emitters of every artifact, in report order.
func All() []gen.Emitter {
	return []gen.Emitter{APIClient{}, Handlers{}, Filtering{}}
}

// ByName returns the emitter of the named artifact.
func ByName(name string) (gen.Emitter, error) {
	for _, e := range All() {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("emit: unknown artifact %q", name)
}
