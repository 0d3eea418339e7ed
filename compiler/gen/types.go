package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"path"
	"strings"
)

// Well-known import paths.
const (
	RuntimePkg   = "github.com/deepakshirkem/spiderly"
	ClientPkg    = RuntimePkg + "/client"
	ServerPkg    = RuntimePkg + "/server"
	PredicatePkg = RuntimePkg + "/predicate"
	ChiPkg       = "github.com/go-chi/chi/v5"
	UUIDPkg      = "github.com/google/uuid"
	DecimalPkg   = "github.com/shopspring/decimal"
)

// TypeKind is the shape of a type expression.
type TypeKind int

// Type expression kinds.
const (
	KindNamed TypeKind = iota
	KindPointer
	KindSlice
	KindMap
	KindOther
)

// TypeRef is a type expression with its package qualifiers resolved to
// import paths.
type TypeRef struct {
	Kind TypeKind
	// Pkg is the import path of a named type, empty for predeclared types.
	Pkg  string
	Name string
	// Args are the type arguments of an instantiated generic type.
	Args []*TypeRef
	Elem *TypeRef
	Key  *TypeRef
	// Text is the source text of KindOther expressions.
	Text string
}

var predeclared = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true, "any": true, "error": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// ParseType resolves the type text of a declaration. Qualifiers are looked
// up in imports; unqualified names that are not predeclared belong to the
// declaring package ns.
func ParseType(text string, imports map[string]string, ns string) (*TypeRef, error) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return nil, fmt.Errorf("gen: parse type %q: %w", text, err)
	}
	return typeOf(expr, imports, ns), nil
}

// MustParseType is like ParseType but panics on malformed input.
func MustParseType(text string, imports map[string]string, ns string) *TypeRef {
	t, err := ParseType(text, imports, ns)
	if err != nil {
		panic(err)
	}
	return t
}

func typeOf(expr ast.Expr, imports map[string]string, ns string) *TypeRef {
	switch e := expr.(type) {
	case *ast.Ident:
		if predeclared[e.Name] {
			return &TypeRef{Kind: KindNamed, Name: e.Name}
		}
		return &TypeRef{Kind: KindNamed, Pkg: ns, Name: e.Name}
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			break
		}
		pkg, ok := imports[x.Name]
		if !ok {
			pkg = x.Name
		}
		return &TypeRef{Kind: KindNamed, Pkg: pkg, Name: e.Sel.Name}
	case *ast.StarExpr:
		return &TypeRef{Kind: KindPointer, Elem: typeOf(e.X, imports, ns)}
	case *ast.ArrayType:
		return &TypeRef{Kind: KindSlice, Elem: typeOf(e.Elt, imports, ns)}
	case *ast.MapType:
		return &TypeRef{Kind: KindMap, Key: typeOf(e.Key, imports, ns), Elem: typeOf(e.Value, imports, ns)}
	case *ast.IndexExpr:
		t := typeOf(e.X, imports, ns)
		t.Args = []*TypeRef{typeOf(e.Index, imports, ns)}
		return t
	case *ast.IndexListExpr:
		t := typeOf(e.X, imports, ns)
		for _, idx := range e.Indices {
			t.Args = append(t.Args, typeOf(idx, imports, ns))
		}
		return t
	case *ast.ParenExpr:
		return typeOf(e.X, imports, ns)
	}
	return &TypeRef{Kind: KindOther, Text: types.ExprString(expr)}
}

// Deref strips pointers.
func (t *TypeRef) Deref() *TypeRef {
	for t != nil && t.Kind == KindPointer {
		t = t.Elem
	}
	return t
}

// Is reports whether t is the named type pkg.name.
func (t *TypeRef) Is(pkg, name string) bool {
	return t != nil && t.Kind == KindNamed && t.Pkg == pkg && t.Name == name
}

// IsPredeclared reports whether t is a predeclared type.
func (t *TypeRef) IsPredeclared() bool {
	return t != nil && t.Kind == KindNamed && t.Pkg == ""
}

// IsBytes reports whether t is a byte slice.
func (t *TypeRef) IsBytes() bool {
	return t != nil && t.Kind == KindSlice && t.Elem.IsPredeclared() && (t.Elem.Name == "byte" || t.Elem.Name == "uint8")
}

// IsCollection reports whether t is a slice other than a byte slice.
func (t *TypeRef) IsCollection() bool {
	return t != nil && t.Kind == KindSlice && !t.IsBytes()
}

// InPackage reports whether the named type t is declared in a package whose
// last path element is base, e.g. "entities".
func (t *TypeRef) InPackage(base string) bool {
	return t != nil && t.Kind == KindNamed && t.Pkg != "" && path.Base(t.Pkg) == base
}

// String renders t with package base names as qualifiers. Shapes are
// rendered unqualified.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindPointer:
		return "*" + t.Elem.String()
	case KindSlice:
		return "[]" + t.Elem.String()
	case KindMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case KindOther:
		return t.Text
	}
	var b strings.Builder
	if t.Pkg != "" && t.Pkg != ShapePkg {
		b.WriteString(path.Base(t.Pkg))
		b.WriteString(".")
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		b.WriteString("[" + strings.Join(args, ", ") + "]")
	}
	return b.String()
}

// ScalarOf returns the scalar kind of t, pointers stripped.
func ScalarOf(t *TypeRef) ScalarKind {
	t = t.Deref()
	switch {
	case t == nil:
		return ScalarOther
	case t.Is("time", "Time"):
		return ScalarDate
	case t.Is(UUIDPkg, "UUID"):
		return ScalarIdentifier
	case t.Is(DecimalPkg, "Decimal"):
		return ScalarDecimal
	case !t.IsPredeclared():
		return ScalarOther
	}
	switch t.Name {
	case "string":
		return ScalarText
	case "bool":
		return ScalarBoolean
	case "float32", "float64":
		return ScalarDecimal
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "byte":
		return ScalarInteger
	default:
		return ScalarOther
	}
}

// Ptr returns a pointer to t.
func Ptr(t *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindPointer, Elem: t}
}

// SliceOf returns a slice of t.
func SliceOf(t *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindSlice, Elem: t}
}

// Named returns the named type pkg.name instantiated with args.
func Named(pkg, name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNamed, Pkg: pkg, Name: name, Args: args}
}

// Builtin returns the predeclared type name.
func Builtin(name string) *TypeRef {
	return &TypeRef{Kind: KindNamed, Name: name}
}
