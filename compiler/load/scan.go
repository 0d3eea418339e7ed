package load

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"
)

// OwnHeader marks files written by the generator. They are skipped during
// extraction so generated output never feeds back into the model.
const OwnHeader = "Code generated by spiderly. DO NOT EDIT."

// GeneratedDirective marks a hand-written declaration as a generated
// placeholder.
const GeneratedDirective = "Generated"

// Scanner collects the class descriptors of parsed Go files. Methods may be
// declared in a different file than their receiver, so descriptors are
// completed by Classes once every file of a package was added.
type Scanner struct {
	fset    *token.FileSet
	classes map[string]*ClassDescriptor // keyed by namespace.name
	methods map[string][]*MethodDescriptor
	order   []string
}

// NewScanner returns an empty scanner.
func NewScanner(fset *token.FileSet) *Scanner {
	if fset == nil {
		fset = token.NewFileSet()
	}
	return &Scanner{
		fset:    fset,
		classes: make(map[string]*ClassDescriptor),
		methods: make(map[string][]*MethodDescriptor),
	}
}

// AddFile scans one parsed file of the package importPath. Files without a
// role and files carrying OwnHeader are ignored.
func (s *Scanner) AddFile(f *ast.File, importPath string) {
	role := RoleOf(importPath)
	if role == RoleNone || ownGenerated(f) {
		return
	}
	generated := ast.IsGenerated(f)
	imports := fileImports(f)
	for _, decl := range f.Decls {
		switch decl := decl.(type) {
		case *ast.GenDecl:
			if decl.Tok != token.TYPE {
				continue
			}
			for _, spec := range decl.Specs {
				ts := spec.(*ast.TypeSpec)
				st, ok := ts.Type.(*ast.StructType)
				if !ok || !ts.Name.IsExported() {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(decl.Specs) == 1 {
					doc = decl.Doc
				}
				c := &ClassDescriptor{
					Name:       ts.Name.Name,
					Namespace:  importPath,
					Role:       role,
					Attributes: Directives(doc),
					Imports:    imports,
					Pos:        s.fset.Position(ts.Pos()).String(),
				}
				c.IsGenerated = generated || c.Attributes.Has(GeneratedDirective)
				s.structFields(c, st)
				key := importPath + "." + c.Name
				if _, dup := s.classes[key]; !dup {
					s.order = append(s.order, key)
				}
				s.classes[key] = c
			}
		case *ast.FuncDecl:
			if decl.Recv == nil || len(decl.Recv.List) == 0 || !decl.Name.IsExported() {
				continue
			}
			recv := receiverName(decl.Recv.List[0].Type)
			if recv == "" {
				continue
			}
			key := importPath + "." + recv
			s.methods[key] = append(s.methods[key], method(decl))
		}
	}
}

// Classes returns the scanned descriptors in declaration order, with their
// methods attached.
func (s *Scanner) Classes() []*ClassDescriptor {
	out := make([]*ClassDescriptor, 0, len(s.order))
	for _, key := range s.order {
		c := s.classes[key]
		c.Methods = s.methods[key]
		out = append(out, c)
	}
	return out
}

func (s *Scanner) structFields(c *ClassDescriptor, st *ast.StructType) {
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			if c.BaseType == nil {
				base := unqualified(field.Type)
				c.BaseType = &base
			}
			continue
		}
		attrs := Directives(field.Doc, field.Comment)
		typ := types.ExprString(field.Type)
		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			c.Properties = append(c.Properties, &PropertyDescriptor{
				Name:       name.Name,
				Type:       typ,
				Attributes: slices.Clone(attrs),
			})
		}
	}
}

func method(decl *ast.FuncDecl) *MethodDescriptor {
	m := &MethodDescriptor{
		Name:       decl.Name.Name,
		Attributes: Directives(decl.Doc),
	}
	for i, p := range decl.Type.Params.List {
		typ := types.ExprString(p.Type)
		if typ == "context.Context" {
			continue
		}
		if len(p.Names) == 0 {
			m.Params = append(m.Params, ParameterDescriptor{Name: fmt.Sprintf("p%d", i), Type: typ})
			continue
		}
		for _, n := range p.Names {
			m.Params = append(m.Params, ParameterDescriptor{Name: n.Name, Type: typ})
		}
	}
	if decl.Type.Results != nil {
		for _, r := range decl.Type.Results.List {
			if typ := types.ExprString(r.Type); typ != "error" {
				m.Returns = typ
				break
			}
		}
	}
	return m
}

// receiverName returns the type name of a method receiver: T, *T, T[ID]
// and *T[ID] all yield "T".
func receiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// unqualified renders an embedded type without its package qualifier.
func unqualified(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return unqualified(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return unqualified(e.X) + "[" + types.ExprString(e.Index) + "]"
	case *ast.IndexListExpr:
		args := make([]string, len(e.Indices))
		for i, idx := range e.Indices {
			args[i] = types.ExprString(idx)
		}
		return unqualified(e.X) + "[" + strings.Join(args, ", ") + "]"
	default:
		return types.ExprString(expr)
	}
}

func fileImports(f *ast.File) map[string]string {
	if len(f.Imports) == 0 {
		return nil
	}
	imports := make(map[string]string, len(f.Imports))
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := importName(p)
		if spec.Name != nil {
			if spec.Name.Name == "_" || spec.Name.Name == "." {
				continue
			}
			name = spec.Name.Name
		}
		imports[name] = p
	}
	return imports
}

// importName guesses the package name of an import path: the last element,
// skipping major version suffixes and a "go-" prefix.
func importName(p string) string {
	base := path.Base(p)
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		base = path.Base(path.Dir(p))
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexAny(base, ".-"); i >= 0 {
		base = base[:i]
	}
	return base
}

func ownGenerated(f *ast.File) bool {
	for _, g := range f.Comments {
		if g.Pos() >= f.Package {
			break
		}
		if strings.Contains(g.Text(), OwnHeader) {
			return true
		}
	}
	return false
}

// ScanDir extracts the unit rooted at dir without invoking the go tool.
// Import paths are derived from the nearest go.mod at or above dir. Hidden
// directories, testdata, vendor and test files are skipped.
func ScanDir(dir string) (*Unit, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	modDir, modPath, err := findModule(abs)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	s := NewScanner(fset)
	err = filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != abs && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".go" || strings.HasSuffix(p, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(modDir, filepath.Dir(p))
		if err != nil {
			return err
		}
		importPath := modPath
		if rel != "." {
			importPath = path.Join(modPath, filepath.ToSlash(rel))
		}
		if RoleOf(importPath) == RoleNone {
			return nil
		}
		f, err := parser.ParseFile(fset, p, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return fmt.Errorf("load: parse %s: %w", p, err)
		}
		s.AddFile(f, importPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u := &Unit{Name: modPath, Classes: s.Classes()}
	u.Sort()
	return u, nil
}

// findModule walks up from dir to the nearest go.mod and returns its
// directory and module path.
func findModule(dir string) (string, string, error) {
	for d := dir; ; {
		data, err := os.ReadFile(filepath.Join(d, "go.mod"))
		if err == nil {
			p := modfile.ModulePath(data)
			if p == "" {
				return "", "", fmt.Errorf("load: %s/go.mod has no module directive", d)
			}
			return d, p, nil
		}
		if !os.IsNotExist(err) {
			return "", "", err
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", "", fmt.Errorf("load: no go.mod found at or above %s", dir)
		}
		d = parent
	}
}
