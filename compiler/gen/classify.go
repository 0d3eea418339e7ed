package gen

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/load"
)

// Directive names.
const (
	dirControl          = "UIControlType"
	dirOrdered          = "UIOrderedOneToMany"
	dirLazy             = "SimpleManyToManyTableLazyLoad"
	dirCommaSeparated   = "GenerateCommaSeparatedDisplayName"
	dirBlob             = "BlobName"
	dirDisplay          = "DisplayName"
	dirExcludeFromDTO   = "ExcludeFromDTO"
	dirProjectToDTO     = "ProjectToDTO"
	dirController       = "Controller"
	dirDoNotAuthorize   = "DoNotAuthorize"
	dirDoNotGenerate    = "UIDoNotGenerate"
	dirSkipSpinner      = "SkipSpinner"
	dirFromForm         = "FromForm"
	baseBusinessObject  = "BusinessObject"
	baseReadonlyObject  = "ReadonlyObject"
	baseControllerTrail = "BaseController"
)

var verbDirectives = []struct {
	name, method string
}{
	{"HttpGet", "GET"},
	{"HttpPost", "POST"},
	{"HttpPut", "PUT"},
	{"HttpDelete", "DELETE"},
}

// Classify turns the merged declarations into the model the emitters
// render. Structural problems of single entities are recorded on the
// entity; Classify itself only fails on configuration errors.
func Classify(c *Config, mg *MergedGraph) (*Graph, error) {
	if mg == nil {
		return nil, NewConfigError("Graph", nil, "merged graph cannot be nil")
	}
	g := &Graph{
		MergedGraph: mg,
		Config:      c,
		entities:    make(map[string]*Entity),
		shapes:      make(map[string]*Shape),
	}
	cl := &classifier{g: g, log: c.logger().Named("classify")}
	for _, cd := range mg.Classes(load.RoleEntity) {
		e := &Entity{Name: cd.Name, Class: cd, Local: mg.IsLocal(cd)}
		g.entities[e.Name] = e
		g.Entities = append(g.Entities, e)
	}
	for _, e := range g.Entities {
		cl.identity(e, nil)
	}
	for _, e := range g.Entities {
		cl.entity(e)
	}
	cl.mappers()
	for _, e := range g.Entities {
		if e.ID != nil {
			cl.companions(e)
		}
	}
	cl.applicationShapes()
	for _, e := range g.Entities {
		if e.ID != nil {
			e.Ops = operations(e)
		}
	}
	cl.controllers()
	sortBy(g.Shapes, func(s *Shape) string { return s.Name })
	return g, nil
}

type classifier struct {
	g   *Graph
	log *zap.Logger
}

// identity resolves the identifier type by following the base chain.
func (cl *classifier) identity(e *Entity, seen []string) (*TypeRef, bool) {
	if e.ID != nil || e.Err != nil {
		return e.ID, e.ReadOnly
	}
	if e.ManyToMany() {
		return nil, false
	}
	if slices.Contains(seen, e.Name) {
		e.Err = NewStructuralError(e.Name, "", "cyclic base type chain "+strings.Join(append(seen, e.Name), " -> "), nil)
		return nil, false
	}
	base, err := ParseType(e.Class.Base(), e.Class.Imports, e.Class.Namespace)
	if err != nil {
		e.Err = NewStructuralError(e.Name, "", "malformed base type", err)
		return nil, false
	}
	switch {
	case (base.Name == baseBusinessObject || base.Name == baseReadonlyObject) && len(base.Args) == 1:
		id := base.Args[0]
		if id.Kind == KindNamed && id.Pkg == e.Class.Namespace && cl.g.entities[id.Name] == nil {
			e.Err = NewStructuralError(e.Name, "", fmt.Sprintf("unresolved identifier type %s", id.Name), nil)
			return nil, false
		}
		e.ID = id
		e.ReadOnly = base.Name == baseReadonlyObject
	case cl.g.entities[base.Name] != nil:
		parent := cl.g.entities[base.Name]
		id, ro := cl.identity(parent, append(seen, e.Name))
		if id == nil {
			e.Err = NewStructuralError(e.Name, "", "base entity "+parent.Name+" has no identifier", parent.Err)
			return nil, false
		}
		e.ID, e.ReadOnly = id, ro
	default:
		e.Err = NewStructuralError(e.Name, "", "unknown base type "+e.Class.Base(), nil)
		return nil, false
	}
	return e.ID, e.ReadOnly
}

func (cl *classifier) entity(e *Entity) {
	log := cl.log.With(zap.String("entity", e.Name))
	attrs := e.Class.Attributes
	e.Controller = e.Name
	if v, ok := attrs.Get(dirController); ok && v != "" {
		e.Controller = v
	}
	e.Authorize = !attrs.Has(dirDoNotAuthorize)
	e.DoNotGenerate = attrs.Has(dirDoNotGenerate)
	terms, err := termsOf(e.Name, attrs)
	if err != nil {
		e.Err = errors.Join(e.Err, NewStructuralError(e.Name, "", "translation", err))
	}
	e.Terms = terms

	if e.ID != nil {
		e.Properties = append(e.Properties, cl.implicit(e)...)
	}
	for _, pd := range e.Class.Properties {
		p, err := cl.property(e, pd, log)
		if err != nil {
			e.Err = errors.Join(e.Err, err)
			continue
		}
		e.Properties = append(e.Properties, p)
		if p.Attributes.Has(dirDisplay) && e.Display == nil {
			e.Display = p
		}
	}
	for _, v := range attrs.All(dirProjectToDTO) {
		m, err := parseMapping(v)
		if err != nil {
			log.Warn("ignoring mapping rule", zap.String("rule", v), zap.Error(err))
			continue
		}
		e.Mappings = append(e.Mappings, m)
	}
	log.Debug("classified",
		zap.Stringer("id", e.ID),
		zap.Bool("readonly", e.ReadOnly),
		zap.String("controller", e.Controller),
		zap.Int("properties", len(e.Properties)),
	)
}

func (cl *classifier) implicit(e *Entity) []*Property {
	timeType := Named("time", "Time")
	props := []*Property{{Name: "Id", Type: e.ID}}
	if !e.ReadOnly {
		props = append(props,
			&Property{Name: "Version", Type: Builtin("int")},
			&Property{Name: "CreatedAt", Type: timeType},
			&Property{Name: "ModifiedAt", Type: timeType},
		)
	} else {
		props = append(props, &Property{Name: "CreatedAt", Type: timeType})
	}
	for _, p := range props {
		p.Implicit = true
		p.Relation = RelationScalar
		p.Scalar = ScalarOf(p.Type)
		p.Control = defaultControl(p)
		p.Terms, _ = termsOf(p.Name, nil)
	}
	return props
}

// property classifies one declared property, first matching rule wins.
func (cl *classifier) property(e *Entity, pd *load.PropertyDescriptor, log *zap.Logger) (*Property, error) {
	t, err := ParseType(pd.Type, e.Class.Imports, e.Class.Namespace)
	if err != nil {
		return nil, NewStructuralError(e.Name, pd.Name, "malformed type", err)
	}
	terms, err := termsOf(pd.Name, pd.Attributes)
	if err != nil {
		return nil, NewStructuralError(e.Name, pd.Name, "translation", err)
	}
	p := &Property{
		Name:           pd.Name,
		Type:           t,
		Attributes:     pd.Attributes,
		Terms:          terms,
		Blob:           pd.Attributes.Has(dirBlob),
		CommaSeparated: pd.Attributes.Has(dirCommaSeparated),
		ExcludeFromDTO: pd.Attributes.Has(dirExcludeFromDTO),
	}
	if v, ok := pd.Attributes.Get(dirControl); ok {
		if ctrl, ok := ParseControl(v); ok {
			p.Control = ctrl
		} else {
			log.Warn("unknown control type, using the default",
				zap.String("property", pd.Name),
				zap.String("control", v),
				zap.String("suggestion", Suggest(v, ControlNames())),
			)
		}
	}
	explicit := p.Control
	switch {
	case !t.Deref().IsCollection():
		if target := cl.g.entityOf(t); target != nil {
			p.Relation = RelationReferenceToOne
			p.Target = target
			p.Scalar = ScalarOf(target.ID)
			p.Autocomplete = explicit == ControlNone || explicit == ControlAutocomplete || explicit == ControlMultiAutocomplete
			p.Dropdown = explicit == ControlDropdown || explicit == ControlMultiSelect || p.CommaSeparated
		} else {
			p.Relation = RelationScalar
			p.Scalar = ScalarOf(t)
		}
	default:
		p.Target = cl.g.entityOf(t.Deref().Elem)
		if p.Target != nil {
			p.Scalar = ScalarOf(p.Target.ID)
		} else {
			p.Scalar = ScalarOther
		}
		switch {
		case pd.Attributes.Has(dirOrdered):
			p.Relation = RelationOrderedCollection
		case pd.Attributes.Has(dirLazy):
			p.Relation, p.Selection = RelationManyToMany, SelectionLazy
		case explicit == ControlMultiSelect || explicit == ControlMultiAutocomplete:
			p.Relation, p.Selection = RelationManyToMany, SelectionNamebook
		default:
			p.Relation = RelationUnorderedCollection
		}
		if p.Target != nil {
			p.Autocomplete = explicit == ControlAutocomplete || explicit == ControlMultiAutocomplete
			p.Dropdown = explicit == ControlDropdown || explicit == ControlMultiSelect || p.CommaSeparated
		}
	}
	if p.Control == ControlNone {
		p.Control = defaultControl(p)
	}
	return p, nil
}

func defaultControl(p *Property) Control {
	switch p.Relation {
	case RelationReferenceToOne:
		if p.Autocomplete {
			return ControlAutocomplete
		}
		return ControlDropdown
	case RelationOrderedCollection:
		return ControlTable
	case RelationManyToMany:
		if p.Selection == SelectionLazy {
			return ControlTable
		}
		return ControlMultiSelect
	case RelationScalar:
	default:
		return ControlNone
	}
	if p.Blob {
		return ControlFile
	}
	switch p.Scalar {
	case ScalarText, ScalarIdentifier:
		return ControlTextBox
	case ScalarInteger:
		return ControlInteger
	case ScalarDecimal:
		return ControlDecimal
	case ScalarDate:
		return ControlCalendar
	case ScalarBoolean:
		return ControlCheckBox
	default:
		return ControlNone
	}
}

var (
	mapRule    = regexp.MustCompile(`^\.?Map\(\s*\w+\s*=>\s*\w+\.(\w+)\s*,\s*\w+\s*=>\s*\w+\.([\w.]+)\s*\)$`)
	assignRule = regexp.MustCompile(`^(\w+)\s*=\s*([\w.]+)$`)
)

// parseMapping parses "Dest=Src.Path" and
// ".Map(dest => dest.Dest, src => src.Src.Path)".
func parseMapping(v string) (Mapping, error) {
	v = strings.TrimSpace(v)
	if m := mapRule.FindStringSubmatch(v); m != nil {
		return Mapping{Dest: m[1], Source: strings.Split(m[2], ".")}, nil
	}
	if m := assignRule.FindStringSubmatch(v); m != nil {
		return Mapping{Dest: m[1], Source: strings.Split(m[2], ".")}, nil
	}
	return Mapping{}, fmt.Errorf("malformed mapping rule %q", v)
}

// mappers attaches the mapping rules declared on mapper methods to the
// entity of the DTO they return.
func (cl *classifier) mappers() {
	for _, cd := range cl.g.Classes(load.RoleMapper) {
		for _, m := range cd.Methods {
			rules := m.Attributes.All(dirProjectToDTO)
			if len(rules) == 0 || m.Returns == "" {
				continue
			}
			t, err := ParseType(m.Returns, cd.Imports, cd.Namespace)
			if err != nil {
				continue
			}
			t = t.Deref()
			name, ok := trimSuffixOK(t.Name, "DTO")
			e := cl.g.entities[name]
			if !ok || e == nil || load.RoleOf(t.Pkg) != load.RoleDTO {
				cl.log.Warn("mapping rules on a method not returning a companion DTO",
					zap.String("mapper", cd.Name), zap.String("method", m.Name))
				continue
			}
			for _, v := range rules {
				mp, err := parseMapping(v)
				if err != nil {
					cl.log.Warn("ignoring mapping rule", zap.String("rule", v), zap.Error(err))
					continue
				}
				e.Mappings = append(e.Mappings, mp)
			}
		}
	}
}

// companions derives the DTO, main form and save body shapes of e.
func (cl *classifier) companions(e *Entity) {
	e.DTO = cl.shape(e, e.Name+"DTO", ShapeCompanion, func() []*Field { return companionFields(e) })
	e.MainUIForm = cl.shape(e, e.Name+"MainUIFormDTO", ShapeMainUIForm, func() []*Field { return mainUIFormFields(e) })
	e.SaveBody = cl.shape(e, e.Name+"SaveBodyDTO", ShapeSaveBody, func() []*Field { return saveBodyFields(e) })
}

// shape uses a generated declaration of name when one was scanned and
// synthesizes the fields otherwise. A hand-authored declaration extends
// the synthesized fields.
func (cl *classifier) shape(e *Entity, name string, kind ShapeKind, synth func() []*Field) *Shape {
	s := &Shape{Name: name, Kind: kind, Entity: e}
	cd := cl.g.DTO(name)
	switch {
	case cd != nil && cd.IsGenerated:
		s.Class, s.Generated = cd, true
		s.Fields = cl.declaredFields(cd)
		for _, f := range s.Fields {
			f.Computed = strings.HasSuffix(f.Name, "DisplayName") || strings.HasSuffix(f.Name, "CommaSeparated")
		}
	case cd != nil:
		s.Class = cd
		s.Fields = synth()
		for _, f := range cl.declaredFields(cd) {
			if s.Field(f.Name) == nil {
				s.Fields = append(s.Fields, f)
			}
		}
	default:
		s.Fields = synth()
	}
	cl.g.shapes[name] = s
	cl.g.Shapes = append(cl.g.Shapes, s)
	return s
}

func (cl *classifier) declaredFields(cd *load.ClassDescriptor) []*Field {
	var fields []*Field
	for _, pd := range cd.Properties {
		t, err := ParseType(pd.Type, cd.Imports, cd.Namespace)
		if err != nil {
			cl.log.Warn("skipping malformed DTO field", zap.String("dto", cd.Name), zap.String("field", pd.Name), zap.Error(err))
			continue
		}
		fields = append(fields, &Field{Name: pd.Name, JSON: JSONName(pd.Name), Type: t})
	}
	return fields
}

func (cl *classifier) applicationShapes() {
	for _, cd := range cl.g.Classes(load.RoleDTO) {
		if cl.g.shapes[cd.Name] != nil {
			continue
		}
		s := &Shape{Name: cd.Name, Kind: ShapeApplication, Class: cd, Generated: cd.IsGenerated}
		cl.g.shapes[cd.Name] = s
		cl.g.Shapes = append(cl.g.Shapes, s)
	}
	for _, s := range cl.g.Shapes {
		if s.Kind == ShapeApplication {
			s.Fields = cl.declaredFields(s.Class)
		}
	}
}

func field(name string, t *TypeRef, computed bool) *Field {
	return &Field{Name: name, JSON: JSONName(name), Type: t, Computed: computed}
}

func companionFields(e *Entity) []*Field {
	var fields []*Field
	for _, p := range e.Properties {
		if p.ExcludeFromDTO {
			continue
		}
		switch p.Relation {
		case RelationScalar:
			fields = append(fields, field(p.Name, p.Type, false))
		case RelationReferenceToOne:
			if p.Target.ID == nil {
				continue
			}
			fields = append(fields,
				field(p.Name+"Id", Ptr(p.Target.ID), false),
				field(p.Name+"DisplayName", Builtin("string"), true),
			)
		default:
			if p.CommaSeparated {
				fields = append(fields, field(p.Name+"CommaSeparated", Builtin("string"), true))
			}
		}
	}
	return fields
}

func mainUIFormFields(e *Entity) []*Field {
	fields := []*Field{field(e.Name+"DTO", Named(ShapePkg, e.Name+"DTO"), false)}
	for _, p := range e.Properties {
		if p.Target == nil || p.Target.ID == nil {
			continue
		}
		switch {
		case p.Relation == RelationManyToMany && p.Selection == SelectionNamebook:
			fields = append(fields, field(p.Name+"NamebookDTOList", SliceOf(Named(RuntimePkg, "Namebook", p.Target.ID)), false))
		case p.Relation == RelationOrderedCollection:
			fields = append(fields, field("Ordered"+p.Name+"DTO", SliceOf(Named(ShapePkg, p.Target.Name+"DTO")), false))
		}
	}
	return fields
}

func saveBodyFields(e *Entity) []*Field {
	fields := []*Field{field(e.Name+"DTO", Named(ShapePkg, e.Name+"DTO"), false)}
	for _, p := range e.Properties {
		if p.Target == nil || p.Target.ID == nil {
			continue
		}
		ids := SliceOf(p.Target.ID)
		switch {
		case p.Relation == RelationManyToMany && p.Selection == SelectionNamebook:
			fields = append(fields, field("Selected"+p.Name+"Ids", ids, false))
		case p.Relation == RelationManyToMany && p.Selection == SelectionLazy:
			fields = append(fields,
				field("Selected"+p.Name+"Ids", ids, false),
				field("Unselected"+p.Name+"Ids", ids, false),
				field("AreAll"+p.Name+"Selected", Ptr(Builtin("bool")), false),
				field(p.Name+"TableFilter", Ptr(Named(RuntimePkg, "Filter")), false),
			)
		case p.Relation == RelationOrderedCollection:
			fields = append(fields, field(p.Name+"DTO", SliceOf(Named(ShapePkg, p.Target.Name+"DTO")), false))
		}
	}
	return fields
}

// operations lists the companion operations of e in emission order.
func operations(e *Entity) []Op {
	op := func(k OpKind, p *Property) Op {
		name := ""
		if p != nil {
			name = p.Name
		}
		return Op{Kind: k, Name: k.Name(e.Name, name), Entity: e, Property: p}
	}
	ops := []Op{
		op(OpTableData, nil),
		op(OpExportTableData, nil),
		op(OpList, nil),
		op(OpMainUIForm, nil),
		op(OpGet, nil),
	}
	for _, p := range e.Properties {
		if p.Target == nil || p.Target.ID == nil {
			continue
		}
		if p.Autocomplete {
			ops = append(ops, op(OpAutocomplete, p))
		}
		if p.Dropdown {
			ops = append(ops, op(OpDropdown, p))
		}
		switch {
		case p.Relation == RelationOrderedCollection:
			ops = append(ops, op(OpOrdered, p))
		case p.Relation == RelationManyToMany && p.Selection == SelectionNamebook:
			ops = append(ops, op(OpNamebook, p))
		case p.Relation == RelationManyToMany && p.Selection == SelectionLazy:
			ops = append(ops, op(OpLazyTableData, p), op(OpLazyExport, p), op(OpLazySelectedIds, p))
		}
	}
	if !e.ReadOnly {
		ops = append(ops, op(OpSave, nil))
	}
	for _, p := range e.Properties {
		if p.Blob {
			ops = append(ops, op(OpUpload, p))
		}
	}
	if !e.ReadOnly {
		ops = append(ops, op(OpDelete, nil))
	}
	return ops
}

func (cl *classifier) controllers() {
	for _, cd := range cl.g.MergedGraph.Controllers() {
		if cd.IsGenerated {
			continue
		}
		route, _ := trimSuffixOK(cd.Name, "Controller")
		c := &Controller{Name: cd.Name, Route: route, Class: cd}
		if group, ok := trimSuffixOK(cd.Base(), baseControllerTrail); ok {
			c.Extends = group
		}
		for _, m := range cd.Methods {
			if m.Name == "Routes" || m.Attributes.Has(dirDoNotGenerate) {
				continue
			}
			c.Endpoints = append(c.Endpoints, cl.endpoint(c, cd, m))
		}
		cl.g.Controllers = append(cl.g.Controllers, c)
	}
}

func (cl *classifier) endpoint(c *Controller, cd *load.ClassDescriptor, m *load.MethodDescriptor) *Endpoint {
	ep := &Endpoint{Name: m.Name, Controller: c, FromForm: m.Attributes.Has(dirFromForm)}
	for _, v := range verbDirectives {
		if m.Attributes.Has(v.name) {
			ep.Method = v.method
			break
		}
	}
	for _, p := range m.Params {
		t, err := ParseType(p.Type, cd.Imports, cd.Namespace)
		if err != nil {
			t = &TypeRef{Kind: KindOther, Text: p.Type}
		}
		ep.Params = append(ep.Params, Param{Name: p.Name, Type: t})
	}
	if m.Returns != "" {
		if t, err := ParseType(m.Returns, cd.Imports, cd.Namespace); err == nil {
			ep.Returns = t
		} else {
			ep.Returns = &TypeRef{Kind: KindOther, Text: m.Returns}
		}
	}
	ep.Transport = endpointTransport(ep.Returns, m.Attributes.Has(dirSkipSpinner))
	return ep
}

var skipSpinnerResults = []string{"Namebook", "Codebook", "TableResponse", "LazyLoadSelectedIdsResult"}

func endpointTransport(ret *TypeRef, skipSpinner bool) Transport {
	t := ret.Deref()
	switch {
	case t == nil:
		return TransportDefault
	case t.IsPredeclared() && t.Name == "string":
		return TransportText
	case t.IsBytes() || t.Is(RuntimePkg, "File"):
		return TransportBlob
	case skipSpinner:
		return TransportSkipSpinner
	}
	if t.IsCollection() {
		t = t.Elem.Deref()
	}
	if t.Kind == KindNamed && t.Pkg == RuntimePkg && slices.Contains(skipSpinnerResults, t.Name) {
		return TransportSkipSpinner
	}
	return TransportDefault
}

func sortBy[T any](s []T, key func(T) string) {
	slices.SortStableFunc(s, func(a, b T) int {
		return strings.Compare(key(a), key(b))
	})
}
