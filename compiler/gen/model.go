package gen

import (
	"strings"

	"github.com/deepakshirkem/spiderly/compiler/load"
)

// ShapePkg qualifies references to shapes emitted next to each other in the
// client module, e.g. the UserDTO field of UserMainUIFormDTO.
const ShapePkg = "spiderly:shape"

// Graph is the classified model the emitters render. It is read-only once
// Classify returns and is shared by concurrently running emitters.
type Graph struct {
	*MergedGraph
	Config *Config

	// Entities holds every entity sorted by name, many-to-many join
	// declarations included.
	Entities []*Entity
	// Shapes holds the application DTOs and the companion shapes of every
	// entity, sorted by name.
	Shapes []*Shape
	// Controllers holds the hand-authored controllers sorted by name.
	Controllers []*Controller

	entities map[string]*Entity
	shapes   map[string]*Shape
}

// Entity is a classified entity declaration.
type Entity struct {
	Name  string
	Class *load.ClassDescriptor
	// Local marks entities of the unit being generated.
	Local bool
	// ID is the identifier type, nil for many-to-many join declarations and
	// when it cannot be resolved (see Err).
	ID       *TypeRef
	ReadOnly bool
	// Controller is the controller group, "User" for UserBaseController.
	Controller    string
	Authorize     bool
	DoNotGenerate bool
	Properties    []*Property
	// Display is the display property, nil when entities are displayed by
	// their identifier.
	Display  *Property
	Terms    Terms
	Mappings []Mapping

	DTO        *Shape
	MainUIForm *Shape
	SaveBody   *Shape
	// Ops are the companion operations in emission order.
	Ops []Op
	// Err is the structural error of the entity. Artifacts including the
	// entity fail with it.
	Err error
}

// ManyToMany reports whether e is a join declaration without base type.
func (e *Entity) ManyToMany() bool {
	return e.Class.BaseType == nil
}

// Pkg returns the import path of the entity package.
func (e *Entity) Pkg() string {
	return e.Class.Namespace
}

// BasePkg returns the import path the entity package lives in.
func (e *Entity) BasePkg() string {
	return load.BaseNamespace(e.Class.Namespace)
}

// Property returns the property name, or nil.
func (e *Entity) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// DisplayPath returns the property path displaying e.
func (e *Entity) DisplayPath() string {
	if e.Display != nil {
		return e.Display.Name
	}
	return "Id"
}

// PermissionCode returns the permission code of action on e, e.g.
// "ReadUser".
func (e *Entity) PermissionCode(action string) string {
	return action + e.Name
}

// Property is a classified entity property.
type Property struct {
	Name      string
	Type      *TypeRef
	Relation  Relation
	Selection Selection
	Scalar    ScalarKind
	Control   Control
	// Target is the referenced entity of references and entity
	// collections.
	Target *Entity
	// Autocomplete and Dropdown mark references and many-to-many
	// collections served by selection list operations.
	Autocomplete   bool
	Dropdown       bool
	Blob           bool
	CommaSeparated bool
	ExcludeFromDTO bool
	// Implicit marks properties inherited from the base type.
	Implicit   bool
	Attributes load.Attributes
	Terms      Terms
}

// IsCollection reports whether p holds many values.
func (p *Property) IsCollection() bool {
	switch p.Relation {
	case RelationOrderedCollection, RelationUnorderedCollection, RelationManyToMany:
		return true
	default:
		return false
	}
}

// Mapping projects an entity path onto a DTO field.
type Mapping struct {
	Dest string
	// Source is the property path, e.g. ["Role", "Name"].
	Source []string
}

// ShapeKind tells how a shape came to exist.
type ShapeKind int

// Shape kinds.
const (
	ShapeApplication ShapeKind = iota
	ShapeCompanion
	ShapeMainUIForm
	ShapeSaveBody
)

func (k ShapeKind) String() string {
	return enumName([]string{"application", "companion", "main-ui-form", "save-body"}, int(k))
}

// MarshalYAML implements yaml.Marshaler.
func (k ShapeKind) MarshalYAML() (any, error) { return k.String(), nil }

// Shape is a data-transfer structure mirrored by the client.
type Shape struct {
	Name string
	Kind ShapeKind
	// Entity owns companion shapes.
	Entity *Entity
	// Class is the declaration, nil for synthesized shapes.
	Class *load.ClassDescriptor
	// Generated marks shapes taken from a generated declaration.
	Generated bool
	Fields    []*Field
}

// Field returns the field name, or nil.
func (s *Shape) Field(name string) *Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field is one shape field.
type Field struct {
	Name string
	JSON string
	Type *TypeRef
	// Computed marks projections such as RoleDisplayName.
	Computed bool
}

// Op is a companion operation of an entity.
type Op struct {
	Kind   OpKind
	Name   string
	Entity *Entity
	// Property is set on per-property operations.
	Property *Property
}

// Route returns the endpoint path, "/<Controller>/<Name>".
func (o Op) Route() string {
	return "/" + o.Entity.Controller + "/" + o.Name
}

// Method returns the HTTP method.
func (o Op) Method() string {
	return o.Kind.Method()
}

// Transport returns the client transport mode.
func (o Op) Transport() Transport {
	return o.Kind.Transport()
}

// Controller is a hand-authored controller declaration.
type Controller struct {
	Name string
	// Route is the route prefix: "Catalog" for CatalogController.
	Route string
	Class *load.ClassDescriptor
	// Extends is the controller group whose generated base controller is
	// embedded, "" when none is.
	Extends   string
	Endpoints []*Endpoint
}

// Endpoint is a custom controller method exposed to the client.
type Endpoint struct {
	Name string
	// Method is the HTTP method, "" when the method has no verb directive.
	Method    string
	Transport Transport
	FromForm  bool
	Params    []Param
	// Returns is the result type, nil when the method returns only an error.
	Returns    *TypeRef
	Controller *Controller
}

// Route returns the endpoint path.
func (e *Endpoint) Route() string {
	return "/" + e.Controller.Route + "/" + e.Name
}

// Param is an endpoint parameter.
type Param struct {
	Name string
	Type *TypeRef
}

// Entity returns the entity name, or nil.
func (g *Graph) Entity(name string) *Entity {
	return g.entities[name]
}

// Shape returns the shape name, or nil.
func (g *Graph) Shape(name string) *Shape {
	return g.shapes[name]
}

// LocalEntities returns the entities of the local unit that have a base
// type, the ones handlers and filter builders are generated for.
func (g *Graph) LocalEntities() []*Entity {
	var out []*Entity
	for _, e := range g.Entities {
		if e.Local && !e.ManyToMany() {
			out = append(out, e)
		}
	}
	return out
}

// ClientEntities returns the entities whose companion operations the client
// exposes: their controller group is extended by a hand-authored
// controller.
func (g *Graph) ClientEntities() []*Entity {
	extended := make(map[string]bool)
	for _, c := range g.Controllers {
		if c.Extends != "" {
			extended[c.Extends] = true
		}
	}
	var out []*Entity
	for _, e := range g.Entities {
		if !e.ManyToMany() && !e.DoNotGenerate && extended[e.Controller] {
			out = append(out, e)
		}
	}
	return out
}

// Groups returns the given entities grouped by controller, in sorted group
// order.
func Groups(entities []*Entity) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, e := range entities {
		i, ok := index[e.Controller]
		if !ok {
			i = len(groups)
			index[e.Controller] = i
			groups = append(groups, Group{Name: e.Controller})
		}
		groups[i].Entities = append(groups[i].Entities, e)
	}
	sortBy(groups, func(g Group) string { return g.Name })
	return groups
}

// Group is a controller group.
type Group struct {
	Name     string
	Entities []*Entity
}

// ClientType maps a declaration type onto the client module: entity types
// become their companion DTO shapes and DTO package types become shapes.
func (g *Graph) ClientType(t *TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	c := *t
	switch t.Kind {
	case KindPointer, KindSlice:
		c.Elem = g.ClientType(t.Elem)
		return &c
	case KindMap:
		c.Key = g.ClientType(t.Key)
		c.Elem = g.ClientType(t.Elem)
		return &c
	case KindNamed:
		switch {
		case t.Pkg != "" && load.RoleOf(t.Pkg) == load.RoleEntity && g.entities[t.Name] != nil:
			return Named(ShapePkg, t.Name+"DTO")
		case t.Pkg != "" && load.RoleOf(t.Pkg) == load.RoleDTO && g.shapes[t.Name] != nil:
			return Named(ShapePkg, t.Name)
		}
		c.Args = make([]*TypeRef, len(t.Args))
		for i, a := range t.Args {
			c.Args[i] = g.ClientType(a)
		}
		if len(t.Args) == 0 {
			c.Args = nil
		}
		return &c
	}
	return &c
}

// entityOf returns the entity a named type refers to, or nil.
func (g *Graph) entityOf(t *TypeRef) *Entity {
	t = t.Deref()
	if t == nil || t.Kind != KindNamed || t.Pkg == "" || load.RoleOf(t.Pkg) != load.RoleEntity {
		return nil
	}
	return g.entities[t.Name]
}

func trimSuffixOK(s, suffix string) (string, bool) {
	if !strings.HasSuffix(s, suffix) || len(s) == len(suffix) {
		return s, false
	}
	return strings.TrimSuffix(s, suffix), true
}
