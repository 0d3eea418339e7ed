// Package load extracts class descriptors from annotated Go declarations.
//
// Each compilation unit (a directory tree, a set of package patterns or a
// snapshot of an already extracted unit) is turned into a Unit: the
// exported struct declarations of its role packages, with their fields,
// methods and +spiderly directives.
package load

import (
	"path"
	"slices"
	"strings"
)

// Role is the part a declaration plays, decided by its package.
type Role int

// Declaration roles.
const (
	RoleNone Role = iota
	RoleEntity
	RoleDTO
	RoleController
	RoleService
	RoleMapper
)

var roleNames = [...]string{
	RoleNone:       "none",
	RoleEntity:     "entity",
	RoleDTO:        "dto",
	RoleController: "controller",
	RoleService:    "service",
	RoleMapper:     "mapper",
}

// String returns the role name.
func (r Role) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "none"
}

// MarshalYAML implements yaml.Marshaler.
func (r Role) MarshalYAML() (any, error) {
	return r.String(), nil
}

// RoleOf returns the role of the declarations of the package importPath.
// The role is decided by the last path element.
func RoleOf(importPath string) Role {
	switch path.Base(importPath) {
	case "entities":
		return RoleEntity
	case "dto":
		return RoleDTO
	case "controllers":
		return RoleController
	case "services":
		return RoleService
	case "datamappers", "mappers":
		return RoleMapper
	default:
		return RoleNone
	}
}

// BaseNamespace strips the role element from a role package path:
// "example.com/app/entities" becomes "example.com/app".
func BaseNamespace(importPath string) string {
	if RoleOf(importPath) == RoleNone {
		return importPath
	}
	return path.Dir(importPath)
}

// AttributeTag is one +spiderly directive.
type AttributeTag struct {
	Name  string `msgpack:"n" yaml:"name"`
	Value string `msgpack:"v,omitempty" yaml:"value,omitempty"`
}

// Attributes is the ordered directive list of a declaration.
type Attributes []AttributeTag

// Has reports whether the directive name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Get returns the value of the first directive name.
func (a Attributes) Get(name string) (string, bool) {
	for _, t := range a {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// All returns the values of every directive name.
func (a Attributes) All(name string) []string {
	var vs []string
	for _, t := range a {
		if t.Name == name {
			vs = append(vs, t.Value)
		}
	}
	return vs
}

// WithPrefix returns the directives whose name starts with prefix.
func (a Attributes) WithPrefix(prefix string) Attributes {
	var out Attributes
	for _, t := range a {
		if strings.HasPrefix(t.Name, prefix) {
			out = append(out, t)
		}
	}
	return out
}

// PropertyDescriptor is a named exported struct field.
type PropertyDescriptor struct {
	Name       string     `msgpack:"name" yaml:"name"`
	Type       string     `msgpack:"type" yaml:"type"`
	Attributes Attributes `msgpack:"attrs,omitempty" yaml:"attributes,omitempty"`
}

// ParameterDescriptor is one method parameter.
type ParameterDescriptor struct {
	Name string `msgpack:"name" yaml:"name"`
	Type string `msgpack:"type" yaml:"type"`
}

// MethodDescriptor is an exported method of a hand-authored declaration.
type MethodDescriptor struct {
	Name string `msgpack:"name" yaml:"name"`
	// Params excludes context.Context parameters.
	Params []ParameterDescriptor `msgpack:"params,omitempty" yaml:"params,omitempty"`
	// Returns is the first non-error result, empty if there is none.
	Returns    string     `msgpack:"returns,omitempty" yaml:"returns,omitempty"`
	Attributes Attributes `msgpack:"attrs,omitempty" yaml:"attributes,omitempty"`
}

// ClassDescriptor is an exported struct declaration of a role package.
type ClassDescriptor struct {
	Name      string `msgpack:"name" yaml:"name"`
	Namespace string `msgpack:"ns" yaml:"namespace"`
	Role      Role   `msgpack:"role" yaml:"role"`
	// BaseType is the first embedded type without its package qualifier,
	// e.g. "BusinessObject[int64]". It is nil for declarations that embed
	// nothing.
	BaseType    *string               `msgpack:"base,omitempty" yaml:"baseType,omitempty"`
	Properties  []*PropertyDescriptor `msgpack:"props,omitempty" yaml:"properties,omitempty"`
	Attributes  Attributes            `msgpack:"attrs,omitempty" yaml:"attributes,omitempty"`
	Methods     []*MethodDescriptor   `msgpack:"methods,omitempty" yaml:"methods,omitempty"`
	IsGenerated bool                  `msgpack:"generated,omitempty" yaml:"generated,omitempty"`
	// Imports maps the package qualifiers of the declaring file to their
	// import paths.
	Imports map[string]string `msgpack:"imports,omitempty" yaml:"-"`
	Pos     string            `msgpack:"pos,omitempty" yaml:"-"`
}

// Base returns the base type text, or "" when there is none.
func (c *ClassDescriptor) Base() string {
	if c.BaseType == nil {
		return ""
	}
	return *c.BaseType
}

// Property returns the property name, or nil.
func (c *ClassDescriptor) Property(name string) *PropertyDescriptor {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Method returns the method name, or nil.
func (c *ClassDescriptor) Method(name string) *MethodDescriptor {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Richness counts the declared properties, directives and methods. The
// richer of two declarations of the same class wins a merge.
func (c *ClassDescriptor) Richness() int {
	n := len(c.Properties) + len(c.Attributes) + len(c.Methods)
	for _, p := range c.Properties {
		n += len(p.Attributes)
	}
	return n
}

// Unit is the extraction result of one compilation unit.
type Unit struct {
	Name     string             `msgpack:"name"`
	External bool               `msgpack:"external,omitempty"`
	Classes  []*ClassDescriptor `msgpack:"classes"`
}

// Qualifying returns the number of declarations with a role.
func (u *Unit) Qualifying() int {
	n := 0
	for _, c := range u.Classes {
		if c.Role != RoleNone {
			n++
		}
	}
	return n
}

// Sort orders classes by role, namespace and name.
func (u *Unit) Sort() {
	slices.SortStableFunc(u.Classes, func(a, b *ClassDescriptor) int {
		if a.Role != b.Role {
			return int(a.Role) - int(b.Role)
		}
		if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
