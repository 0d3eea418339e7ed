package gen

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/load"
)

// Key identifies a declaration in the merged graph.
type Key struct {
	Role load.Role
	Name string
}

// MergedGraph holds every declaration of the local and referenced units,
// keyed by role and name. It is read-only once Merge returns.
type MergedGraph struct {
	classes map[Key]*load.ClassDescriptor
	origin  map[Key]string
	local   string
	keys    []Key
	// declared counts the qualifying declarations of the local unit.
	declared int
}

// Merge folds the referenced units into the local unit:
//
//  1. a duplicate within one unit is ambiguous;
//  2. a duplicate between two referenced units is ambiguous;
//  3. a local declaration wins over a referenced one, unless the local one
//     is a generated placeholder and the referenced one is hand-authored.
//     With equal generated-ness the richer one wins, ties go to local.
//
// All ambiguities are reported together.
func Merge(c *Config, local *load.Unit, refs ...*load.Unit) (*MergedGraph, error) {
	log := c.logger().Named("merge")
	var errs []error

	// index returns the declarations of u in unit order, minus duplicates.
	index := func(u *load.Unit) []*load.ClassDescriptor {
		seen := make(map[Key]bool, len(u.Classes))
		out := make([]*load.ClassDescriptor, 0, len(u.Classes))
		for _, cd := range u.Classes {
			if cd.Role == load.RoleNone {
				continue
			}
			k := Key{Role: cd.Role, Name: cd.Name}
			if seen[k] {
				errs = append(errs, NewAmbiguityError(k.Role, k.Name, u.Name))
				continue
			}
			seen[k] = true
			out = append(out, cd)
		}
		return out
	}

	g := &MergedGraph{
		classes: make(map[Key]*load.ClassDescriptor),
		origin:  make(map[Key]string),
		local:   local.Name,
	}
	for _, ref := range refs {
		for _, cd := range index(ref) {
			k := Key{Role: cd.Role, Name: cd.Name}
			if prev, dup := g.origin[k]; dup {
				errs = append(errs, NewAmbiguityError(k.Role, k.Name, prev, ref.Name))
				continue
			}
			g.classes[k] = cd
			g.origin[k] = ref.Name
		}
	}
	locals := index(local)
	g.declared = len(locals)
	for _, cd := range locals {
		k := Key{Role: cd.Role, Name: cd.Name}
		ref, ok := g.classes[k]
		if !ok {
			g.classes[k] = cd
			g.origin[k] = local.Name
			continue
		}
		fields := []zap.Field{
			zap.Stringer("role", k.Role),
			zap.String("name", k.Name),
			zap.String("unit", g.origin[k]),
		}
		if preferLocal(cd, ref) {
			log.Debug("local declaration wins", fields...)
			g.classes[k] = cd
			g.origin[k] = local.Name
		} else {
			log.Debug("referenced declaration wins", fields...)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	for k := range g.classes {
		g.keys = append(g.keys, k)
	}
	slices.SortFunc(g.keys, func(a, b Key) int {
		return cmp.Or(cmp.Compare(a.Role, b.Role), strings.Compare(a.Name, b.Name))
	})
	log.Debug("merged", zap.Int("declarations", len(g.keys)), zap.Int("referenced", len(refs)))
	return g, nil
}

func preferLocal(local, ref *load.ClassDescriptor) bool {
	if local.IsGenerated != ref.IsGenerated {
		return !local.IsGenerated
	}
	return local.Richness() >= ref.Richness()
}

// Lookup returns the declaration with the given role and name, or nil.
func (g *MergedGraph) Lookup(role load.Role, name string) *load.ClassDescriptor {
	return g.classes[Key{Role: role, Name: name}]
}

// Entity returns the entity name, or nil.
func (g *MergedGraph) Entity(name string) *load.ClassDescriptor {
	return g.Lookup(load.RoleEntity, name)
}

// DTO returns the data-transfer shape name, or nil.
func (g *MergedGraph) DTO(name string) *load.ClassDescriptor {
	return g.Lookup(load.RoleDTO, name)
}

// Classes returns the declarations of a role sorted by name.
func (g *MergedGraph) Classes(role load.Role) []*load.ClassDescriptor {
	var out []*load.ClassDescriptor
	for _, k := range g.keys {
		if k.Role == role {
			out = append(out, g.classes[k])
		}
	}
	return out
}

// Services returns the services declared in the namespace.
func (g *MergedGraph) Services(namespace string) []*load.ClassDescriptor {
	var out []*load.ClassDescriptor
	for _, c := range g.Classes(load.RoleService) {
		if c.Namespace == namespace {
			out = append(out, c)
		}
	}
	return out
}

// Controllers returns the controller declarations sorted by name.
func (g *MergedGraph) Controllers() []*load.ClassDescriptor {
	return g.Classes(load.RoleController)
}

// IsLocal reports whether c was kept from the local unit.
func (g *MergedGraph) IsLocal(c *load.ClassDescriptor) bool {
	return g.origin[Key{Role: c.Role, Name: c.Name}] == g.local
}

// Origin returns the name of the unit c was kept from.
func (g *MergedGraph) Origin(c *load.ClassDescriptor) string {
	return g.origin[Key{Role: c.Role, Name: c.Name}]
}

// Declared returns the number of qualifying declarations of the local unit.
func (g *MergedGraph) Declared() int {
	return g.declared
}

// Len returns the number of declarations.
func (g *MergedGraph) Len() int {
	return len(g.keys)
}
