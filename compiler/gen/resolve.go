package gen

import (
	"fmt"
	"slices"
	"strings"
)

// ResolveStep records which rule resolved a filter field.
type ResolveStep int

// Resolution steps, in the order they are tried.
const (
	StepProperty ResolveStep = iota
	StepDisplayName
	StepID
	StepMapping
	StepCommaSeparated
)

func (s ResolveStep) String() string {
	return enumName([]string{"property", "display-name", "id", "mapping", "comma-separated"}, int(s))
}

// MarshalYAML implements yaml.Marshaler.
func (s ResolveStep) MarshalYAML() (any, error) { return s.String(), nil }

// FilterField is a filterable field of an entity table.
type FilterField struct {
	// Key is the wire name filters address the field by.
	Key string `yaml:"key"`
	// Name is the DTO or entity field name.
	Name string `yaml:"name"`
	// Path is the dotted property path on the entity.
	Path string `yaml:"path"`
	// Type is the leaf value type, pointers stripped.
	Type *TypeRef    `yaml:"-"`
	Kind ScalarKind  `yaml:"kind"`
	Step ResolveStep `yaml:"step"`
}

// Membership reports whether the field filters a collection by element
// identifiers.
func (f FilterField) Membership() bool {
	return f.Step == StepCommaSeparated
}

// AuditEntry is a DTO field that filters cannot address.
type AuditEntry struct {
	Entity     string `yaml:"entity"`
	Field      string `yaml:"field"`
	Reason     string `yaml:"reason"`
	Suggestion string `yaml:"suggestion,omitempty"`
}

func (a AuditEntry) String() string {
	s := fmt.Sprintf("%s.%s: %s", a.Entity, a.Field, a.Reason)
	if a.Suggestion != "" {
		s += fmt.Sprintf(" (did you mean %s?)", a.Suggestion)
	}
	return s
}

// FilterFields resolves the filterable fields of e: its scalar properties
// that reach the DTO and the fields of its companion DTO. Fields that
// cannot be resolved are returned as audit entries. Both results are sorted
// by key.
func FilterFields(e *Entity) ([]FilterField, []AuditEntry) {
	var (
		fields []FilterField
		audit  []AuditEntry
		seen   = make(map[string]bool)
	)
	add := func(f FilterField) {
		if seen[f.Key] {
			return
		}
		seen[f.Key] = true
		fields = append(fields, f)
	}
	for _, p := range e.Properties {
		if p.Relation == RelationScalar && p.Scalar != ScalarOther && !p.ExcludeFromDTO {
			add(FilterField{Key: JSONName(p.Name), Name: p.Name, Path: p.Name, Type: p.Type.Deref(), Kind: p.Scalar, Step: StepProperty})
		}
	}
	if e.DTO != nil {
		for _, df := range e.DTO.Fields {
			if seen[JSONName(df.Name)] {
				continue
			}
			f, reason := resolveField(e, df.Name)
			if reason != "" {
				audit = append(audit, AuditEntry{
					Entity:     e.Name,
					Field:      df.Name,
					Reason:     reason,
					Suggestion: Suggest(df.Name, propertyNames(e)),
				})
				continue
			}
			add(f)
		}
	}
	sortBy(fields, func(f FilterField) string { return f.Key })
	sortBy(audit, func(a AuditEntry) string { return a.Field })
	return fields, audit
}

// resolveField applies the resolution steps to a DTO field that is not a
// scalar entity property.
func resolveField(e *Entity, name string) (FilterField, string) {
	f := FilterField{Key: JSONName(name), Name: name}
	if p := e.Property(name); p != nil && p.Relation == RelationScalar {
		return f, "unsupported type " + p.Type.String()
	}
	if ref, ok := trimSuffixOK(name, "DisplayName"); ok {
		if p := e.Property(ref); p != nil && p.Relation == RelationReferenceToOne {
			target := p.Target
			if target.Display == nil {
				f.Path, f.Type, f.Kind = ref+".Id", target.ID.Deref(), ScalarOf(target.ID)
			} else {
				f.Path, f.Type, f.Kind = ref+"."+target.Display.Name, target.Display.Type.Deref(), target.Display.Scalar
			}
			f.Step = StepDisplayName
			return f, supported(f)
		}
	}
	if ref, ok := trimSuffixOK(name, "Id"); ok {
		if p := e.Property(ref); p != nil && p.Relation == RelationReferenceToOne && p.Target.ID != nil {
			f.Path, f.Type, f.Kind, f.Step = ref+".Id", p.Target.ID.Deref(), ScalarOf(p.Target.ID), StepID
			return f, supported(f)
		}
	}
	if i := slices.IndexFunc(e.Mappings, func(m Mapping) bool { return m.Dest == name }); i >= 0 {
		leaf, err := walk(e, e.Mappings[i].Source)
		if err != nil {
			return f, err.Error()
		}
		f.Path, f.Type, f.Kind, f.Step = strings.Join(e.Mappings[i].Source, "."), leaf.Type.Deref(), leaf.Scalar, StepMapping
		return f, supported(f)
	}
	if coll, ok := trimSuffixOK(name, "CommaSeparated"); ok {
		if p := e.Property(coll); p != nil && p.IsCollection() && p.Target != nil && p.Target.ID != nil {
			f.Path, f.Type, f.Kind, f.Step = coll, p.Target.ID.Deref(), ScalarOf(p.Target.ID), StepCommaSeparated
			return f, supported(f)
		}
	}
	return f, "no matching property, reference or mapping rule"
}

// walk follows a property path through references and returns the leaf
// property.
func walk(e *Entity, path []string) (*Property, error) {
	cur := e
	for i, seg := range path {
		p := cur.Property(seg)
		if p == nil {
			return nil, fmt.Errorf("mapping path %s: %s has no property %s", strings.Join(path, "."), cur.Name, seg)
		}
		if i == len(path)-1 {
			if p.Relation != RelationScalar {
				return nil, fmt.Errorf("mapping path %s ends on a %s", strings.Join(path, "."), p.Relation)
			}
			return p, nil
		}
		if p.Relation != RelationReferenceToOne {
			return nil, fmt.Errorf("mapping path %s: %s.%s is not a reference", strings.Join(path, "."), cur.Name, seg)
		}
		cur = p.Target
	}
	return nil, fmt.Errorf("empty mapping path")
}

func supported(f FilterField) string {
	if f.Kind == ScalarOther || f.Type == nil {
		return "unsupported type " + f.Type.String()
	}
	return ""
}

func propertyNames(e *Entity) []string {
	names := make([]string, len(e.Properties))
	for i, p := range e.Properties {
		names[i] = p.Name
	}
	return names
}

// Audit lists the unresolved DTO fields of every local entity.
func Audit(g *Graph) []AuditEntry {
	var out []AuditEntry
	for _, e := range g.LocalEntities() {
		_, audit := FilterFields(e)
		out = append(out, audit...)
	}
	return out
}
