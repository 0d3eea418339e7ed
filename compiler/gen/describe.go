package gen

// Description is a serializable view of the classified graph, written by
// the describe command.
type Description struct {
	Unit         string                  `yaml:"unit"`
	Declarations int                     `yaml:"declarations"`
	Entities     []EntityDescription     `yaml:"entities"`
	Shapes       []ShapeDescription      `yaml:"shapes,omitempty"`
	Controllers  []ControllerDescription `yaml:"controllers,omitempty"`
	Audit        []AuditEntry            `yaml:"audit,omitempty"`
}

// EntityDescription describes one entity.
type EntityDescription struct {
	Name       string                `yaml:"name"`
	Origin     string                `yaml:"origin"`
	ID         string                `yaml:"id,omitempty"`
	ReadOnly   bool                  `yaml:"readonly,omitempty"`
	ManyToMany bool                  `yaml:"manyToMany,omitempty"`
	Controller string                `yaml:"controller,omitempty"`
	Authorize  bool                  `yaml:"authorize"`
	Display    string                `yaml:"display,omitempty"`
	Terms      Terms                 `yaml:"terms,omitempty"`
	Properties []PropertyDescription `yaml:"properties,omitempty"`
	Operations []string              `yaml:"operations,omitempty"`
	Filters    []FilterField         `yaml:"filters,omitempty"`
	Error      string                `yaml:"error,omitempty"`
}

// PropertyDescription describes one property.
type PropertyDescription struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"`
	Relation  Relation   `yaml:"relation"`
	Selection Selection  `yaml:"selection,omitempty"`
	Scalar    ScalarKind `yaml:"scalar"`
	Control   Control    `yaml:"control,omitempty"`
	Target    string     `yaml:"target,omitempty"`
	Implicit  bool       `yaml:"implicit,omitempty"`
}

// ShapeDescription describes one data-transfer shape.
type ShapeDescription struct {
	Name      string            `yaml:"name"`
	Kind      ShapeKind         `yaml:"kind"`
	Generated bool              `yaml:"generated,omitempty"`
	Fields    map[string]string `yaml:"fields,omitempty"`
}

// ControllerDescription describes one hand-authored controller.
type ControllerDescription struct {
	Name      string   `yaml:"name"`
	Extends   string   `yaml:"extends,omitempty"`
	Endpoints []string `yaml:"endpoints,omitempty"`
}

// Describe builds the description of g.
func Describe(g *Graph) *Description {
	d := &Description{Unit: g.local, Declarations: g.Declared()}
	for _, e := range g.Entities {
		ed := EntityDescription{
			Name:       e.Name,
			Origin:     g.Origin(e.Class),
			ID:         e.ID.String(),
			ReadOnly:   e.ReadOnly,
			ManyToMany: e.ManyToMany(),
			Authorize:  e.Authorize,
			Terms:      e.Terms,
		}
		if !e.ManyToMany() {
			ed.Controller = e.Controller
		}
		if e.Display != nil {
			ed.Display = e.Display.Name
		}
		if e.Err != nil {
			ed.Error = e.Err.Error()
		}
		for _, p := range e.Properties {
			pd := PropertyDescription{
				Name:      p.Name,
				Type:      p.Type.String(),
				Relation:  p.Relation,
				Selection: p.Selection,
				Scalar:    p.Scalar,
				Control:   p.Control,
				Implicit:  p.Implicit,
			}
			if p.Target != nil {
				pd.Target = p.Target.Name
			}
			ed.Properties = append(ed.Properties, pd)
		}
		for _, op := range e.Ops {
			ed.Operations = append(ed.Operations, op.Method()+" "+op.Route())
		}
		if e.Local && !e.ManyToMany() {
			ed.Filters, _ = FilterFields(e)
		}
		d.Entities = append(d.Entities, ed)
	}
	for _, s := range g.Shapes {
		sd := ShapeDescription{Name: s.Name, Kind: s.Kind, Generated: s.Generated}
		if len(s.Fields) > 0 {
			sd.Fields = make(map[string]string, len(s.Fields))
			for _, f := range s.Fields {
				sd.Fields[f.Name] = f.Type.String()
			}
		}
		d.Shapes = append(d.Shapes, sd)
	}
	for _, c := range g.Controllers {
		cd := ControllerDescription{Name: c.Name, Extends: c.Extends}
		for _, ep := range c.Endpoints {
			method := ep.Method
			if method == "" {
				method = "?"
			}
			cd.Endpoints = append(cd.Endpoints, method+" "+ep.Route())
		}
		d.Controllers = append(d.Controllers, cd)
	}
	d.Audit = Audit(g)
	return d
}
