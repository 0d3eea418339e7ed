package emit

import (
	"errors"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/gen"
)

// Filtering renders, per local entity, the translation of table filters
// into predicates and the paginated query builder using it.
type Filtering struct{}

// Name implements gen.Emitter.
func (Filtering) Name() string { return "filtering" }

// Feature implements gen.Emitter.
func (Filtering) Feature() gen.Feature { return gen.FeatureFiltering }

// Path implements gen.Emitter.
func (Filtering) Path() string { return gen.FilteringFile }

// Emit implements gen.Emitter.
func (fl Filtering) Emit(h gen.GeneratorHelper) (*jen.File, error) {
	g := h.Graph()
	log := h.Logger()
	local := g.LocalEntities()
	if len(local) == 0 {
		log.Info("skipping filtering: no local entities")
		return nil, nil
	}
	if err := entityErr(fl.Name(), fl.Path(), local); err != nil {
		return nil, err
	}

	fields := make(map[string][]gen.FilterField, len(local))
	var audit []gen.AuditEntry
	for _, e := range local {
		ff, ae := gen.FilterFields(e)
		fields[e.Name] = ff
		audit = append(audit, ae...)
	}
	if len(audit) > 0 {
		if h.FeatureEnabled(gen.FeatureStrictFilters.Name) {
			errs := make([]error, len(audit))
			for i, a := range audit {
				errs[i] = gen.NewValidationError(a.Entity, a.Field, nil, a.Reason, nil)
			}
			return nil, gen.NewGenerationError(fl.Name(), fl.Path(), "unresolved filter fields", errors.Join(errs...))
		}
		for _, a := range audit {
			log.Warn("filter field not resolved",
				zap.String("entity", a.Entity),
				zap.String("field", a.Field),
				zap.String("reason", a.Reason),
				zap.String("suggestion", a.Suggestion),
			)
		}
	}

	f := h.NewFile("filtering")
	for _, e := range local {
		genPredicate(f, e, fields[e.Name])
		genBuild(f, e)
	}
	f.Comment("Predicates maps entity names to their filter translations.")
	f.Var().Id("Predicates").Op("=").Map(jen.String()).Add(predicateFunc()).Values(jen.DictFunc(func(d jen.Dict) {
		for _, e := range local {
			d[jen.Lit(e.Name)] = jen.Id(e.Name + "Predicate")
		}
	}))
	return f, nil
}

func predicateFunc() *jen.Statement {
	return jen.Func().Params(jen.Qual(gen.RuntimePkg, "Filter")).Params(jen.Qual(gen.PredicatePkg, "P"), jen.Error())
}

func genPredicate(f *jen.File, e *gen.Entity, fields []gen.FilterField) {
	name := e.Name + "Predicate"
	f.Commentf("%s translates a table filter of %s into a predicate.", name, e.Name)
	f.Comment("Rules on unknown fields and rules without value are ignored.")
	f.Func().Id(name).Params(jen.Id("f").Qual(gen.RuntimePkg, "Filter")).Params(jen.Qual(gen.PredicatePkg, "P"), jen.Error()).BlockFunc(func(grp *jen.Group) {
		if len(fields) == 0 {
			grp.Return(jen.Nil(), jen.Nil())
			return
		}
		grp.Var().Id("ps").Index().Qual(gen.PredicatePkg, "P")
		grp.For(jen.List(jen.Id("_"), jen.Id("field")).Op(":=").Range().Id("f").Dot("Fields").Call()).Block(
			jen.For(jen.List(jen.Id("_"), jen.Id("rule")).Op(":=").Range().Id("f").Dot("Filters").Index(jen.Id("field"))).Block(
				jen.If(jen.Id("rule").Dot("Empty").Call()).Block(jen.Continue()),
				jen.Switch(jen.Id("field")).BlockFunc(func(sw *jen.Group) {
					for _, ff := range fields {
						sw.Case(jen.Lit(ff.Key)).Block(modeSwitch(e, ff))
					}
				}),
			),
		)
		grp.If(jen.Len(jen.Id("ps")).Op("==").Lit(0)).Block(jen.Return(jen.Nil(), jen.Nil()))
		grp.Return(jen.Qual(gen.PredicatePkg, "And").Call(jen.Id("ps").Op("...")), jen.Nil())
	})
}

// modeCase renders the predicate of one match mode. Multi modes decode the
// rule value as a list.
type modeCase struct {
	mode  string
	multi bool
	build func(v jen.Code) jen.Code
}

func modeSwitch(e *gen.Entity, ff gen.FilterField) jen.Code {
	cases, kind := modeCases(ff)
	return jen.Switch(jen.Id("rule").Dot("MatchMode")).BlockFunc(func(sw *jen.Group) {
		for _, mc := range cases {
			decode, v := "RuleValue", jen.Id("v")
			if mc.multi {
				decode, v = "RuleValues", jen.Id("v").Op("...")
			}
			sw.Case(jen.Qual(gen.RuntimePkg, "MatchMode"+mc.mode)).Block(
				jen.List(jen.Id("v"), jen.Err()).Op(":=").Qual(gen.RuntimePkg, decode).Types(typeCode(ff.Type)).Call(jen.Id("rule")),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
				jen.Id("ps").Op("=").Append(jen.Id("ps"), mc.build(v)),
			)
		}
		sw.Default().Block(
			jen.Return(jen.Nil(), jen.Qual(gen.RuntimePkg, "NewMatchModeError").Call(
				jen.Lit(e.Name), jen.Lit(ff.Key), jen.Lit(kind), jen.Id("rule").Dot("MatchMode"),
			)),
		)
	})
}

// modeCases returns the supported match modes of ff and the kind name
// reported for the others.
func modeCases(ff gen.FilterField) ([]modeCase, string) {
	pred := func(name string) *jen.Statement { return jen.Qual(gen.PredicatePkg, name) }
	path := jen.Lit(ff.Path)
	field := func(typ string, args ...jen.Code) func(method string) func(jen.Code) jen.Code {
		return func(method string) func(jen.Code) jen.Code {
			return func(v jen.Code) jen.Code {
				s := pred(typ)
				if len(args) > 0 {
					s = s.Types(args...)
				}
				return s.Call(path).Dot(method).Call(v)
			}
		}
	}
	binary := func(op string) func(jen.Code) jen.Code {
		return func(v jen.Code) jen.Code {
			return pred(op).Call(pred("F").Call(path), pred("V").Call(v))
		}
	}

	if ff.Membership() {
		hasAny := func(v jen.Code) jen.Code { return pred("HasAnyID").Call(path, v) }
		return []modeCase{
			{mode: "In", multi: true, build: hasAny},
			{mode: "Equals", build: hasAny},
		}, "membership"
	}
	kind := ff.Kind.String()
	switch ff.Kind {
	case gen.ScalarText:
		m := field("StringField")
		return []modeCase{
			{mode: "StartsWith", build: m("StartsWith")},
			{mode: "Contains", build: m("Contains")},
			{mode: "Equals", build: m("EQ")},
		}, kind
	case gen.ScalarBoolean:
		return []modeCase{{mode: "Equals", build: field("BoolField")("EQ")}}, kind
	case gen.ScalarDate:
		m := field("TimeField")
		return []modeCase{
			{mode: "Equals", build: m("EQ")},
			{mode: "LessThan", build: m("LT")},
			{mode: "GreaterThan", build: m("GT")},
		}, kind
	case gen.ScalarInteger, gen.ScalarDecimal:
		if ff.Type.IsPredeclared() {
			m := field("NumberField", typeCode(ff.Type))
			return []modeCase{
				{mode: "Equals", build: m("EQ")},
				{mode: "LessThan", build: m("LT")},
				{mode: "GreaterThan", build: m("GT")},
				{mode: "In", multi: true, build: m("In")},
			}, kind
		}
		return []modeCase{
			{mode: "Equals", build: binary("EQ")},
			{mode: "LessThan", build: binary("LT")},
			{mode: "GreaterThan", build: binary("GT")},
			{mode: "In", multi: true, build: func(v jen.Code) jen.Code { return pred("FieldIn").Call(path, v) }},
		}, kind
	default:
		m := field("ValueField", typeCode(ff.Type))
		return []modeCase{
			{mode: "Equals", build: m("EQ")},
			{mode: "In", multi: true, build: m("In")},
		}, kind
	}
}

func genBuild(f *jen.File, e *gen.Entity) {
	name := "Build" + e.Name
	f.Commentf("%s narrows q by the table filter f and returns the requested page of %s.", name, e.Name)
	f.Func().Id(name).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("q").Add(queryType(e)),
		jen.Id("f").Qual(gen.RuntimePkg, "Filter"),
	).Params(jen.Qual(gen.RuntimePkg, "PaginatedResult").Types(entityType(e)), jen.Error()).Block(
		jen.Return(jen.Qual(gen.RuntimePkg, "Build").Call(jen.Id("ctx"), jen.Id("q"), jen.Id("f"), jen.Id(e.Name+"Predicate"))),
	)
}
