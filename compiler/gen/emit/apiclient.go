package emit

import (
	"errors"
	"net/http"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/gen"
)

var errMissingVerb = errors.New("method has no HttpGet, HttpPost, HttpPut or HttpDelete directive")

// APIClient renders the typed client of the API: the shapes it exchanges,
// one method per custom endpoint and per companion operation, and the
// translation labels of the exposed entities.
type APIClient struct{}

// Name implements gen.Emitter.
func (APIClient) Name() string { return "apiclient" }

// Feature implements gen.Emitter.
func (APIClient) Feature() gen.Feature { return gen.FeatureAPIClient }

// Path implements gen.Emitter.
func (APIClient) Path() string { return gen.APIClientFile }

// Emit implements gen.Emitter.
func (a APIClient) Emit(h gen.GeneratorHelper) (*jen.File, error) {
	g := h.Graph()
	log := h.Logger()
	if g.Declared() <= 1 {
		log.Info("skipping api client", zap.Int("declarations", g.Declared()))
		return nil, nil
	}
	entities := g.ClientEntities()
	owners := make([]*gen.Entity, 0, len(g.Shapes))
	for _, s := range g.Shapes {
		if s.Entity != nil {
			owners = append(owners, s.Entity)
		}
	}
	if err := entityErr(a.Name(), a.Path(), append(entities, owners...)); err != nil {
		return nil, err
	}

	f := h.NewFile("apiclient")
	types := NameSet{}
	for _, name := range []string{"Client", "New", "Label", "Terms"} {
		types.Add(name)
	}
	for _, s := range g.Shapes {
		if !types.Add(s.Name) {
			return nil, gen.NewGenerationError(a.Name(), a.Path(), "shape "+s.Name, errors.New("name collides with a declaration of the client package"))
		}
		genShape(f, g, s)
	}
	genClientType(f)

	// Custom endpoints come first: a companion operation is not emitted when
	// a hand-authored endpoint already took its name.
	methods := NameSet{}
	for _, c := range g.Controllers {
		for _, ep := range c.Endpoints {
			if ep.Method == "" {
				return nil, gen.NewGenerationError(a.Name(), a.Path(), "endpoint "+c.Name+"."+ep.Name, errMissingVerb)
			}
			if !methods.Add(ep.Name) {
				log.Warn("duplicate endpoint name, keeping the first",
					zap.String("controller", c.Name), zap.String("endpoint", ep.Name))
				continue
			}
			genCall(f, endpointCall(g, ep))
		}
	}
	for _, e := range entities {
		for _, op := range e.Ops {
			if !methods.Add(op.Name) {
				log.Debug("operation taken by a custom endpoint", zap.String("operation", op.Name))
				continue
			}
			genCall(f, opCall(op))
		}
	}
	genTerms(f, entities)
	log.Debug("rendered api client",
		zap.Int("shapes", len(g.Shapes)),
		zap.Int("methods", len(methods)),
	)
	return f, nil
}

func genShape(f *jen.File, g *gen.Graph, s *gen.Shape) {
	switch s.Kind {
	case gen.ShapeCompanion:
		f.Commentf("%s is the data transfer shape of %s.", s.Name, s.Entity.Name)
	case gen.ShapeMainUIForm:
		f.Commentf("%s is the main form payload of %s.", s.Name, s.Entity.Name)
	case gen.ShapeSaveBody:
		f.Commentf("%s is the save payload of %s.", s.Name, s.Entity.Name)
	default:
		f.Commentf("%s mirrors the application DTO %s.", s.Name, s.Name)
	}
	f.Type().Id(s.Name).StructFunc(func(grp *jen.Group) {
		for _, fd := range s.Fields {
			grp.Id(fd.Name).Add(typeCode(g.ClientType(fd.Type))).Tag(map[string]string{"json": fd.JSON})
		}
	})
}

func genClientType(f *jen.File) {
	f.Comment("Client calls the endpoints of the API.")
	f.Type().Id("Client").Struct(
		jen.Op("*").Qual(gen.ClientPkg, "Client"),
	)
	f.Comment("New returns a client of the API served at baseURL.")
	f.Func().Id("New").Params(
		jen.Id("baseURL").String(),
		jen.Id("opts").Op("...").Qual(gen.ClientPkg, "Option"),
	).Op("*").Id("Client").Block(
		jen.Return(jen.Op("&").Id("Client").Values(jen.Dict{
			jen.Id("Client"): jen.Qual(gen.ClientPkg, "New").Call(jen.Id("baseURL"), jen.Id("opts").Op("...")),
		})),
	)
}

// paramIn tells where a client method argument is sent.
type paramIn int

const (
	inQuery paramIn = iota
	// inQueryValues merges the fields of a struct into the query.
	inQueryValues
	inBody
	inForm
	inFile
)

type clientParam struct {
	name string
	// key is the query parameter of inQuery arguments.
	key string
	typ *gen.TypeRef
	in  paramIn
}

// clientCall is one generated client method.
type clientCall struct {
	name   string
	method string
	path   string
	mode   gen.Transport
	params []clientParam
	// result is nil for calls returning only an error.
	result *gen.TypeRef
}

func endpointCall(g *gen.Graph, ep *gen.Endpoint) clientCall {
	c := clientCall{name: ep.Name, method: ep.Method, path: ep.Route(), mode: ep.Transport}
	multipart := ep.FromForm
	for _, p := range ep.Params {
		if isFile(p.Type) {
			multipart = true
		}
	}
	bodyTaken := false
	for _, p := range ep.Params {
		cp := clientParam{name: p.Name, key: p.Name, typ: g.ClientType(p.Type)}
		switch {
		case isFile(p.Type):
			cp.in = inFile
		case gen.ScalarOf(p.Type) != gen.ScalarOther:
			cp.in = inQuery
		case multipart:
			cp.in = inForm
		case !bodyTaken && (ep.Method == http.MethodPost || ep.Method == http.MethodPut):
			cp.in = inBody
			bodyTaken = true
		default:
			cp.in = inQueryValues
		}
		c.params = append(c.params, cp)
	}
	switch ep.Transport {
	case gen.TransportText:
		c.result = gen.Builtin("string")
	case gen.TransportBlob:
		c.result = gen.SliceOf(gen.Builtin("byte"))
	default:
		c.result = g.ClientType(ep.Returns)
	}
	return c
}

func isFile(t *gen.TypeRef) bool {
	return t.Deref().Is(gen.RuntimePkg, "File")
}

// opCall describes the client method of a companion operation.
func opCall(op gen.Op) clientCall {
	e := op.Entity
	c := clientCall{name: op.Name, method: op.Method(), path: op.Route(), mode: op.Transport()}
	var (
		filter = clientParam{name: "filter", typ: gen.Named(gen.RuntimePkg, "Filter"), in: inBody}
		id     = clientParam{name: "id", key: "id", typ: e.ID, in: inQuery}
		owner  = clientParam{name: ownerParam(e), key: ownerParam(e), typ: gen.Ptr(e.ID), in: inQuery}
		bytes  = gen.SliceOf(gen.Builtin("byte"))
		dto    = func(e *gen.Entity) *gen.TypeRef { return gen.Named(gen.ShapePkg, e.Name+"DTO") }
		target *gen.Entity
	)
	if op.Property != nil {
		target = op.Property.Target
	}
	namebooks := func() *gen.TypeRef {
		return gen.SliceOf(gen.Named(gen.RuntimePkg, "Namebook", target.ID))
	}
	switch op.Kind {
	case gen.OpTableData:
		c.params = []clientParam{filter}
		c.result = gen.Named(gen.RuntimePkg, "TableResponse", dto(e))
	case gen.OpExportTableData, gen.OpLazyExport:
		c.params = []clientParam{filter}
		c.result = bytes
	case gen.OpList:
		c.result = gen.SliceOf(dto(e))
	case gen.OpMainUIForm:
		c.params = []clientParam{id}
		c.result = gen.Named(gen.ShapePkg, e.MainUIForm.Name)
	case gen.OpGet:
		c.params = []clientParam{id}
		c.result = dto(e)
	case gen.OpAutocomplete:
		c.params = []clientParam{
			{name: "limit", key: "limit", typ: gen.Builtin("int"), in: inQuery},
			{name: "filter", key: "filter", typ: gen.Builtin("string"), in: inQuery},
			owner,
		}
		c.result = namebooks()
	case gen.OpDropdown:
		c.params = []clientParam{owner}
		c.result = namebooks()
	case gen.OpOrdered:
		c.params = []clientParam{id}
		c.result = gen.SliceOf(dto(target))
	case gen.OpNamebook:
		c.params = []clientParam{id}
		c.result = namebooks()
	case gen.OpLazyTableData:
		c.params = []clientParam{filter}
		c.result = gen.Named(gen.RuntimePkg, "TableResponse", dto(target))
	case gen.OpLazySelectedIds:
		c.params = []clientParam{filter}
		c.result = gen.Named(gen.RuntimePkg, "LazyLoadSelectedIdsResult", target.ID)
	case gen.OpSave:
		body := gen.Named(gen.ShapePkg, e.SaveBody.Name)
		c.params = []clientParam{{name: "body", typ: body, in: inBody}}
		c.result = body
	case gen.OpUpload:
		c.params = []clientParam{{name: "file", typ: gen.Named(gen.RuntimePkg, "File"), in: inFile}}
		c.result = gen.Builtin("string")
	case gen.OpDelete:
		c.params = []clientParam{id}
	}
	return c
}

var modeNames = map[gen.Transport]string{
	gen.TransportDefault:     "ModeDefault",
	gen.TransportSkipSpinner: "ModeSkipSpinner",
	gen.TransportBlob:        "ModeBlob",
	gen.TransportText:        "ModeText",
}

// reservedLocals are the identifiers generated method bodies declare.
var reservedLocals = map[string]bool{
	"c": true, "ctx": true, "out": true, "err": true, "query": true, "form": true,
}

func localName(name string) string {
	if reservedLocals[name] {
		return name + "Param"
	}
	return name
}

// genCall renders one client method:
//
//	func (c *Client) GetUser(ctx context.Context, id int64) (UserDTO, error) {
//		var out UserDTO
//		query := url.Values{"id": client.Param(id)}
//		if err := c.Do(ctx, client.Request{...}, &out); err != nil {
//			return out, err
//		}
//		return out, nil
//	}
func genCall(f *jen.File, c clientCall) {
	var (
		params      = []jen.Code{jen.Id("ctx").Qual("context", "Context")}
		query       = jen.Dict{}
		queryValues []string
		form        []string
		body, file  jen.Code
	)
	for _, p := range c.params {
		local := localName(p.name)
		params = append(params, jen.Id(local).Add(typeCode(p.typ)))
		switch p.in {
		case inQuery:
			query[jen.Lit(p.key)] = jen.Qual(gen.ClientPkg, "Param").Call(jen.Id(local))
		case inQueryValues:
			queryValues = append(queryValues, local)
		case inForm:
			form = append(form, local)
		case inBody:
			body = jen.Id(local)
		case inFile:
			if p.typ.Kind == gen.KindPointer {
				file = jen.Id(local)
			} else {
				file = jen.Op("&").Id(local)
			}
		}
	}
	fail := func() jen.Code {
		if c.result == nil {
			return jen.Return(jen.Err())
		}
		return jen.Return(jen.Id("out"), jen.Err())
	}
	addValues := func(grp *jen.Group, dst string, srcs []string) {
		for _, src := range srcs {
			grp.If(
				jen.Err().Op(":=").Qual(gen.ClientPkg, "AddValues").Call(jen.Id(dst), jen.Id(src)),
				jen.Err().Op("!=").Nil(),
			).Block(fail())
		}
	}

	req := jen.Dict{
		jen.Id("Method"): jen.Lit(c.method),
		jen.Id("Path"):   jen.Lit(c.path),
		jen.Id("Mode"):   jen.Qual(gen.ClientPkg, modeNames[c.mode]),
	}
	if len(query) > 0 || len(queryValues) > 0 {
		req[jen.Id("Query")] = jen.Id("query")
	}
	if len(form) > 0 {
		req[jen.Id("Form")] = jen.Id("form")
	}
	if body != nil {
		req[jen.Id("Body")] = body
	}
	if file != nil {
		req[jen.Id("File")] = file
	}

	results := jen.Error()
	if c.result != nil {
		results = jen.Parens(jen.List(typeCode(c.result), jen.Error()))
	}
	f.Commentf("%s calls %s %s.", c.name, c.method, c.path)
	f.Func().Params(jen.Id("c").Op("*").Id("Client")).Id(c.name).Params(params...).Add(results).BlockFunc(func(grp *jen.Group) {
		if c.result != nil {
			grp.Var().Id("out").Add(typeCode(c.result))
		}
		if len(query) > 0 || len(queryValues) > 0 {
			grp.Id("query").Op(":=").Qual("net/url", "Values").Values(query)
			addValues(grp, "query", queryValues)
		}
		if len(form) > 0 {
			grp.Id("form").Op(":=").Qual("net/url", "Values").Values()
			addValues(grp, "form", form)
		}
		request := jen.Qual(gen.ClientPkg, "Request").Values(req)
		if c.result == nil {
			grp.Return(jen.Id("c").Dot("Do").Call(jen.Id("ctx"), request, jen.Nil()))
			return
		}
		grp.If(
			jen.Err().Op(":=").Id("c").Dot("Do").Call(jen.Id("ctx"), request, jen.Op("&").Id("out")),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Id("out"), jen.Err()))
		grp.Return(jen.Id("out"), jen.Nil())
	})
}

// genTerms renders the label table of the exposed entities, keyed by
// locale and then by "Entity" or "Entity.Property".
func genTerms(f *jen.File, entities []*gen.Entity) {
	if len(entities) == 0 {
		return
	}
	f.Comment("Label is the translated wording of an entity or property.")
	f.Type().Id("Label").Struct(
		jen.Id("Singular").String(),
		jen.Id("Plural").String(),
		jen.Id("Excel").String(),
	)

	byLocale := make(map[string]jen.Dict)
	add := func(key string, terms gen.Terms) {
		for _, locale := range terms.Locales() {
			if byLocale[locale] == nil {
				byLocale[locale] = jen.Dict{}
			}
			l := terms[locale]
			byLocale[locale][jen.Lit(key)] = jen.Values(jen.Dict{
				jen.Id("Singular"): jen.Lit(l.Singular),
				jen.Id("Plural"):   jen.Lit(l.Plural),
				jen.Id("Excel"):    jen.Lit(l.Excel),
			})
		}
	}
	for _, e := range entities {
		add(e.Name, e.Terms)
		for _, p := range e.Properties {
			add(e.Name+"."+p.Name, p.Terms)
		}
	}
	locales := jen.Dict{}
	for locale, labels := range byLocale {
		locales[jen.Lit(locale)] = jen.Values(labels)
	}
	f.Comment("Terms maps locale tags to the labels of every exposed entity and")
	f.Comment(`property, keyed "Entity" and "Entity.Property".`)
	f.Var().Id("Terms").Op("=").Map(jen.String()).Map(jen.String()).Id("Label").Values(locales)
}
