package emit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/gen"
	"github.com/deepakshirkem/spiderly/compiler/load"
)

// Service base types that mark a business service. Authorization services
// embed a generated base as well and are never served.
const (
	businessServiceBase      = "BusinessServiceGenerated"
	authorizationServiceBase = "AuthorizationBusinessServiceGenerated"
)

// Handlers renders the chi base controllers serving the companion
// operations of the local entities, grouped by controller.
type Handlers struct{}

// Name implements gen.Emitter.
func (Handlers) Name() string { return "handlers" }

// Feature implements gen.Emitter.
func (Handlers) Feature() gen.Feature { return gen.FeatureHandlers }

// Path implements gen.Emitter.
func (Handlers) Path() string { return gen.HandlersFile }

// servedGroup is a controller group with the service it delegates to.
type servedGroup struct {
	gen.Group
	Service *load.ClassDescriptor
}

// Emit implements gen.Emitter.
func (hd Handlers) Emit(h gen.GeneratorHelper) (*jen.File, error) {
	g := h.Graph()
	log := h.Logger()
	local := g.LocalEntities()
	if len(local) == 0 {
		log.Info("skipping handlers: no local entities")
		return nil, nil
	}
	if err := entityErr(hd.Name(), hd.Path(), local); err != nil {
		return nil, err
	}
	var served []servedGroup
	for _, grp := range gen.Groups(local) {
		svc, err := groupService(g, grp)
		if err != nil {
			return nil, gen.NewGenerationError(hd.Name(), hd.Path(), "controller group "+grp.Name, err)
		}
		if svc == nil {
			log.Info("skipping controller group without business service",
				zap.String("group", grp.Name),
				zap.String("services", servicesPkg(grp)),
			)
			continue
		}
		served = append(served, servedGroup{Group: grp, Service: svc})
	}

	f := h.NewFile("controllers")
	f.ImportName(gen.ChiPkg, "chi")
	genPermissionCodes(f, local)
	genStore(f, served)
	for _, sg := range served {
		genBaseController(f, sg, log)
	}
	return f, nil
}

func servicesPkg(grp gen.Group) string {
	return grp.Entities[0].BasePkg() + "/services"
}

// groupService finds the business service of grp: the one service of the
// services package embedding the generated business service base. It
// returns nil when there is none.
func groupService(g *gen.Graph, grp gen.Group) (*load.ClassDescriptor, error) {
	var found []*load.ClassDescriptor
	for _, cd := range g.Services(servicesPkg(grp)) {
		base := cd.Base()
		if strings.Contains(base, businessServiceBase) && !strings.Contains(base, authorizationServiceBase) {
			found = append(found, cd)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	names := make([]string, len(found))
	for i, cd := range found {
		names[i] = cd.Name
	}
	return nil, gen.NewStructuralError(grp.Name+baseControllerSuffix, "",
		fmt.Sprintf("%d business services in %s: %s", len(found), servicesPkg(grp), strings.Join(names, ", ")), nil)
}

const baseControllerSuffix = "BaseController"

func genPermissionCodes(f *jen.File, entities []*gen.Entity) {
	var defs []jen.Code
	for _, e := range entities {
		if !e.Authorize {
			continue
		}
		actions := []string{"Read"}
		if !e.ReadOnly {
			actions = append(actions, "Edit", "Insert", "Delete")
		}
		for _, a := range actions {
			code := e.PermissionCode(a)
			defs = append(defs, jen.Id(code).Op("=").Lit(code))
		}
	}
	if len(defs) == 0 {
		return
	}
	f.Comment("Permission codes checked by the business services.")
	f.Const().Defs(defs...)
}

// storeEntities lists the entities whose queries the served groups read:
// their own entities and the targets of selection and lazy table
// operations.
func storeEntities(served []servedGroup) []*gen.Entity {
	seen := NameSet{}
	var out []*gen.Entity
	add := func(e *gen.Entity) {
		if e != nil && seen.Add(e.Name) {
			out = append(out, e)
		}
	}
	for _, sg := range served {
		for _, e := range sg.Entities {
			add(e)
			for _, op := range e.Ops {
				switch op.Kind {
				case gen.OpAutocomplete, gen.OpDropdown, gen.OpLazyTableData, gen.OpLazyExport, gen.OpLazySelectedIds:
					add(op.Property.Target)
				}
			}
		}
	}
	sortEntities(out)
	return out
}

func sortEntities(es []*gen.Entity) {
	for i := 1; i < len(es); i++ {
		for j := i; j > 0 && es[j].Name < es[j-1].Name; j-- {
			es[j], es[j-1] = es[j-1], es[j]
		}
	}
}

func genStore(f *jen.File, served []servedGroup) {
	f.Comment("BaseControllerStore exposes the queryable sets the base controllers")
	f.Comment("read and the transactional scope services write in.")
	f.Type().Id("BaseControllerStore").InterfaceFunc(func(grp *jen.Group) {
		grp.Qual(gen.RuntimePkg, "Transactor")
		for _, e := range storeEntities(served) {
			grp.Id(queryMethod(e)).Params().Add(queryType(e))
		}
	})
}

var routeMethods = map[string]string{
	http.MethodGet:    "Get",
	http.MethodPost:   "Post",
	http.MethodPut:    "Put",
	http.MethodDelete: "Delete",
}

func genBaseController(f *jen.File, sg servedGroup, log *zap.Logger) {
	name := sg.Name + baseControllerSuffix
	service := jen.Op("*").Qual(sg.Service.Namespace, sg.Service.Name)
	recv := jen.Id("c").Op("*").Id(name)

	f.Commentf("%s serves the generated endpoints of the %s controller group.", name, sg.Name)
	f.Type().Id(name).Struct(
		jen.Id("Service").Add(service),
		jen.Id("Store").Id("BaseControllerStore"),
		jen.Id("Blobs").Qual(gen.RuntimePkg, "BlobStore"),
	)

	f.Commentf("New%s returns a %s delegating to service.", name, name)
	f.Func().Id("New"+name).Params(
		jen.Id("service").Add(service),
		jen.Id("store").Id("BaseControllerStore"),
		jen.Id("blobs").Qual(gen.RuntimePkg, "BlobStore"),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{
			jen.Id("Service"): jen.Id("service"),
			jen.Id("Store"):   jen.Id("store"),
			jen.Id("Blobs"):   jen.Id("blobs"),
		})),
	)

	methods := NameSet{}
	var ops []gen.Op
	for _, e := range sg.Entities {
		for _, op := range e.Ops {
			if !methods.Add(op.Name) {
				log.Warn("duplicate operation in controller group", zap.String("group", sg.Name), zap.String("operation", op.Name))
				continue
			}
			ops = append(ops, op)
		}
	}

	f.Comment("Routes registers the endpoints of the group on r.")
	f.Func().Params(recv.Clone()).Id("Routes").Params(jen.Id("r").Qual(gen.ChiPkg, "Router")).BlockFunc(func(grp *jen.Group) {
		for _, op := range ops {
			grp.Id("r").Dot(routeMethods[op.Method()]).Call(jen.Lit("/"+op.Name), jen.Id("c").Dot(op.Name))
		}
	})

	for _, op := range ops {
		f.Commentf("%s serves %s %s.", op.Name, op.Method(), op.Route())
		f.Func().Params(recv.Clone()).Id(op.Name).Params(
			jen.Id("w").Qual("net/http", "ResponseWriter"),
			jen.Id("r").Op("*").Qual("net/http", "Request"),
		).Block(handlerCall(op))
	}
}

// handlerCall renders the server adapter call serving op.
func handlerCall(op gen.Op) jen.Code {
	e := op.Entity
	var (
		fn        = jen.Id("c").Dot("Service").Dot(op.Name)
		authorize = jen.Lit(e.Authorize)
		wr        = []jen.Code{jen.Id("w"), jen.Id("r")}
		query     = func(e *gen.Entity) jen.Code { return jen.Id("c").Dot("Store").Dot(queryMethod(e)).Call() }
		adapter   = func(name string) *jen.Statement { return jen.Qual(gen.ServerPkg, name) }
		args      = func(rest ...jen.Code) []jen.Code { return append(append(wr, fn), rest...) }
	)
	var target *gen.Entity
	if op.Property != nil {
		target = op.Property.Target
	}
	switch op.Kind {
	case gen.OpTableData:
		return adapter("Table").Call(args(query(e), authorize)...)
	case gen.OpExportTableData:
		return adapter("Export").Call(args(query(e), jen.Lit(exportName(e)), authorize)...)
	case gen.OpList:
		return adapter("List").Call(args(query(e), authorize)...)
	case gen.OpMainUIForm, gen.OpGet, gen.OpOrdered, gen.OpNamebook:
		return adapter("ByID").Call(args(authorize)...)
	case gen.OpAutocomplete:
		return adapter("Autocomplete").Types(typeCode(e.ID)).Call(args(query(target), jen.Lit(ownerParam(e)), authorize)...)
	case gen.OpDropdown:
		return adapter("Dropdown").Types(typeCode(e.ID)).Call(args(query(target), jen.Lit(ownerParam(e)), authorize)...)
	case gen.OpLazyTableData, gen.OpLazySelectedIds:
		return adapter("Table").Call(args(query(target), authorize)...)
	case gen.OpLazyExport:
		return adapter("Export").Call(args(query(target), jen.Lit(exportName(target)), authorize)...)
	case gen.OpSave:
		return adapter("Body").Call(args(authorize)...)
	case gen.OpUpload:
		return adapter("Upload").Call(args(jen.Id("c").Dot("Blobs"), authorize)...)
	case gen.OpDelete:
		return adapter("Delete").Call(args(authorize)...)
	default:
		panic(fmt.Sprintf("emit: unhandled operation %s", op.Kind))
	}
}

// exportName is the file name of spreadsheet exports of e.
func exportName(e *gen.Entity) string {
	label := e.Terms["en"].Excel
	if label == "" {
		label = e.Name
	}
	return label + ".xlsx"
}
