package load

import (
	"context"
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopDir = "../testdata/shop"

func TestRoleOf(t *testing.T) {
	tests := []struct {
		path string
		want Role
	}{
		{"example.com/shop/entities", RoleEntity},
		{"example.com/shop/dto", RoleDTO},
		{"example.com/shop/controllers", RoleController},
		{"example.com/shop/services", RoleService},
		{"example.com/shop/datamappers", RoleMapper},
		{"example.com/shop/mappers", RoleMapper},
		{"example.com/shop/internal/db", RoleNone},
		{"entities", RoleEntity},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleOf(tt.path))
		})
	}
	assert.Equal(t, "example.com/shop", BaseNamespace("example.com/shop/entities"))
	assert.Equal(t, "example.com/shop/internal", BaseNamespace("example.com/shop/internal"))
	assert.Equal(t, "mapper", RoleMapper.String())
	assert.Equal(t, "none", Role(42).String())
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line string
		want AttributeTag
		ok   bool
	}{
		{"// +spiderly:DisplayName", AttributeTag{Name: "DisplayName"}, true},
		{"//+spiderly:UIControlType=Dropdown", AttributeTag{Name: "UIControlType", Value: "Dropdown"}, true},
		{"// +spiderly:ProjectToDTO=RoleName=Role.Name", AttributeTag{Name: "ProjectToDTO", Value: "RoleName=Role.Name"}, true},
		{"// +spiderly:", AttributeTag{}, false},
		{"// plain comment", AttributeTag{}, false},
		{"// +build linux", AttributeTag{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseDirective(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttributes(t *testing.T) {
	attrs := Attributes{
		{Name: "TranslateEn", Value: "Product"},
		{Name: "TranslatePluralEn", Value: "Products"},
		{Name: "HttpGet"},
		{Name: "TranslateEn", Value: "Item"},
	}
	assert.True(t, attrs.Has("HttpGet"))
	assert.False(t, attrs.Has("HttpPost"))
	v, ok := attrs.Get("TranslateEn")
	assert.True(t, ok)
	assert.Equal(t, "Product", v)
	assert.Equal(t, []string{"Product", "Item"}, attrs.All("TranslateEn"))
	assert.Len(t, attrs.WithPrefix("Translate"), 3)
}

func TestScanner(t *testing.T) {
	const src = `package entities

import (
	sp "github.com/deepakshirkem/spiderly"
	"github.com/google/uuid"
	_ "embed"
)

// Order is placed by a customer.
// +spiderly:Controller=Sales
type Order struct {
	sp.BusinessObject[int64]
	Base2

	// +spiderly:DisplayName
	Code string
	Ref, Alt uuid.UUID // +spiderly:ExcludeFromDTO
	hidden int
}

type (
	// +spiderly:Generated
	Line struct{ Qty int }
	Alias = Order
	Kind int
)

type unexported struct{}

func (o *Order) Total(ctx context.Context, rate float64, _ bool) (float64, error) { return 0, nil }
func (o Order) Close(context.Context) error { return nil }
func (o *Order) internal() {}
func Free() {}
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "order.go", src, parser.ParseComments)
	require.NoError(t, err)
	s := NewScanner(fset)
	s.AddFile(f, "example.com/shop/entities")
	classes := s.Classes()
	require.Len(t, classes, 2)

	order := classes[0]
	assert.Equal(t, "Order", order.Name)
	assert.Equal(t, RoleEntity, order.Role)
	assert.Equal(t, "example.com/shop/entities", order.Namespace)
	assert.Equal(t, "BusinessObject[int64]", order.Base())
	assert.Equal(t, Attributes{{Name: "Controller", Value: "Sales"}}, order.Attributes)
	assert.False(t, order.IsGenerated)
	assert.Equal(t, map[string]string{
		"sp":   "github.com/deepakshirkem/spiderly",
		"uuid": "github.com/google/uuid",
	}, order.Imports)

	require.Len(t, order.Properties, 3)
	assert.Equal(t, "Code", order.Properties[0].Name)
	assert.True(t, order.Properties[0].Attributes.Has("DisplayName"))
	assert.Equal(t, "uuid.UUID", order.Property("Ref").Type)
	assert.True(t, order.Property("Alt").Attributes.Has("ExcludeFromDTO"))
	assert.Nil(t, order.Property("hidden"))

	require.Len(t, order.Methods, 2)
	total := order.Method("Total")
	require.NotNil(t, total)
	assert.Equal(t, "float64", total.Returns)
	assert.Equal(t, []ParameterDescriptor{{Name: "rate", Type: "float64"}, {Name: "_", Type: "bool"}}, total.Params)
	assert.Empty(t, order.Method("Close").Returns)

	line := classes[1]
	assert.Equal(t, "Line", line.Name)
	assert.True(t, line.IsGenerated)
	assert.Nil(t, line.BaseType)
}

func TestScannerSkipsOwnOutput(t *testing.T) {
	fset := token.NewFileSet()
	own, err := parser.ParseFile(fset, "a.go", "// Code generated by spiderly. DO NOT EDIT.\n\npackage dto\n\ntype ADTO struct{ Id int64 }\n", parser.ParseComments)
	require.NoError(t, err)
	other, err := parser.ParseFile(fset, "b.go", "// Code generated by protoc. DO NOT EDIT.\n\npackage dto\n\ntype BDTO struct{ Id int64 }\n", parser.ParseComments)
	require.NoError(t, err)

	s := NewScanner(fset)
	s.AddFile(own, "example.com/shop/dto")
	s.AddFile(other, "example.com/shop/dto")
	s.AddFile(other, "example.com/shop/models")
	classes := s.Classes()
	require.Len(t, classes, 1)
	assert.Equal(t, "BDTO", classes[0].Name)
	assert.True(t, classes[0].IsGenerated)
}

func TestUnqualified(t *testing.T) {
	for src, want := range map[string]string{
		"spiderly.BusinessObject[int64]":      "BusinessObject[int64]",
		"*controllers.SecurityBaseController": "SecurityBaseController",
		"User":                                "User",
		"spiderly.Pair[int64, uuid.UUID]":     "Pair[int64, uuid.UUID]",
	} {
		expr, err := parser.ParseExpr(src)
		require.NoError(t, err)
		assert.Equal(t, want, unqualified(expr), src)
	}
}

func TestImportName(t *testing.T) {
	assert.Equal(t, "uuid", importName("github.com/google/uuid"))
	assert.Equal(t, "chi", importName("github.com/go-chi/chi/v5"))
	assert.Equal(t, "yaml", importName("gopkg.in/yaml.v3"))
	assert.Equal(t, "inflect", importName("github.com/go-openapi/inflect"))
}

func TestScanDir(t *testing.T) {
	u, err := ScanDir(shopDir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", u.Name)

	byName := make(map[string]*ClassDescriptor)
	for _, c := range u.Classes {
		assert.NotEqual(t, RoleNone, c.Role, c.Name)
		byName[c.Name] = c
	}
	assert.NotContains(t, byName, "Store")
	assert.NotContains(t, byName, "pricing")
	assert.NotContains(t, byName, "CatalogBaseController")

	product := byName["Product"]
	require.NotNil(t, product)
	assert.Equal(t, "example.com/shop/entities", product.Namespace)
	assert.Equal(t, "BusinessObject[int64]", product.Base())
	assert.NotNil(t, product.Method("Discounted"))
	v, _ := product.Attributes.Get("ProjectToDTO")
	assert.Equal(t, "CategoryCode=Category.Code", v)

	assert.Nil(t, byName["ProductSupplier"].BaseType)
	assert.True(t, byName["CategoryDTO"].IsGenerated)
	assert.False(t, byName["ProductDTO"].IsGenerated)
	assert.Equal(t, RoleMapper, byName["Mapper"].Role)
	assert.Equal(t, "dto.ProductDTO", byName["Mapper"].Method("ProductToDTO").Returns)
	assert.Equal(t, "SecurityBaseController", byName["SecurityController"].Base())

	ctrl := byName["CatalogController"]
	require.NotNil(t, ctrl)
	assert.Equal(t, "CatalogBaseController", ctrl.Base())
	assert.Len(t, ctrl.Methods, 7)

	for i := 1; i < len(u.Classes); i++ {
		assert.LessOrEqual(t, u.Classes[i-1].Role, u.Classes[i].Role)
	}
	assert.Equal(t, len(u.Classes), u.Qualifying())
}

func TestScanDirNoModule(t *testing.T) {
	_, err := ScanDir(t.TempDir())
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	u, err := ScanDir(shopDir)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "shop.msgpack")
	require.NoError(t, WriteSnapshot(path, u))
	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	first, err := MarshalUnit(u)
	require.NoError(t, err)
	second, err := MarshalUnit(got)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = UnmarshalUnit([]byte{0xc1})
	assert.Error(t, err)
	_, err = ReadSnapshot(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "security.msgpack")
	sec, err := ScanDir("../testdata/security")
	require.NoError(t, err)
	require.NoError(t, WriteSnapshot(snap, sec))

	units, err := Extract(context.Background(), []Source{
		{Dir: shopDir},
		{Snapshot: snap, External: true, Name: "security"},
	}, 2)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "example.com/shop", units[0].Name)
	assert.False(t, units[0].External)
	assert.Equal(t, "security", units[1].Name)
	assert.True(t, units[1].External)
	assert.Len(t, units[1].Classes, 2)

	_, err = Extract(context.Background(), []Source{{Dir: shopDir}, {}}, 0)
	assert.ErrorContains(t, err, "source 1")
}
