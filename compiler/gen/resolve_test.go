package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterByKey(fields []FilterField) map[string]FilterField {
	m := make(map[string]FilterField, len(fields))
	for _, f := range fields {
		m[f.Key] = f
	}
	return m
}

func TestFilterFields(t *testing.T) {
	g := shopGraph(t)

	t.Run("product", func(t *testing.T) {
		fields, audit := FilterFields(g.Entity("Product"))
		byKey := filterByKey(fields)

		tests := []struct {
			key  string
			path string
			kind ScalarKind
			step ResolveStep
		}{
			{"id", "Id", ScalarInteger, StepProperty},
			{"name", "Name", ScalarText, StepProperty},
			{"releasedAt", "ReleasedAt", ScalarDate, StepProperty},
			{"categoryDisplayName", "Category.Name", ScalarText, StepDisplayName},
			{"categoryId", "Category.Id", ScalarInteger, StepID},
			{"categoryCode", "Category.Code", ScalarText, StepMapping},
			{"categoryName", "Category.Name", ScalarText, StepMapping},
			{"tagsCommaSeparated", "Tags", ScalarInteger, StepCommaSeparated},
		}
		for _, tt := range tests {
			t.Run(tt.key, func(t *testing.T) {
				f, ok := byKey[tt.key]
				require.True(t, ok)
				assert.Equal(t, tt.path, f.Path)
				assert.Equal(t, tt.kind, f.Kind)
				assert.Equal(t, tt.step, f.Step)
			})
		}
		assert.NotContains(t, byKey, "notes", "properties excluded from the DTO are not filterable")
		assert.True(t, byKey["tagsCommaSeparated"].Membership())
		assert.Equal(t, "int64", byKey["tagsCommaSeparated"].Type.String())
		assert.Equal(t, "time.Time", byKey["releasedAt"].Type.String(), "pointers are stripped")

		require.Len(t, audit, 1)
		assert.Equal(t, "Discount", audit[0].Field)
		assert.Equal(t, "Product", audit[0].Entity)

		for i := 1; i < len(fields); i++ {
			assert.Less(t, fields[i-1].Key, fields[i].Key)
		}
	})

	t.Run("generated companion", func(t *testing.T) {
		fields, audit := FilterFields(g.Entity("Category"))
		byKey := filterByKey(fields)

		assert.Equal(t, "Parent.Id", byKey["parentId"].Path)
		assert.Equal(t, "int32", byKey["parentId"].Type.String())
		assert.Equal(t, "Parent.Name", byKey["parentDisplayName"].Path)
		require.Len(t, audit, 1)
		assert.Equal(t, "Legacy", audit[0].Field)
	})

	t.Run("reference without display property falls back to its identifier", func(t *testing.T) {
		fields, _ := FilterFields(g.Entity("Review"))
		byKey := filterByKey(fields)
		assert.Equal(t, "Product.Name", byKey["productDisplayName"].Path)

		g := classify(t,
			entity("Owner", "BusinessObject[int64]"),
			entity("Pet", "BusinessObject[int64]", prop("Owner", "*Owner")),
		)
		fields, audit := FilterFields(g.Entity("Pet"))
		byKey = filterByKey(fields)
		assert.Empty(t, audit)
		assert.Equal(t, "Owner.Id", byKey["ownerDisplayName"].Path)
		assert.Equal(t, ScalarInteger, byKey["ownerDisplayName"].Kind)
	})
}

func TestFilterFieldsMappingErrors(t *testing.T) {
	g := classify(t,
		entity("Role", "BusinessObject[int32]", prop("Name", "string")),
		entity("User", "BusinessObject[int64]",
			prop("Role", "*Role"),
			prop("Roles", "[]*Role"),
		),
	)
	user := g.Entity("User")
	user.Mappings = []Mapping{
		{Dest: "RoleTitle", Source: []string{"Role", "Title"}},
		{Dest: "RoleObject", Source: []string{"Role"}},
		{Dest: "RolesName", Source: []string{"Roles", "Name"}},
	}
	for _, name := range []string{"RoleTitle", "RoleObject", "RolesName"} {
		user.DTO.Fields = append(user.DTO.Fields, field(name, Builtin("string"), false))
	}

	_, audit := FilterFields(user)
	reasons := make(map[string]string)
	for _, a := range audit {
		reasons[a.Field] = a.Reason
	}
	assert.Contains(t, reasons["RoleTitle"], "Role has no property Title")
	assert.Contains(t, reasons["RoleObject"], "ends on a reference")
	assert.Contains(t, reasons["RolesName"], "is not a reference")
}

func TestAudit(t *testing.T) {
	g := shopGraph(t)
	audit := Audit(g)

	var fields []string
	for _, a := range audit {
		fields = append(fields, a.Entity+"."+a.Field)
	}
	assert.ElementsMatch(t, []string{"Category.Legacy", "Product.Discount"}, fields)
}

func TestAuditEntryString(t *testing.T) {
	a := AuditEntry{Entity: "User", Field: "Emial", Reason: "no matching property, reference or mapping rule", Suggestion: "Email"}
	assert.Equal(t, "User.Emial: no matching property, reference or mapping rule (did you mean Email?)", a.String())
}

func TestAuditSuggestion(t *testing.T) {
	g := classify(t, entity("User", "BusinessObject[int64]", prop("Email", "string")))
	user := g.Entity("User")
	user.DTO.Fields = append(user.DTO.Fields, field("Emial", Builtin("string"), false))

	_, audit := FilterFields(user)
	require.Len(t, audit, 1)
	assert.Equal(t, "Email", audit[0].Suggestion)
}
