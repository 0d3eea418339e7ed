package predicate_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepakshirkem/spiderly/predicate"
)

func TestPString(t *testing.T) {
	tests := []struct {
		P predicate.P
		S string
	}{
		{
			P: predicate.And(
				predicate.StringField("Name").EQ("a8m"),
				predicate.StringField("Org").In("fb", "ent"),
			),
			S: `Name == "a8m" && Org in ["fb","ent"]`,
		},
		{
			P: predicate.Or(
				predicate.Not(predicate.StringField("Name").EQ("mashraki")),
				predicate.StringField("Org").In("fb", "ent"),
			),
			S: `!(Name == "mashraki") || Org in ["fb","ent"]`,
		},
		{
			P: predicate.And(
				predicate.NumberField[int]("Age").GT(30),
				predicate.StringField("Workplace").Contains("fb"),
			),
			S: `Age > 30 && contains(Workplace, "fb")`,
		},
		{
			P: predicate.Not(predicate.NumberField[float64]("Score").LT(32.23)),
			S: `!(Score < 32.23)`,
		},
		{
			P: predicate.StringField("Role.Name").StartsWith("adm"),
			S: `has_prefix(Role.Name, "adm")`,
		},
		{
			P: predicate.HasAnyID("Tags", int64(1), int64(2)),
			S: `has_any_id(Tags, [1,2])`,
		},
		{
			P: predicate.EQ(predicate.F("current"), predicate.F("total")).Negate(),
			S: `!(current == total)`,
		},
	}
	for i := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			assert.Equal(t, tests[i].S, tests[i].P.String())
		})
	}
}

func TestNaryExpressions(t *testing.T) {
	p := predicate.And(
		predicate.NumberField[int]("a").EQ(1),
		predicate.NumberField[int]("b").EQ(2),
		predicate.NumberField[int]("c").EQ(3),
	)
	assert.Equal(t, `(a == 1 && b == 2 && c == 3)`, p.String())

	p = predicate.Or(
		predicate.NumberField[int]("x").EQ(1),
		predicate.NumberField[int]("y").EQ(2),
		predicate.NumberField[int]("z").EQ(3),
	)
	assert.Equal(t, `(x == 1 || y == 2 || z == 3)`, p.String())
}

func TestComposeDropsNil(t *testing.T) {
	assert.Nil(t, predicate.And())
	assert.Nil(t, predicate.Or(nil, nil))

	single := predicate.BoolField("Active").EQ(true)
	assert.Same(t, single, predicate.And(nil, single))
}

type role struct {
	Id   int64
	Name string
}

type tag struct {
	Id int64
}

type base struct {
	ID        int64
	CreatedAt time.Time
}

type user struct {
	base
	Name    string
	Age     int32
	Active  bool
	Balance float64
	Role    *role
	Tags    []*tag
	Token   uuid.UUID
}

func TestMatch(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	token := uuid.New()
	u := &user{
		base:    base{ID: 7, CreatedAt: created},
		Name:    "Alice",
		Age:     31,
		Active:  true,
		Balance: 10.5,
		Role:    &role{Id: 2, Name: "Admin"},
		Tags:    []*tag{{Id: 4}, {Id: 9}},
		Token:   token,
	}
	tests := []struct {
		name string
		p    predicate.P
		want bool
	}{
		{"nil predicate", nil, true},
		{"contains", predicate.StringField("Name").Contains("lic"), true},
		{"starts with", predicate.StringField("Name").StartsWith("Al"), true},
		{"starts with miss", predicate.StringField("Name").StartsWith("Bo"), false},
		{"equals", predicate.StringField("name").EQ("Alice"), true},
		{"number gt across types", predicate.NumberField[int64]("Age").GT(30), true},
		{"number lt", predicate.NumberField[float64]("Balance").LT(10), false},
		{"number in", predicate.NumberField[int32]("Age").In(1, 31), true},
		{"bool", predicate.BoolField("Active").EQ(false), false},
		{"time lt", predicate.TimeField("CreatedAt").LT(created.Add(time.Hour)), true},
		{"time eq", predicate.TimeField("CreatedAt").EQ(created), true},
		{"embedded id", predicate.NumberField[int64]("Id").EQ(7), true},
		{"dot path", predicate.StringField("Role.Name").EQ("Admin"), true},
		{"dot path id", predicate.NumberField[int64]("Role.Id").In(1, 2), true},
		{"any id", predicate.HasAnyID("Tags", int64(9)), true},
		{"any id miss", predicate.HasAnyID("Tags", int64(5)), false},
		{"uuid eq", predicate.ValueField[uuid.UUID]("Token").EQ(token), true},
		{"uuid in miss", predicate.ValueField[uuid.UUID]("Token").In(uuid.New()), false},
		{
			"and",
			predicate.And(
				predicate.StringField("Name").Contains("A"),
				predicate.NumberField[int]("Age").GTE(31),
				predicate.BoolField("Active").EQ(true),
			),
			true,
		},
		{"not", predicate.Not(predicate.BoolField("Active").EQ(true)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := predicate.Match(tt.p, u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchNilReference(t *testing.T) {
	ok, err := predicate.Match(predicate.StringField("Role.Name").EQ("Admin"), &user{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchErrors(t *testing.T) {
	_, err := predicate.Match(predicate.StringField("Missing").EQ("x"), &user{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	_, err = predicate.Match(predicate.NumberField[int]("Name").GT(1), &user{Name: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot compare")
}
