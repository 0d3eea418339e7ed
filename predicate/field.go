package predicate

import "time"

// Number is the constraint of numeric fields.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// StringField is a text field that provides type-safe predicate methods.
//
//	predicate.StringField("Name").Contains("abc")
type StringField string

// Name returns the field path.
func (f StringField) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField) EQ(v string) P { return EQ(F(string(f)), V(v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField) NEQ(v string) P { return NEQ(F(string(f)), V(v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f StringField) In(vs ...string) P { return FieldIn(string(f), vs...) }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField) Contains(v string) P { return call(FuncContains, string(f), v) }

// StartsWith returns a predicate that checks if the field starts with the given prefix.
func (f StringField) StartsWith(v string) P { return call(FuncStartsWith, string(f), v) }

// EndsWith returns a predicate that checks if the field ends with the given suffix.
func (f StringField) EndsWith(v string) P { return call(FuncEndsWith, string(f), v) }

// NumberField is a numeric field that provides type-safe predicate methods.
//
//	predicate.NumberField[int64]("Age").GT(30)
type NumberField[T Number] string

// Name returns the field path.
func (f NumberField[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f NumberField[T]) EQ(v T) P { return EQ(F(string(f)), V(v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f NumberField[T]) NEQ(v T) P { return NEQ(F(string(f)), V(v)) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f NumberField[T]) GT(v T) P { return GT(F(string(f)), V(v)) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f NumberField[T]) GTE(v T) P { return GTE(F(string(f)), V(v)) }

// LT returns a predicate that checks if the field is less than the given value.
func (f NumberField[T]) LT(v T) P { return LT(F(string(f)), V(v)) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f NumberField[T]) LTE(v T) P { return LTE(F(string(f)), V(v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f NumberField[T]) In(vs ...T) P { return FieldIn(string(f), vs...) }

// TimeField is a date/time field that provides type-safe predicate methods.
type TimeField string

// Name returns the field path.
func (f TimeField) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField) EQ(v time.Time) P { return EQ(F(string(f)), V(v)) }

// GT returns a predicate that checks if the field is after the given value.
func (f TimeField) GT(v time.Time) P { return GT(F(string(f)), V(v)) }

// GTE returns a predicate that checks if the field is not before the given value.
func (f TimeField) GTE(v time.Time) P { return GTE(F(string(f)), V(v)) }

// LT returns a predicate that checks if the field is before the given value.
func (f TimeField) LT(v time.Time) P { return LT(F(string(f)), V(v)) }

// LTE returns a predicate that checks if the field is not after the given value.
func (f TimeField) LTE(v time.Time) P { return LTE(F(string(f)), V(v)) }

// BoolField is a boolean field.
type BoolField string

// Name returns the field path.
func (f BoolField) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField) EQ(v bool) P { return EQ(F(string(f)), V(v)) }

// ValueField is a field of any comparable type that only supports equality
// and set membership, e.g. uuid.UUID identifiers.
type ValueField[T comparable] string

// Name returns the field path.
func (f ValueField[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f ValueField[T]) EQ(v T) P { return EQ(F(string(f)), V(v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f ValueField[T]) In(vs ...T) P { return FieldIn(string(f), vs...) }
