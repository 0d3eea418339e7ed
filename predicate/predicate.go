// Package predicate provides the expression tree produced by generated
// filter builders and consumed by persistence collaborators.
//
// A predicate is a small, storage-agnostic AST. It renders to a readable
// form with String and can be evaluated in memory with Match:
//
//	p := predicate.And(
//		predicate.StringField("Name").Contains("abc"),
//		predicate.NumberField[int]("Age").GT(30),
//	)
//	p.String() // contains(Name, "abc") && Age > 30
package predicate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// An Op represents an operator in a predicate expression.
type Op int

// Operators.
const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpEQ
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpIn
	OpNotIn
)

var ops = [...]string{
	OpAnd:   "&&",
	OpOr:    "||",
	OpNot:   "!",
	OpEQ:    "==",
	OpNEQ:   "!=",
	OpGT:    ">",
	OpGTE:   ">=",
	OpLT:    "<",
	OpLTE:   "<=",
	OpIn:    "in",
	OpNotIn: "not in",
}

// String returns the text representation of an operator.
func (o Op) String() string {
	if o >= 0 && int(o) < len(ops) {
		return ops[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// A Func represents a function call in a predicate expression.
type Func string

// Functions.
const (
	FuncContains   Func = "contains"
	FuncStartsWith Func = "has_prefix"
	FuncEndsWith   Func = "has_suffix"
	FuncHasAnyID   Func = "has_any_id"
)

type (
	// Expr is a node in the predicate tree.
	Expr interface {
		fmt.Stringer
		expr()
	}

	// P is a boolean predicate expression.
	P interface {
		Expr
		Negate() P
	}

	// Field is a dot-separated path to a property, e.g. "Role.Name".
	Field struct {
		Name string
	}

	// Value is a literal operand.
	Value struct {
		V any
	}

	// UnaryExpr is a unary predicate, e.g. !x.
	UnaryExpr struct {
		Op Op
		X  Expr
	}

	// BinaryExpr is a binary predicate, e.g. x == y.
	BinaryExpr struct {
		Op   Op
		X, Y Expr
	}

	// NaryExpr is a logical composition of three or more predicates.
	NaryExpr struct {
		Op Op
		Xs []Expr
	}

	// CallExpr is a function call predicate, e.g. contains(x, "y").
	CallExpr struct {
		Func Func
		Args []Expr
	}
)

// F returns a field expression for the given path.
func F(name string) *Field { return &Field{Name: name} }

// V returns a value expression.
func V(v any) *Value { return &Value{V: v} }

// Not returns the negation of p.
func Not(p P) P { return &UnaryExpr{Op: OpNot, X: p} }

// And composes predicates with &&. Nil predicates are dropped; an empty
// composition returns nil.
func And(ps ...P) P { return nary(OpAnd, ps) }

// Or composes predicates with ||. Nil predicates are dropped; an empty
// composition returns nil.
func Or(ps ...P) P { return nary(OpOr, ps) }

func nary(op Op, ps []P) P {
	xs := make([]Expr, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			xs = append(xs, p)
		}
	}
	switch len(xs) {
	case 0:
		return nil
	case 1:
		return xs[0].(P)
	case 2:
		return &BinaryExpr{Op: op, X: xs[0], Y: xs[1]}
	default:
		return &NaryExpr{Op: op, Xs: xs}
	}
}

// EQ returns x == y.
func EQ(x, y Expr) P { return &BinaryExpr{Op: OpEQ, X: x, Y: y} }

// NEQ returns x != y.
func NEQ(x, y Expr) P { return &BinaryExpr{Op: OpNEQ, X: x, Y: y} }

// GT returns x > y.
func GT(x, y Expr) P { return &BinaryExpr{Op: OpGT, X: x, Y: y} }

// GTE returns x >= y.
func GTE(x, y Expr) P { return &BinaryExpr{Op: OpGTE, X: x, Y: y} }

// LT returns x < y.
func LT(x, y Expr) P { return &BinaryExpr{Op: OpLT, X: x, Y: y} }

// LTE returns x <= y.
func LTE(x, y Expr) P { return &BinaryExpr{Op: OpLTE, X: x, Y: y} }

// FieldIn returns a predicate that checks the field value is one of vs.
func FieldIn[T any](name string, vs ...T) P {
	return &BinaryExpr{Op: OpIn, X: F(name), Y: V(vs)}
}

// FieldNotIn returns a predicate that checks the field value is none of vs.
func FieldNotIn[T any](name string, vs ...T) P {
	return &BinaryExpr{Op: OpNotIn, X: F(name), Y: V(vs)}
}

// HasAnyID returns a predicate that holds when any element of the collection
// field has an Id contained in ids.
func HasAnyID[T any](name string, ids ...T) P {
	return &CallExpr{Func: FuncHasAnyID, Args: []Expr{F(name), V(ids)}}
}

func call(fn Func, name string, v any) P {
	return &CallExpr{Func: fn, Args: []Expr{F(name), V(v)}}
}

// Negate negates the unary expression.
func (e *UnaryExpr) Negate() P { return Not(e) }

// Negate negates the binary expression.
func (e *BinaryExpr) Negate() P { return Not(e) }

// Negate negates the n-ary expression.
func (e *NaryExpr) Negate() P { return Not(e) }

// Negate negates the call expression.
func (e *CallExpr) Negate() P { return Not(e) }

// String returns the text representation of a field.
func (f *Field) String() string { return f.Name }

// String returns the text representation of a value.
func (v *Value) String() string {
	buf, err := json.Marshal(v.V)
	if err != nil {
		return fmt.Sprint(v.V)
	}
	return string(buf)
}

// String returns the text representation of a unary expression.
func (e *UnaryExpr) String() string {
	return fmt.Sprintf("%s(%s)", e.Op, e.X)
}

// String returns the text representation of a binary expression.
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.X, e.Op, e.Y)
}

// String returns the text representation of an n-ary expression.
func (e *NaryExpr) String() string {
	parts := make([]string, len(e.Xs))
	for i, x := range e.Xs {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " "+e.Op.String()+" ") + ")"
}

// String returns the text representation of a call expression.
func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Func, strings.Join(args, ", "))
}

func (*Field) expr()      {}
func (*Value) expr()      {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
func (*NaryExpr) expr()   {}
func (*CallExpr) expr()   {}

var (
	_ P = (*UnaryExpr)(nil)
	_ P = (*BinaryExpr)(nil)
	_ P = (*NaryExpr)(nil)
	_ P = (*CallExpr)(nil)
)
