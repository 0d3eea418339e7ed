package predicate

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Match reports whether v satisfies p. Field paths are resolved against
// struct fields case-insensitively, following pointers and embedded
// structs. A nil predicate matches everything.
//
// Match exists for in-memory collaborators and tests; storage-backed
// collaborators translate the tree into their own query language.
func Match(p P, v any) (bool, error) {
	if p == nil {
		return true, nil
	}
	return eval(p, reflect.ValueOf(v))
}

func eval(e Expr, root reflect.Value) (bool, error) {
	switch e := e.(type) {
	case *UnaryExpr:
		ok, err := eval(e.X, root)
		return !ok, err
	case *NaryExpr:
		for _, x := range e.Xs {
			ok, err := eval(x, root)
			if err != nil {
				return false, err
			}
			if e.Op == OpOr && ok {
				return true, nil
			}
			if e.Op == OpAnd && !ok {
				return false, nil
			}
		}
		return e.Op == OpAnd, nil
	case *BinaryExpr:
		return evalBinary(e, root)
	case *CallExpr:
		return evalCall(e, root)
	default:
		return false, fmt.Errorf("predicate: unexpected expression %T", e)
	}
}

func evalBinary(e *BinaryExpr, root reflect.Value) (bool, error) {
	switch e.Op {
	case OpAnd, OpOr:
		x, err := eval(e.X, root)
		if err != nil {
			return false, err
		}
		if e.Op == OpAnd && !x || e.Op == OpOr && x {
			return x, nil
		}
		return eval(e.Y, root)
	}
	x, err := operand(e.X, root)
	if err != nil {
		return false, err
	}
	y, err := operand(e.Y, root)
	if err != nil {
		return false, err
	}
	switch e.Op {
	case OpIn, OpNotIn:
		in, err := member(x, y)
		if err != nil {
			return false, err
		}
		return in == (e.Op == OpIn), nil
	case OpEQ, OpNEQ:
		if x == nil || y == nil {
			return (x == nil && y == nil) == (e.Op == OpEQ), nil
		}
		c, err := compare(x, y, true)
		if err != nil {
			return false, err
		}
		return (c == 0) == (e.Op == OpEQ), nil
	}
	if x == nil || y == nil {
		return false, nil
	}
	c, err := compare(x, y, false)
	if err != nil {
		return false, err
	}
	switch e.Op {
	case OpGT:
		return c > 0, nil
	case OpGTE:
		return c >= 0, nil
	case OpLT:
		return c < 0, nil
	case OpLTE:
		return c <= 0, nil
	default:
		return false, fmt.Errorf("predicate: unexpected operator %s", e.Op)
	}
}

func evalCall(e *CallExpr, root reflect.Value) (bool, error) {
	if len(e.Args) != 2 {
		return false, fmt.Errorf("predicate: %s expects 2 arguments, got %d", e.Func, len(e.Args))
	}
	y, err := operand(e.Args[1], root)
	if err != nil {
		return false, err
	}
	if e.Func == FuncHasAnyID {
		f, ok := e.Args[0].(*Field)
		if !ok {
			return false, fmt.Errorf("predicate: %s expects a field", e.Func)
		}
		return hasAnyID(root, f.Name, y)
	}
	x, err := operand(e.Args[0], root)
	if err != nil || x == nil {
		return false, err
	}
	s, ok1 := x.(string)
	sub, ok2 := y.(string)
	if !ok1 || !ok2 {
		return false, fmt.Errorf("predicate: %s expects string operands", e.Func)
	}
	switch e.Func {
	case FuncContains:
		return strings.Contains(s, sub), nil
	case FuncStartsWith:
		return strings.HasPrefix(s, sub), nil
	case FuncEndsWith:
		return strings.HasSuffix(s, sub), nil
	default:
		return false, fmt.Errorf("predicate: unknown function %q", e.Func)
	}
}

func hasAnyID(root reflect.Value, path string, ids any) (bool, error) {
	coll, err := lookup(root, path)
	if err != nil || !coll.IsValid() {
		return false, err
	}
	if k := coll.Kind(); k != reflect.Slice && k != reflect.Array {
		return false, fmt.Errorf("predicate: field %q is not a collection", path)
	}
	for i := 0; i < coll.Len(); i++ {
		id, err := lookup(coll.Index(i), "Id")
		if err != nil {
			return false, err
		}
		if !id.IsValid() {
			continue
		}
		in, err := member(normalize(id), ids)
		if err != nil || in {
			return in, err
		}
	}
	return false, nil
}

func operand(e Expr, root reflect.Value) (any, error) {
	switch e := e.(type) {
	case *Field:
		v, err := lookup(root, e.Name)
		if err != nil || !v.IsValid() {
			return nil, err
		}
		return normalize(v), nil
	case *Value:
		return normalize(reflect.ValueOf(e.V)), nil
	default:
		return nil, fmt.Errorf("predicate: unexpected operand %T", e)
	}
}

// lookup walks a dot path. It returns an invalid value when a nil pointer
// is met on the way.
func lookup(v reflect.Value, path string) (reflect.Value, error) {
	for _, seg := range strings.Split(path, ".") {
		v = indirect(v)
		if !v.IsValid() {
			return v, nil
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("predicate: cannot resolve %q on %s", seg, v.Type())
		}
		f := v.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, seg) })
		if !f.IsValid() {
			return reflect.Value{}, fmt.Errorf("predicate: unknown field %q in %s", seg, v.Type())
		}
		v = f
	}
	return indirect(v), nil
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// normalize maps numbers to float64 so that operands of different numeric
// types compare naturally.
func normalize(v reflect.Value) any {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	}
	return v.Interface()
}

func member(x, list any) (bool, error) {
	lv := reflect.ValueOf(list)
	if k := lv.Kind(); k != reflect.Slice && k != reflect.Array {
		return false, fmt.Errorf("predicate: set operand is %T, not a list", list)
	}
	if x == nil {
		return false, nil
	}
	for i := 0; i < lv.Len(); i++ {
		c, err := compare(x, normalize(lv.Index(i)), true)
		if err == nil && c == 0 {
			return true, nil
		}
	}
	return false, nil
}

// compare returns -1, 0 or 1. With eqOnly set, incomparable operands of
// the same type are compared for equality only.
func compare(x, y any, eqOnly bool) (int, error) {
	switch x := x.(type) {
	case float64:
		if y, ok := y.(float64); ok {
			return cmp(x < y, x > y), nil
		}
	case string:
		if y, ok := y.(string); ok {
			return strings.Compare(x, y), nil
		}
	case time.Time:
		if y, ok := y.(time.Time); ok {
			return x.Compare(y), nil
		}
	case bool:
		if y, ok := y.(bool); ok && eqOnly {
			return cmp(x != y, false), nil
		}
	default:
		if eqOnly && reflect.TypeOf(x) == reflect.TypeOf(y) {
			return cmp(!reflect.DeepEqual(x, y), false), nil
		}
	}
	return 0, fmt.Errorf("predicate: cannot compare %T with %T", x, y)
}

func cmp(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}
