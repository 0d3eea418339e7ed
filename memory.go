package spiderly

import (
	"context"
	"slices"

	"github.com/deepakshirkem/spiderly/predicate"
)

// SliceQuery is an in-memory Query over a slice of entities. Predicates
// are evaluated with predicate.Match. It backs tests and prototypes that
// have no persistence layer yet.
type SliceQuery[T any] struct {
	items []T
	preds []predicate.P
}

// NewSliceQuery returns a query over items.
func NewSliceQuery[T any](items ...T) *SliceQuery[T] {
	return &SliceQuery[T]{items: items}
}

// Where implements Query. The receiver is not modified.
func (q *SliceQuery[T]) Where(ps ...predicate.P) Query[T] {
	return &SliceQuery[T]{items: q.items, preds: append(slices.Clip(q.preds), ps...)}
}

// Count implements Query.
func (q *SliceQuery[T]) Count(ctx context.Context) (int, error) {
	all, err := q.All(ctx)
	return len(all), err
}

// All returns the matching items in their original order.
func (q *SliceQuery[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	for _, item := range q.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := predicate.Match(predicate.And(q.preds...), item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// Page returns the rows of the page described by f.
func (q *SliceQuery[T]) Page(ctx context.Context, f Filter) ([]T, error) {
	all, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	first := min(max(f.First, 0), len(all))
	last := len(all)
	if f.Rows > 0 {
		last = min(first+f.Rows, len(all))
	}
	return all[first:last], nil
}

// NopTransactor runs functions without a transactional scope.
type NopTransactor struct{}

// WithinTx implements Transactor.
func (NopTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	_ Query[struct{}] = (*SliceQuery[struct{}])(nil)
	_ Transactor      = NopTransactor{}
)
