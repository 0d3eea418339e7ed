// Package spiderly holds the shared base types imported by generated code:
// entity base markers, the generic filter payload, result shapes and the
// collaborator interfaces the generated handlers and predicate builders
// are written against.
package spiderly

import (
	"context"
	"io"
	"time"

	"github.com/deepakshirkem/spiderly/predicate"
)

// BusinessObject is the base of mutable entities. The type parameter is
// the identifier type.
//
//	type User struct {
//		spiderly.BusinessObject[int64]
//		Email string
//	}
type BusinessObject[ID comparable] struct {
	ID         ID        `json:"id"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// ReadonlyObject is the base of entities that are never saved or deleted
// through generated endpoints.
type ReadonlyObject[ID comparable] struct {
	ID        ID        `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Namebook is the minimal {id, label} projection used by selection controls.
type Namebook[ID comparable] struct {
	ID          ID     `json:"id"`
	DisplayName string `json:"displayName"`
}

// Codebook is a {code, label} projection of enumerations.
type Codebook struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
}

// TableResponse is one page of rows together with the total row count.
type TableResponse[T any] struct {
	Data         []T `json:"data"`
	TotalRecords int `json:"totalRecords"`
}

// LazyLoadSelectedIdsResult lists the selected ids of a paged selection.
type LazyLoadSelectedIdsResult[ID comparable] struct {
	SelectedIds          []ID `json:"selectedIds"`
	TotalRecordsSelected int  `json:"totalRecordsSelected"`
}

// PaginatedResult is a filtered query and the number of rows it matches.
type PaginatedResult[T any] struct {
	Query        Query[T]
	TotalRecords int
}

// File is an uploaded binary payload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Query is the queryable set of one entity type exposed by the
// persistence collaborator.
type Query[T any] interface {
	// Where returns a query narrowed by the given predicates.
	Where(ps ...predicate.P) Query[T]
	// Count returns the number of rows the query matches.
	Count(ctx context.Context) (int, error)
}

// Transactor runs fn inside a transactional scope.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BlobStore stores uploaded files and returns the stored blob name.
type BlobStore interface {
	Upload(ctx context.Context, name string, content io.Reader) (string, error)
}

// Mailer delivers verification and notification emails.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Build applies the predicate built from f to q and counts the matching
// rows. Generated filtering packages call it with their per-entity
// predicate builders.
func Build[T any](ctx context.Context, q Query[T], f Filter, build func(Filter) (predicate.P, error)) (PaginatedResult[T], error) {
	p, err := build(f)
	if err != nil {
		return PaginatedResult[T]{}, err
	}
	if p != nil {
		q = q.Where(p)
	}
	total, err := q.Count(ctx)
	if err != nil {
		return PaginatedResult[T]{}, err
	}
	return PaginatedResult[T]{Query: q, TotalRecords: total}, nil
}
