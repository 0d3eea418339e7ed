package server

import (
	"context"
	"net/http"

	"github.com/deepakshirkem/spiderly"
)

// The adapters below decode the request of one generated endpoint shape,
// call the service method and write its result. Generated controllers pass
// service method values, so request and response types are inferred.

// Table serves paged table data: the body is a spiderly.Filter.
func Table[T, Out any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, spiderly.Filter, spiderly.Query[T], bool) (Out, error),
	q spiderly.Query[T], authorize bool,
) {
	var filter spiderly.Filter
	if err := Decode(r, &filter); err != nil {
		WriteError(w, r, err)
		return
	}
	out, err := fn(r.Context(), filter, q, authorize)
	Respond(w, r, out, err)
}

// Export serves a spreadsheet export of filtered table data.
func Export[T any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, spiderly.Filter, spiderly.Query[T], bool) ([]byte, error),
	q spiderly.Query[T], name string, authorize bool,
) {
	var filter spiderly.Filter
	if err := Decode(r, &filter); err != nil {
		WriteError(w, r, err)
		return
	}
	data, err := fn(r.Context(), filter, q, authorize)
	Attachment(w, r, name, data, err)
}

// List serves an unfiltered list.
func List[T, Out any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, spiderly.Query[T], bool) (Out, error),
	q spiderly.Query[T], authorize bool,
) {
	out, err := fn(r.Context(), q, authorize)
	Respond(w, r, out, err)
}

// ByID serves a read addressed by the "id" query parameter.
func ByID[ID, Out any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, ID, bool) (Out, error),
	authorize bool,
) {
	id, err := QueryID[ID](r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out, err := fn(r.Context(), id, authorize)
	Respond(w, r, out, err)
}

// Autocomplete serves a bounded, text-filtered selection list. The
// optional owner identifier is read from the ownerParam query parameter.
func Autocomplete[ID, T, Out any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, int, string, spiderly.Query[T], *ID, bool) (Out, error),
	q spiderly.Query[T], ownerParam string, authorize bool,
) {
	limit, err := QueryInt(r, "limit", 20)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	owner, err := OptionalQueryID[ID](r, ownerParam)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out, err := fn(r.Context(), limit, r.URL.Query().Get("filter"), q, owner, authorize)
	Respond(w, r, out, err)
}

// Dropdown serves a full selection list.
func Dropdown[ID, T, Out any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, spiderly.Query[T], *ID, bool) (Out, error),
	q spiderly.Query[T], ownerParam string, authorize bool,
) {
	owner, err := OptionalQueryID[ID](r, ownerParam)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out, err := fn(r.Context(), q, owner, authorize)
	Respond(w, r, out, err)
}

// Body serves a call taking a JSON body, e.g. a save.
func Body[In, Out any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, In, bool) (Out, error),
	authorize bool,
) {
	var in In
	if err := Decode(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	out, err := fn(r.Context(), in, authorize)
	Respond(w, r, out, err)
}

// Upload serves a multipart file upload and responds with the stored blob
// name.
func Upload(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, spiderly.File, spiderly.BlobStore, bool) (string, error),
	blobs spiderly.BlobStore, authorize bool,
) {
	file, err := FormFile(r, "file")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if c, ok := file.Content.(interface{ Close() error }); ok {
		defer c.Close()
	}
	name, err := fn(r.Context(), file, blobs, authorize)
	RespondText(w, r, name, err)
}

// Delete serves a delete addressed by the "id" query parameter.
func Delete[ID any](w http.ResponseWriter, r *http.Request,
	fn func(context.Context, ID, bool) error,
	authorize bool,
) {
	id, err := QueryID[ID](r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NoContent(w, r, fn(r.Context(), id, authorize))
}
