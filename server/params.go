package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/deepakshirkem/spiderly"
)

// maxUploadMemory is the part of a multipart form kept in memory.
const maxUploadMemory = 32 << 20

var errMissing = errors.New("missing value")

// ParseID converts s to the identifier type ID.
func ParseID[ID any](s string) (ID, error) {
	var (
		id  ID
		err error
	)
	switch p := any(&id).(type) {
	case *int64:
		*p, err = strconv.ParseInt(s, 10, 64)
	case *int32:
		var v int64
		v, err = strconv.ParseInt(s, 10, 32)
		*p = int32(v)
	case *int:
		*p, err = strconv.Atoi(s)
	case *int16:
		var v int64
		v, err = strconv.ParseInt(s, 10, 16)
		*p = int16(v)
	case *uint8:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 8)
		*p = uint8(v)
	case *uint64:
		*p, err = strconv.ParseUint(s, 10, 64)
	case *string:
		*p = s
	case *uuid.UUID:
		*p, err = uuid.Parse(s)
	default:
		err = json.Unmarshal([]byte(s), p)
	}
	return id, err
}

// QueryID reads the required identifier query parameter name.
func QueryID[ID any](r *http.Request, name string) (ID, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		var zero ID
		return zero, &ParamError{Name: name, Err: errMissing}
	}
	id, err := ParseID[ID](s)
	if err != nil {
		return id, &ParamError{Name: name, Value: s, Err: err}
	}
	return id, nil
}

// OptionalQueryID reads an optional identifier query parameter. It
// returns nil when the parameter is absent.
func OptionalQueryID[ID any](r *http.Request, name string) (*ID, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	id, err := QueryID[ID](r, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// QueryInt reads an integer query parameter with a default value.
func QueryInt(r *http.Request, name string, defaultValue int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ParamError{Name: name, Value: s, Err: err}
	}
	return i, nil
}

// Decode decodes the JSON request body into v.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &BodyError{Err: err}
	}
	return nil
}

// FormFile reads the uploaded file of a multipart form.
func FormFile(r *http.Request, name string) (spiderly.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return spiderly.File{}, &BodyError{Err: err}
	}
	f, h, err := r.FormFile(name)
	if err != nil {
		return spiderly.File{}, &ParamError{Name: name, Err: err}
	}
	return spiderly.File{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Content:     f,
	}, nil
}
