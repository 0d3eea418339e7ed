// Package client is the runtime of generated API clients. Generated methods
// build a Request and hand it to Client.Do, which picks the transport
// behavior from the request Mode.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly"
)

// Mode selects how a request is sent and how its response is read.
type Mode int

// Transport modes.
const (
	// ModeDefault sends JSON and decodes a JSON response. GET responses are
	// served from the cache when one is configured.
	ModeDefault Mode = iota
	// ModeSkipSpinner behaves like ModeDefault but always bypasses the cache.
	ModeSkipSpinner
	// ModeBlob reads the raw response body into a *[]byte.
	ModeBlob
	// ModeText reads the response body into a *string.
	ModeText
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeSkipSpinner:
		return "skip-spinner"
	case ModeBlob:
		return "blob"
	case ModeText:
		return "text"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded unless Form or File is set.
	Body any
	// Form and File are sent as a multipart form.
	Form url.Values
	File *spiderly.File
	// FileField is the form field of File. Defaults to "file".
	FileField string
	Mode      Mode
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error returns the error string.
func (e *StatusError) Error() string {
	return fmt.Sprintf("spiderly/client: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Is reports whether a 404 status matches spiderly.ErrNotFound.
func (e *StatusError) Is(err error) bool {
	return err == spiderly.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the HTTP transport. Defaults to http.DefaultClient.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithCache caches default-mode GET responses for ttl. A zero ttl keeps
// entries until they are evicted or invalidated by a write.
func WithCache(cache spiderly.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client sends requests to a spiderly API.
type Client struct {
	base   string
	doer   Doer
	cache  spiderly.Cache
	ttl    time.Duration
	header http.Header
	log    *zap.Logger
}

// New returns a client for the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimSuffix(baseURL, "/"),
		doer:   http.DefaultClient,
		header: make(http.Header),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and decodes the response into out. out may be nil when the
// response carries no payload.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	key := spiderly.CacheKey{Method: req.Method, Path: req.Path, Query: req.Query}.String()
	cacheable := c.cache != nil && req.Mode == ModeDefault && req.Method == http.MethodGet
	if cacheable {
		data, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		if data != nil {
			c.log.Debug("cache hit", zap.String("key", key))
			return decode(req.Mode, data, out)
		}
	}
	hreq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.doer.Do(hreq)
	if err != nil {
		return fmt.Errorf("spiderly/client: %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("spiderly/client: reading %s: %w", req.Path, err)
	}
	c.log.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Stringer("mode", req.Mode),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if err := decode(req.Mode, data, out); err != nil {
		return err
	}
	switch {
	case cacheable:
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	case c.cache != nil && req.Method != http.MethodGet:
		// Writes invalidate every cached read of the same controller.
		if err := c.cache.DeletePrefix(ctx, http.MethodGet+":"+controllerPrefix(req.Path)); err != nil {
			c.log.Warn("cache invalidation failed", zap.String("path", req.Path), zap.Error(err))
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := c.base + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil || req.File != nil:
		buf, ct, err := multipartBody(req)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("spiderly/client: encoding %s body: %w", req.Path, err)
		}
		body, contentType = bytes.NewReader(buf), "application/json"
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	switch req.Mode {
	case ModeBlob:
		hreq.Header.Set("Accept", "application/octet-stream")
	case ModeText:
		hreq.Header.Set("Accept", "text/plain")
	default:
		hreq.Header.Set("Accept", "application/json")
	}
	return hreq, nil
}

func multipartBody(req Request) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, vs := range req.Form {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	if f := req.File; f != nil {
		field := req.FileField
		if field == "" {
			field = "file"
		}
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("spiderly/client: reading %s: %w", f.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func decode(mode Mode, data []byte, out any) error {
	if out == nil {
		return nil
	}
	switch mode {
	case ModeBlob:
		p, ok := out.(*[]byte)
		if !ok {
			return fmt.Errorf("spiderly/client: blob response needs *[]byte, got %T", out)
		}
		*p = data
		return nil
	case ModeText:
		p, ok := out.(*string)
		if !ok {
			return fmt.Errorf("spiderly/client: text response needs *string, got %T", out)
		}
		*p = string(data)
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("spiderly/client: decoding response: %w", err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(data))
}

func controllerPrefix(path string) string {
	if i := strings.Index(strings.TrimPrefix(path, "/"), "/"); i >= 0 {
		return path[:i+2]
	}
	return path
}

// Values encodes the exported fields of a struct as form values, using the
// JSON field names. Nested values are sent as JSON text.
func Values(v any) (url.Values, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, errors.New("spiderly/client: form body must be a struct or map")
	}
	vals := make(url.Values, len(fields))
	for k, raw := range fields {
		var s string
		switch {
		case bytes.Equal(raw, []byte("null")):
			continue
		case json.Unmarshal(raw, &s) == nil:
			vals.Set(k, s)
		default:
			vals.Set(k, string(raw))
		}
	}
	return vals, nil
}

// Param formats a scalar query parameter. Nil pointers yield no value and
// times are sent in RFC 3339.
func Param(v any) []string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	if t, ok := rv.Interface().(time.Time); ok {
		return []string{t.Format(time.RFC3339)}
	}
	return []string{fmt.Sprint(rv.Interface())}
}

// AddValues adds the Values encoding of v to dst.
func AddValues(dst url.Values, v any) error {
	vals, err := Values(v)
	if err != nil {
		return err
	}
	for k, vs := range vals {
		dst[k] = append(dst[k], vs...)
	}
	return nil
}
