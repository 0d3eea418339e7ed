package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly"
	"github.com/deepakshirkem/spiderly/predicate"
	"github.com/deepakshirkem/spiderly/privacy"
	"github.com/deepakshirkem/spiderly/server"
)

type user struct {
	spiderly.BusinessObject[int64]
	Email string
}

type userService struct {
	authorized []bool
}

func (s *userService) GetUserTableData(ctx context.Context, f spiderly.Filter, q spiderly.Query[*user], authorize bool) (spiderly.TableResponse[*user], error) {
	s.authorized = append(s.authorized, authorize)
	res, err := spiderly.Build(ctx, q, f, func(f spiderly.Filter) (predicate.P, error) {
		var ps []predicate.P
		for _, rule := range f.Filters["email"] {
			v, err := spiderly.RuleValue[string](rule)
			if err != nil {
				return nil, err
			}
			ps = append(ps, predicate.StringField("Email").Contains(v))
		}
		return predicate.And(ps...), nil
	})
	if err != nil {
		return spiderly.TableResponse[*user]{}, err
	}
	rows, err := res.Query.(*spiderly.SliceQuery[*user]).Page(ctx, f)
	return spiderly.TableResponse[*user]{Data: rows, TotalRecords: res.TotalRecords}, err
}

func (s *userService) ExportUserTableDataToExcel(context.Context, spiderly.Filter, spiderly.Query[*user], bool) ([]byte, error) {
	return []byte("xlsx"), nil
}

func (s *userService) GetUser(_ context.Context, id int64, authorize bool) (*user, error) {
	if id == 1 {
		return &user{BusinessObject: spiderly.BusinessObject[int64]{ID: 1}, Email: "ann@x.io"}, nil
	}
	if authorize {
		return nil, &privacy.PermissionError{Code: "ReadUser", Cause: privacy.Deny}
	}
	return nil, spiderly.NewNotFoundErrorWithID("User", id)
}

func (s *userService) GetRoleAutocompleteListForUser(_ context.Context, limit int, filter string, _ spiderly.Query[*user], owner *int64, _ bool) ([]spiderly.Namebook[int64], error) {
	label := filter
	if owner != nil {
		label += "@owner"
	}
	return []spiderly.Namebook[int64]{{ID: int64(limit), DisplayName: label}}, nil
}

func (s *userService) SaveUser(_ context.Context, body user, _ bool) (user, error) {
	if body.Email == "" {
		return user{}, spiderly.NewBusinessError("email is required")
	}
	body.ID = 10
	return body, nil
}

func (s *userService) UploadAvatarForUser(ctx context.Context, f spiderly.File, blobs spiderly.BlobStore, _ bool) (string, error) {
	return blobs.Upload(ctx, f.Name, f.Content)
}

func (s *userService) DeleteUser(_ context.Context, id uuid.UUID, _ bool) error {
	if id == uuid.Nil {
		return errors.New("boom")
	}
	return nil
}

type blobStore struct{}

func (blobStore) Upload(_ context.Context, name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	return name + ":" + string(data), err
}

type controller struct {
	svc *userService
	q   spiderly.Query[*user]
}

func (c *controller) Routes(r chi.Router) {
	r.Post("/GetUserTableData", func(w http.ResponseWriter, r *http.Request) {
		server.Table(w, r, c.svc.GetUserTableData, c.q, true)
	})
	r.Post("/ExportUserTableDataToExcel", func(w http.ResponseWriter, r *http.Request) {
		server.Export(w, r, c.svc.ExportUserTableDataToExcel, c.q, "Users.xlsx", true)
	})
	r.Get("/GetUser", func(w http.ResponseWriter, r *http.Request) {
		server.ByID[int64](w, r, c.svc.GetUser, true)
	})
	r.Get("/GetUserUnauthorized", func(w http.ResponseWriter, r *http.Request) {
		server.ByID[int64](w, r, c.svc.GetUser, false)
	})
	r.Get("/GetRoleAutocompleteListForUser", func(w http.ResponseWriter, r *http.Request) {
		server.Autocomplete[int64](w, r, c.svc.GetRoleAutocompleteListForUser, c.q, "userId", true)
	})
	r.Put("/SaveUser", func(w http.ResponseWriter, r *http.Request) {
		server.Body(w, r, c.svc.SaveUser, true)
	})
	r.Post("/UploadAvatarForUser", func(w http.ResponseWriter, r *http.Request) {
		server.Upload(w, r, c.svc.UploadAvatarForUser, blobStore{}, true)
	})
	r.Delete("/DeleteUser", func(w http.ResponseWriter, r *http.Request) {
		server.Delete[uuid.UUID](w, r, c.svc.DeleteUser, true)
	})
}

func newTestServer(t *testing.T) (*httptest.Server, *userService) {
	t.Helper()
	svc := &userService{}
	q := spiderly.NewSliceQuery(
		&user{BusinessObject: spiderly.BusinessObject[int64]{ID: 1}, Email: "ann@x.io"},
		&user{BusinessObject: spiderly.BusinessObject[int64]{ID: 2}, Email: "bob@x.io"},
		&user{BusinessObject: spiderly.BusinessObject[int64]{ID: 3}, Email: "cy@y.io"},
	)
	r := server.NewRouter(zap.NewNop(), map[string]server.Routable{"User": &controller{svc: svc, q: q}})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func do(t *testing.T, method, url, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestTable(t *testing.T) {
	srv, svc := newTestServer(t)
	body := `{"filters":{"email":[{"matchMode":"contains","value":"x.io"}]},"first":1,"rows":10}`
	resp, data := do(t, http.MethodPost, srv.URL+"/User/GetUserTableData", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out spiderly.TableResponse[user]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 2, out.TotalRecords)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "bob@x.io", out.Data[0].Email)
	assert.Equal(t, []bool{true}, svc.authorized)

	resp, data = do(t, http.MethodPost, srv.URL+"/User/GetUserTableData", "application/json", strings.NewReader(`{"filters":{"email":[{"matchMode":"contains"}]}}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "INVALID_FILTER")

	resp, _ = do(t, http.MethodPost, srv.URL+"/User/GetUserTableData", "application/json", strings.NewReader(`{`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, data := do(t, http.MethodPost, srv.URL+"/User/ExportUserTableDataToExcel", "application/json", strings.NewReader(`{}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "xlsx", string(data))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Users.xlsx")
}

func TestByIDStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/User/GetUser?id=1", http.StatusOK, ""},
		{"/User/GetUser?id=7", http.StatusForbidden, "FORBIDDEN"},
		{"/User/GetUserUnauthorized?id=7", http.StatusNotFound, "NOT_FOUND"},
		{"/User/GetUser", http.StatusBadRequest, "BAD_REQUEST"},
		{"/User/GetUser?id=abc", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, data := do(t, http.MethodGet, srv.URL+tt.path, "", nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				var er server.ErrorResponse
				require.NoError(t, json.Unmarshal(data, &er))
				assert.Equal(t, tt.code, er.Error.Code)
				assert.Equal(t, tt.status, er.Status)
			}
		})
	}
}

func TestAutocomplete(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, data := do(t, http.MethodGet, srv.URL+"/User/GetRoleAutocompleteListForUser?limit=5&filter=ad&userId=3", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []spiderly.Namebook[int64]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, []spiderly.Namebook[int64]{{ID: 5, DisplayName: "ad@owner"}}, out)

	_, data = do(t, http.MethodGet, srv.URL+"/User/GetRoleAutocompleteListForUser", "", nil)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, []spiderly.Namebook[int64]{{ID: 20}}, out)
}

func TestSave(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, data := do(t, http.MethodPut, srv.URL+"/User/SaveUser", "application/json", strings.NewReader(`{"email":"new@x.io"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"id":10`)

	resp, data = do(t, http.MethodPut, srv.URL+"/User/SaveUser", "application/json", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "email is required")
}

func TestUpload(t *testing.T) {
	srv, _ := newTestServer(t)
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", "a.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	resp, data := do(t, http.MethodPost, srv.URL+"/User/UploadAvatarForUser", mw.FormDataContentType(), buf)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a.png:png", string(data))

	resp, _ = do(t, http.MethodPost, srv.URL+"/User/UploadAvatarForUser", "application/json", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := do(t, http.MethodDelete, srv.URL+"/User/DeleteUser?id="+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := do(t, http.MethodDelete, srv.URL+"/User/DeleteUser?id="+uuid.Nil.String(), "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(data), "boom")
}

func TestParseID(t *testing.T) {
	i64, err := server.ParseID[int64]("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), i64)

	i32, err := server.ParseID[int32]("7")
	require.NoError(t, err)
	assert.Equal(t, int32(7), i32)

	_, err = server.ParseID[int32]("99999999999")
	assert.Error(t, err)

	b, err := server.ParseID[byte]("3")
	require.NoError(t, err)
	assert.Equal(t, byte(3), b)

	s, err := server.ParseID[string]("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	id := uuid.New()
	u, err := server.ParseID[uuid.UUID](id.String())
	require.NoError(t, err)
	assert.Equal(t, id, u)

	f, err := server.ParseID[float64]("1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
}

func TestStatus(t *testing.T) {
	status, code := server.Status(spiderly.NewMatchModeError("User", "Name", "text", spiderly.MatchModeIn))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_FILTER", code)

	status, _ = server.Status(errors.New("x"))
	assert.Equal(t, http.StatusInternalServerError, status)
}
