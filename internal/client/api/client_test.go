package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/unidocs/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, tokens, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8080/api", nil)
	assert.Error(t, err)
	_, err = New("/api", nil)
	assert.Error(t, err)
}

func TestClient_BearerHeader(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.User{ID: 7, Email: "a@b.com"})
	}, staticToken("tok.abc.123"))

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok.abc.123", got)
	assert.Equal(t, int64(7), u.ID)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var present bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		_, _ = w.Write([]byte(`[]`))
	}, staticToken(""))

	_, err := c.Institutions(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestClient_UnauthorizedFiresListenersOnce(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","error":"token expired"}`))
	}, staticToken("old"))

	var first, second atomic.Int32
	c.OnUnauthorized(func() { first.Add(1) })
	remove := c.OnUnauthorized(func() { second.Add(1) })

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "token expired", apiErr.Message)
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())

	remove()
	_, _ = c.Stats(context.Background())
	assert.Equal(t, int32(2), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestClient_OtherErrorsDoNotNotify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("plain failure\n"))
	}, nil)

	var fired bool
	c.OnUnauthorized(func() { fired = true })

	err := c.DeleteDocument(context.Background(), 3)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "plain failure", apiErr.Message)
	assert.False(t, fired)
}

func TestClient_QueryEncoding(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"documents":[],"total":0,"page":1,"pages":0,"per_page":20}`))
	}, nil)

	ctx := context.Background()
	_, err := c.Documents(ctx, DocumentQuery{Type: "cours", InstitutionID: 2, Page: 1})
	require.NoError(t, err)
	_, err = c.Search(ctx, SearchQuery{Text: "algèbre", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/documents?institution_id=2&page=1&type=cours",
		"/api/search?page=2&q=alg%C3%A8bre",
	}, queries)
}

func TestClient_UploadDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Cours 1", r.FormValue("title"))
		assert.Equal(t, "12", r.FormValue("subject_id"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "report.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(body))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Document{ID: 41, Title: "Cours 1"})
	}, staticToken("t"))

	doc, err := c.UploadDocument(context.Background(), UploadRequest{
		Title:     "Cours 1",
		Type:      "cours",
		SubjectID: 12,
		FileName:  "report.pdf",
		Content:   strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), doc.ID)
}

func TestClient_Download(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/5/download", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="notes.pdf"`)
		_, _ = w.Write([]byte("content"))
	}, nil)

	var buf bytes.Buffer
	name, n, err := c.Download(context.Background(), 5, &buf)
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", name)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "content", buf.String())
	assert.True(t, strings.HasSuffix(c.DownloadURL(5), "/api/documents/5/download"))
}

func TestClient_RateDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.RateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 4, req.Score)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"average_rating":4.5,"rating":{"score":4}}`))
	}, staticToken("t"))

	res, err := c.RateDocument(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, res.Average, 0.001)
}
