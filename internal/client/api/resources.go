package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atinyakov/unidocs/internal/models"
)

// Register creates an account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	var out models.AuthResponse
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var out models.AuthResponse
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	u, err := get[models.User](ctx, c, "/auth/me", nil)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func setInt(q url.Values, key string, v int64) {
	if v > 0 {
		q.Set(key, strconv.FormatInt(v, 10))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

// Institutions lists every institution.
func (c *Client) Institutions(ctx context.Context) ([]models.Institution, error) {
	return get[[]models.Institution](ctx, c, "/institutions", nil)
}

// Institution returns one institution with its programs.
func (c *Client) Institution(ctx context.Context, id int64) (*models.Institution, error) {
	v, err := get[models.Institution](ctx, c, idPath("/institutions", id), nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Programs lists programs, restricted to institutionID when non-zero.
func (c *Client) Programs(ctx context.Context, institutionID int64) ([]models.Program, error) {
	q := url.Values{}
	setInt(q, "institution_id", institutionID)
	return get[[]models.Program](ctx, c, "/programs", q)
}

// Program returns one program with its subjects.
func (c *Client) Program(ctx context.Context, id int64) (*models.Program, error) {
	v, err := get[models.Program](ctx, c, idPath("/programs", id), nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Subjects lists subjects, filtered by program and level when set.
func (c *Client) Subjects(ctx context.Context, programID int64, level string) ([]models.Subject, error) {
	q := url.Values{}
	setInt(q, "program_id", programID)
	setString(q, "level", level)
	return get[[]models.Subject](ctx, c, "/subjects", q)
}

// Subject returns one subject with its documents.
func (c *Client) Subject(ctx context.Context, id int64) (*models.Subject, error) {
	v, err := get[models.Subject](ctx, c, idPath("/subjects", id), nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DocumentQuery filters a document listing. Zero values are omitted.
type DocumentQuery struct {
	SubjectID     int64
	ProgramID     int64
	InstitutionID int64
	Type          string
	Level         string
	Page          int
	PerPage       int
}

// Values encodes q as query parameters.
func (q DocumentQuery) Values() url.Values {
	v := url.Values{}
	setInt(v, "subject_id", q.SubjectID)
	setInt(v, "program_id", q.ProgramID)
	setInt(v, "institution_id", q.InstitutionID)
	setString(v, "type", q.Type)
	setString(v, "level", q.Level)
	setInt(v, "page", int64(q.Page))
	setInt(v, "per_page", int64(q.PerPage))
	return v
}

// Documents lists approved documents.
func (c *Client) Documents(ctx context.Context, q DocumentQuery) (*models.DocumentPage, error) {
	v, err := get[models.DocumentPage](ctx, c, "/documents", q.Values())
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SearchQuery is a full-text query. Text is required by the server.
type SearchQuery struct {
	Text    string
	Type    string
	Page    int
	PerPage int
}

// Values encodes q as query parameters.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	v.Set("q", q.Text)
	setString(v, "type", q.Type)
	setInt(v, "page", int64(q.Page))
	setInt(v, "per_page", int64(q.PerPage))
	return v
}

// Search runs a full-text search.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*models.DocumentPage, error) {
	v, err := get[models.DocumentPage](ctx, c, "/search", q.Values())
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Document returns one document.
func (c *Client) Document(ctx context.Context, id int64) (*models.Document, error) {
	v, err := get[models.Document](ctx, c, idPath("/documents", id), nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UploadRequest is a new document with its file content.
type UploadRequest struct {
	Title        string
	Description  string
	Type         string
	AcademicYear string
	SubjectID    int64
	FileName     string
	Content      io.Reader
}

// UploadDocument sends req as multipart/form-data with the file in the
// "file" part.
func (c *Client) UploadDocument(ctx context.Context, req UploadRequest) (*models.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", req.Title},
		{"description", req.Description},
		{"type", req.Type},
		{"academic_year", req.AcademicYear},
		{"subject_id", strconv.FormatInt(req.SubjectID, 10)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	part, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var out models.Document
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/documents",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDocument deletes a document the caller authored (or any, for admins).
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: idPath("/documents", id)}, nil)
}

// RateDocument records a 1..5 score.
func (c *Client) RateDocument(ctx context.Context, id int64, score int) (*models.RatingResult, error) {
	r, err := jsonRequest(http.MethodPost, idPath("/documents", id)+"/rate", models.RateRequest{Score: score})
	if err != nil {
		return nil, err
	}
	var out models.RatingResult
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadURL returns the absolute download link of a document.
func (c *Client) DownloadURL(id int64) string {
	return c.endpoint(idPath("/documents", id)+"/download", nil)
}

// Download streams a document's file into w and returns the file name
// announced by the server.
func (c *Client) Download(ctx context.Context, id int64, w io.Writer) (string, int64, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: idPath("/documents", id) + "/download"})
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return name, n, fmt.Errorf("read download: %w", err)
	}
	return name, n, nil
}

// Stats returns platform-wide counts.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	v, err := get[models.Stats](ctx, c, "/stats", nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
