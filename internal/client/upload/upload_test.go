package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/unidocs/internal/client/api"
	"github.com/atinyakov/unidocs/internal/client/nav"
	"github.com/atinyakov/unidocs/internal/models"
)

func TestApply_Cascade(t *testing.T) {
	d := Draft{InstitutionID: 1, ProgramID: 2, Level: "L1", SubjectID: 3, Title: "t"}

	tests := []struct {
		name   string
		change Change
		want   Draft
	}{
		{
			name:   "institution clears program and subject",
			change: Select(FieldInstitution, 5),
			want:   Draft{InstitutionID: 5, Level: "L1", Title: "t"},
		},
		{
			name:   "program clears subject",
			change: Select(FieldProgram, 8),
			want:   Draft{InstitutionID: 1, ProgramID: 8, Level: "L1", Title: "t"},
		},
		{
			name:   "level clears subject",
			change: Set(FieldLevel, "M2"),
			want:   Draft{InstitutionID: 1, ProgramID: 2, Level: "M2", Title: "t"},
		},
		{
			name:   "subject keeps the rest",
			change: Select(FieldSubject, 9),
			want:   Draft{InstitutionID: 1, ProgramID: 2, Level: "L1", SubjectID: 9, Title: "t"},
		},
		{
			name:   "text field",
			change: Set(FieldTitle, "Partiel"),
			want:   Draft{InstitutionID: 1, ProgramID: 2, Level: "L1", SubjectID: 3, Title: "Partiel"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(d, tt.change)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_DisabledFields(t *testing.T) {
	_, err := Apply(Draft{}, Select(FieldProgram, 1))
	assert.ErrorIs(t, err, ErrFieldDisabled)

	d := Draft{InstitutionID: 1, Title: "keep"}
	got, err := Apply(d, Select(FieldSubject, 1))
	assert.ErrorIs(t, err, ErrFieldDisabled)
	assert.Equal(t, d, got)

	_, err = Apply(d, Change{Field: "colour"})
	assert.Error(t, err)
}

func TestValidateFile(t *testing.T) {
	assert.NoError(t, ValidateFile("report.pdf", 1024))
	assert.NoError(t, ValidateFile("SLIDES.PPTX", DefaultMaxBytes))

	var verr *ValidationError
	require.ErrorAs(t, ValidateFile("report.exe", 10), &verr)
	assert.Equal(t, FieldFile, verr.Field)
	require.ErrorAs(t, ValidateFile("noext", 10), &verr)
	require.ErrorAs(t, ValidateFile("big.pdf", DefaultMaxBytes+1), &verr)
	assert.Contains(t, verr.Message, "16 MiB")
}

type fakeClient struct {
	form    *Form
	events  []string
	drafts  []Draft
	uploads []api.UploadRequest
	err     error
}

func (c *fakeClient) Institutions(ctx context.Context) ([]models.Institution, error) {
	c.events = append(c.events, "institutions")
	return []models.Institution{{ID: 1, Name: "X"}, {ID: 2, Name: "Y"}}, nil
}

func (c *fakeClient) Programs(ctx context.Context, institutionID int64) ([]models.Program, error) {
	c.events = append(c.events, "programs")
	c.drafts = append(c.drafts, c.form.Draft())
	return []models.Program{{ID: institutionID * 10, InstitutionID: institutionID}}, nil
}

func (c *fakeClient) Subjects(ctx context.Context, programID int64, level string) ([]models.Subject, error) {
	c.events = append(c.events, "subjects")
	c.drafts = append(c.drafts, c.form.Draft())
	return []models.Subject{{ID: programID * 10, ProgramID: programID, Level: level}}, nil
}

func (c *fakeClient) UploadDocument(ctx context.Context, req api.UploadRequest) (*models.Document, error) {
	c.events = append(c.events, "upload")
	if c.err != nil {
		return nil, c.err
	}
	c.uploads = append(c.uploads, req)
	return &models.Document{ID: 77, Title: req.Title}, nil
}

func newForm(t *testing.T) (*Form, *fakeClient, *nav.Router) {
	t.Helper()
	c := &fakeClient{}
	router := nav.NewRouter("/upload")
	f := NewForm(c, router, 0)
	c.form = f
	require.NoError(t, f.Load(context.Background()))
	return f, c, router
}

func TestForm_InstitutionSwitchResetsBeforeFetch(t *testing.T) {
	f, c, _ := newForm(t)
	ctx := context.Background()

	require.NoError(t, f.Change(ctx, Select(FieldInstitution, 1)))
	require.NoError(t, f.Change(ctx, Select(FieldProgram, 10)))
	require.NoError(t, f.Change(ctx, Select(FieldSubject, 100)))
	require.Len(t, f.Options().Subjects, 1)

	c.drafts = nil
	require.NoError(t, f.Change(ctx, Select(FieldInstitution, 2)))

	// The program fetch for Y already sees the reset draft.
	require.Len(t, c.drafts, 1)
	assert.Equal(t, Draft{InstitutionID: 2}, c.drafts[0])
	assert.Nil(t, f.Options().Subjects)
	assert.Equal(t, int64(20), f.Options().Programs[0].ID)

	require.NoError(t, f.Change(ctx, Select(FieldProgram, 20)))
	assert.Equal(t, Draft{InstitutionID: 2, ProgramID: 20}, c.drafts[1])
	assert.Equal(t, []string{"institutions", "programs", "subjects", "programs", "subjects"}, c.events)
}

func TestForm_DisabledChangeDoesNotFetch(t *testing.T) {
	f, c, _ := newForm(t)
	err := f.Change(context.Background(), Select(FieldSubject, 3))
	assert.ErrorIs(t, err, ErrFieldDisabled)
	assert.Equal(t, []string{"institutions"}, c.events)
}

func TestForm_StageRejectsWithoutNetwork(t *testing.T) {
	f, c, _ := newForm(t)

	err := f.Stage("report.exe", 10, strings.NewReader("MZ"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, f.File())

	require.NoError(t, f.Stage("report.pdf", 10, strings.NewReader("%PDF")))
	assert.Equal(t, "report.pdf", f.File().Name)
	assert.Equal(t, []string{"institutions"}, c.events)
}

func TestForm_SubmitValidation(t *testing.T) {
	f, c, _ := newForm(t)
	ctx := context.Background()

	_, err := f.Submit(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldFile, verr.Field)

	require.NoError(t, f.Stage("notes.pdf", 4, strings.NewReader("%PDF")))
	_, err = f.Submit(ctx)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldSubject, verr.Field)

	require.NoError(t, f.Change(ctx, Select(FieldInstitution, 1)))
	require.NoError(t, f.Change(ctx, Select(FieldProgram, 10)))
	require.NoError(t, f.Change(ctx, Select(FieldSubject, 100)))
	require.NoError(t, f.Change(ctx, Set(FieldTitle, "Notes")))
	require.NoError(t, f.Change(ctx, Set(FieldType, "memoire")))
	_, err = f.Submit(ctx)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldType, verr.Field)

	assert.NotContains(t, c.events, "upload")
}

func TestForm_SubmitNavigates(t *testing.T) {
	f, c, router := newForm(t)
	ctx := context.Background()

	for _, ch := range []Change{
		Select(FieldInstitution, 1),
		Select(FieldProgram, 10),
		Select(FieldSubject, 100),
		Set(FieldTitle, "Examen 2023"),
		Set(FieldType, "examen"),
		Set(FieldAcademicYear, "2023-2024"),
	} {
		require.NoError(t, f.Change(ctx, ch))
	}
	require.NoError(t, f.Stage("exam.pdf", 4, strings.NewReader("%PDF")))

	doc, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(77), doc.ID)
	assert.Equal(t, "/documents/77", router.Path())
	assert.Nil(t, f.File())

	require.Len(t, c.uploads, 1)
	up := c.uploads[0]
	assert.Equal(t, int64(100), up.SubjectID)
	assert.Equal(t, "exam.pdf", up.FileName)
	body, _ := io.ReadAll(up.Content)
	assert.Equal(t, "%PDF", string(body))
}

func TestForm_SubmitServerErrorKeepsFile(t *testing.T) {
	f, c, router := newForm(t)
	ctx := context.Background()
	c.err = errors.New("413 file too large")

	for _, ch := range []Change{
		Select(FieldInstitution, 1),
		Select(FieldProgram, 10),
		Select(FieldSubject, 100),
		Set(FieldTitle, "T"),
		Set(FieldType, "td"),
	} {
		require.NoError(t, f.Change(ctx, ch))
	}
	require.NoError(t, f.Stage("td.docx", 4, strings.NewReader("PK")))

	_, err := f.Submit(ctx)
	assert.ErrorIs(t, err, c.err)
	assert.NotNil(t, f.File())
	assert.Equal(t, "/upload", router.Path())
}

func TestForm_RetryAfterServerErrorResendsWholeFile(t *testing.T) {
	var (
		mu       sync.Mutex
		received []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/programs":
			_, _ = w.Write([]byte(`[{"id":10,"name":"Informatique","institution_id":1}]`))
		case "/api/subjects":
			_, _ = w.Write([]byte(`[{"id":100,"name":"Algorithmique","program_id":10}]`))
		case "/api/documents":
			file, _, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body, _ := io.ReadAll(file)
			file.Close()

			mu.Lock()
			received = append(received, string(body))
			attempt := len(received)
			mu.Unlock()

			if attempt == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"boom"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":5,"title":"Notes"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := api.New(srv.URL, nil, api.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	router := nav.NewRouter("/upload")
	f := NewForm(client, router, 0)
	ctx := context.Background()

	for _, ch := range []Change{
		Select(FieldInstitution, 1),
		Select(FieldProgram, 10),
		Select(FieldSubject, 100),
		Set(FieldTitle, "Notes"),
		Set(FieldType, "cours"),
	} {
		require.NoError(t, f.Change(ctx, ch))
	}
	const content = "%PDF-1.4 ok"
	require.NoError(t, f.Stage("a.pdf", int64(len(content)), strings.NewReader(content)))

	_, err = f.Submit(ctx)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.NotNil(t, f.File())

	doc, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc.ID)
	assert.Equal(t, "/documents/5", router.Path())
	assert.Equal(t, []string{content, content}, received)
}

type unseekable struct{ io.Reader }

func (unseekable) Seek(int64, int) (int64, error) {
	return 0, errors.New("not seekable")
}

func TestForm_SubmitRewindError(t *testing.T) {
	f, c, _ := newForm(t)
	ctx := context.Background()
	for _, ch := range []Change{
		Select(FieldInstitution, 1),
		Select(FieldProgram, 10),
		Select(FieldSubject, 100),
		Set(FieldTitle, "T"),
		Set(FieldType, "tp"),
	} {
		require.NoError(t, f.Change(ctx, ch))
	}
	require.NoError(t, f.Stage("tp.pdf", 2, unseekable{strings.NewReader("ok")}))

	_, err := f.Submit(ctx)
	assert.ErrorContains(t, err, "rewind tp.pdf")
	assert.NotContains(t, c.events, "upload")
}
