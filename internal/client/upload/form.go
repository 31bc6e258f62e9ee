package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/atinyakov/unidocs/internal/client/api"
	"github.com/atinyakov/unidocs/internal/client/nav"
	"github.com/atinyakov/unidocs/internal/models"
)

// Client is the part of the API client the form uses.
type Client interface {
	Institutions(ctx context.Context) ([]models.Institution, error)
	Programs(ctx context.Context, institutionID int64) ([]models.Program, error)
	Subjects(ctx context.Context, programID int64, level string) ([]models.Subject, error)
	UploadDocument(ctx context.Context, req api.UploadRequest) (*models.Document, error)
}

// StagedFile is a file accepted by ValidateFile and waiting for Submit.
// Content is rewound before every attempt so a failed upload can be retried.
type StagedFile struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

// Options are the choices offered by the select fields.
type Options struct {
	Institutions []models.Institution
	Programs     []models.Program
	Subjects     []models.Subject
}

// Form drives the upload view. It is safe for concurrent use.
type Form struct {
	client   Client
	nav      nav.Navigator
	validate *validator.Validate
	maxBytes int64

	mu      sync.Mutex
	draft   Draft
	options Options
	file    *StagedFile
}

// NewForm returns an empty form. maxBytes <= 0 selects DefaultMaxBytes.
func NewForm(client Client, navigator nav.Navigator, maxBytes int64) *Form {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return &Form{client: client, nav: navigator, validate: v, maxBytes: maxBytes}
}

// Draft returns the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Options returns the current option lists.
func (f *Form) Options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.options
}

// File returns the staged file, or nil.
func (f *Form) File() *StagedFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file
}

// Load fetches the institution list.
func (f *Form) Load(ctx context.Context) error {
	list, err := f.client.Institutions(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.options.Institutions = list
	f.mu.Unlock()
	return nil
}

// Change applies c, resets dependent option lists and then reloads them.
func (f *Form) Change(ctx context.Context, c Change) error {
	f.mu.Lock()
	next, err := Apply(f.draft, c)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.draft = next
	switch c.Field {
	case FieldInstitution:
		f.options.Programs = nil
		f.options.Subjects = nil
	case FieldProgram, FieldLevel:
		f.options.Subjects = nil
	}
	f.mu.Unlock()

	switch c.Field {
	case FieldInstitution:
		return f.loadPrograms(ctx, next)
	case FieldProgram, FieldLevel:
		return f.loadSubjects(ctx, next)
	}
	return nil
}

func (f *Form) loadPrograms(ctx context.Context, d Draft) error {
	if !d.ProgramEnabled() {
		return nil
	}
	list, err := f.client.Programs(ctx, d.InstitutionID)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft.InstitutionID == d.InstitutionID {
		f.options.Programs = list
	}
	return nil
}

func (f *Form) loadSubjects(ctx context.Context, d Draft) error {
	if !d.SubjectEnabled() {
		return nil
	}
	list, err := f.client.Subjects(ctx, d.ProgramID, d.Level)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft.ProgramID == d.ProgramID && f.draft.Level == d.Level {
		f.options.Subjects = list
	}
	return nil
}

// Stage validates and keeps a file for Submit. A rejected file leaves the
// staged one untouched.
func (f *Form) Stage(name string, size int64, content io.ReadSeeker) error {
	if err := validateFile(name, size, f.maxBytes); err != nil {
		return err
	}
	f.mu.Lock()
	f.file = &StagedFile{Name: name, Size: size, Content: content}
	f.mu.Unlock()
	return nil
}

// Submit uploads the draft and navigates to the new document. Missing
// fields fail locally with a *ValidationError.
func (f *Form) Submit(ctx context.Context) (*models.Document, error) {
	f.mu.Lock()
	d, file := f.draft, f.file
	f.mu.Unlock()

	if file == nil {
		return nil, &ValidationError{Field: FieldFile, Message: "please choose a file"}
	}
	if err := f.validate.Struct(d); err != nil {
		return nil, fieldError(err)
	}
	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", file.Name, err)
	}

	doc, err := f.client.UploadDocument(ctx, api.UploadRequest{
		Title:        d.Title,
		Description:  d.Description,
		Type:         d.Type,
		AcademicYear: d.AcademicYear,
		SubjectID:    d.SubjectID,
		FileName:     file.Name,
		Content:      file.Content,
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.file = nil
	f.mu.Unlock()
	if f.nav != nil {
		f.nav.Navigate(fmt.Sprintf("/documents/%d", doc.ID))
	}
	return doc, nil
}

func fieldError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	field := Field(fe.Field())
	switch fe.Tag() {
	case "oneof":
		return &ValidationError{Field: field, Message: "must be one of " + fe.Param()}
	case "required", "gt":
		if field == FieldSubject {
			return &ValidationError{Field: field, Message: "please choose a subject"}
		}
		return &ValidationError{Field: field, Message: "is required"}
	}
	return &ValidationError{Field: field, Message: fe.Error()}
}
