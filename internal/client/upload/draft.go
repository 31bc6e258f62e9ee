// Package upload models the document upload form: a draft edited through
// a single reducer, local file checks and the final multipart submit.
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrFieldDisabled is returned when a field is edited before its parent
// is chosen.
var ErrFieldDisabled = errors.New("upload: field is disabled")

// Field names a draft field.
type Field string

const (
	FieldInstitution  Field = "institution"
	FieldProgram      Field = "program"
	FieldLevel        Field = "level"
	FieldSubject      Field = "subject"
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldType         Field = "type"
	FieldAcademicYear Field = "academic_year"
	FieldFile         Field = "file"
)

// Draft is the form content before submission.
type Draft struct {
	InstitutionID int64
	ProgramID     int64
	Level         string
	SubjectID     int64 `validate:"required,gt=0" form:"subject"`
	Title         string `validate:"required" form:"title"`
	Description   string
	Type          string `validate:"required,oneof=cours examen td tp expose" form:"type"`
	AcademicYear  string
}

// ProgramEnabled reports whether a program can be chosen.
func (d Draft) ProgramEnabled() bool { return d.InstitutionID > 0 }

// SubjectEnabled reports whether a subject can be chosen.
func (d Draft) SubjectEnabled() bool { return d.ProgramID > 0 }

// Change is one edit. ID carries catalog selections, Text everything else.
type Change struct {
	Field Field
	ID    int64
	Text  string
}

// Select returns a change picking a catalog entry.
func Select(f Field, id int64) Change { return Change{Field: f, ID: id} }

// Set returns a change of a text field.
func Set(f Field, text string) Change { return Change{Field: f, Text: text} }

// Apply returns d with c applied. Choosing an institution clears the
// program and subject; choosing a program or level clears the subject.
// On error d is returned unchanged.
func Apply(d Draft, c Change) (Draft, error) {
	switch c.Field {
	case FieldInstitution:
		d.InstitutionID = c.ID
		d.ProgramID = 0
		d.SubjectID = 0
	case FieldProgram:
		if !d.ProgramEnabled() {
			return d, fmt.Errorf("%w: %s", ErrFieldDisabled, c.Field)
		}
		d.ProgramID = c.ID
		d.SubjectID = 0
	case FieldLevel:
		d.Level = c.Text
		d.SubjectID = 0
	case FieldSubject:
		if !d.SubjectEnabled() {
			return d, fmt.Errorf("%w: %s", ErrFieldDisabled, c.Field)
		}
		d.SubjectID = c.ID
	case FieldTitle:
		d.Title = c.Text
	case FieldDescription:
		d.Description = c.Text
	case FieldType:
		d.Type = c.Text
	case FieldAcademicYear:
		d.AcademicYear = c.Text
	default:
		return d, fmt.Errorf("upload: unknown field %q", c.Field)
	}
	return d, nil
}

// ValidationError is a local, field-level rejection. It never involves
// the network.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultMaxBytes is the default file size limit (16 MiB).
const DefaultMaxBytes = 16 << 20

// AllowedExtensions lists accepted file extensions, lower case.
var AllowedExtensions = []string{"pdf", "doc", "docx", "ppt", "pptx", "jpg", "jpeg", "png"}

// ValidateFile checks name and size against the default limits.
func ValidateFile(name string, size int64) error {
	return validateFile(name, size, DefaultMaxBytes)
}

func validateFile(name string, size, maxBytes int64) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationError{
			Field:   FieldFile,
			Message: "file type not allowed, expected one of " + strings.Join(AllowedExtensions, ", "),
		}
	}
	if size > maxBytes {
		return &ValidationError{
			Field:   FieldFile,
			Message: fmt.Sprintf("file is larger than %d MiB", maxBytes>>20),
		}
	}
	return nil
}
