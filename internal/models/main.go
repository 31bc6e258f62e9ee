// Package models defines the core data structures shared by the UniDocs
// server and client: the academic catalog, users, documents and ratings.
package models

import "time"

// Institution is a university with a short code and a full name.
type Institution struct {
	// ID is the unique identifier for the institution.
	ID int64 `json:"id" db:"id"`
	// Name is the full name of the institution.
	Name string `json:"name" db:"name"`
	// Code is the short unique code (e.g. "UCAD").
	Code string `json:"code" db:"code"`
	// City where the institution is located.
	City string `json:"city" db:"city"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// Programs is filled only by detail lookups.
	Programs []Program `json:"programs,omitempty" db:"-"`
}

// Program is a field of study offered by an institution.
type Program struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	InstitutionID int64     `json:"institution_id" db:"institution_id"`
	Institution   string    `json:"institution" db:"institution"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	// Subjects is filled only by detail lookups.
	Subjects []Subject `json:"subjects,omitempty" db:"-"`
}

// Subject is a course within a program at a given level; the leaf
// classification for a document.
type Subject struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ProgramID int64     `json:"program_id" db:"program_id"`
	Program   string    `json:"program" db:"program"`
	Level     string    `json:"level" db:"level"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// Documents is filled only by detail lookups.
	Documents []Document `json:"documents,omitempty" db:"-"`
}

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id" db:"id"`
	// Name is the family name.
	Name string `json:"name" db:"name"`
	// Surname is the given name.
	Surname string `json:"surname" db:"surname"`
	// Email is the unique login.
	Email string `json:"email" db:"email"`
	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string `json:"-" db:"password_hash"`
	// Role is one of RoleStudent, RoleDelegate, RoleAdmin.
	Role string `json:"role" db:"role"`
	// InstitutionID references the user's institution, if any.
	InstitutionID *int64 `json:"institution_id,omitempty" db:"institution_id"`
	// ProgramID references the user's program, if any.
	ProgramID *int64 `json:"program_id,omitempty" db:"program_id"`
	// Level is the user's academic level, if any.
	Level *string `json:"level,omitempty" db:"level"`
	// CreatedAt is the registration timestamp.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullName returns "Surname Name".
func (u User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Surname + " " + u.Name
}

// Document is an uploaded file with its classification and counters.
type Document struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Type         string    `json:"type" db:"type"`
	FileName     string    `json:"file_name" db:"file_name"`
	StorageName  string    `json:"-" db:"storage_name"`
	Size         int64     `json:"size" db:"size"`
	Format       string    `json:"format" db:"format"`
	MIME         string    `json:"mime" db:"mime"`
	AcademicYear string    `json:"academic_year" db:"academic_year"`
	SubjectID    int64     `json:"subject_id" db:"subject_id"`
	Subject      string    `json:"subject" db:"subject"`
	AuthorID     int64     `json:"author_id" db:"author_id"`
	Author       string    `json:"author" db:"author"`
	Downloads    int64     `json:"downloads" db:"downloads"`
	Rating       float64   `json:"average_rating" db:"average_rating"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Rating is one user's score for one document.
type Rating struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Score      int       `json:"score" db:"score"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// RatingResult is returned after a rating is recorded.
type RatingResult struct {
	Average float64 `json:"average_rating"`
	Rating  Rating  `json:"rating"`
}

// DocumentPage is one page of a document listing or search.
type DocumentPage struct {
	Documents []Document `json:"documents"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	Pages     int        `json:"pages"`
	PerPage   int        `json:"per_page"`
}

// Stats holds platform-wide aggregate counts.
type Stats struct {
	Institutions int64 `json:"institutions"`
	Programs     int64 `json:"programs"`
	Subjects     int64 `json:"subjects"`
	Documents    int64 `json:"documents"`
	Users        int64 `json:"users"`
}

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Roles.
const (
	RoleStudent  = "student"
	RoleDelegate = "delegate"
	RoleAdmin    = "admin"
)

// DocumentType defines the set of valid document type identifiers.
type DocumentType string

const (
	// Lecture represents course notes.
	Lecture DocumentType = "cours"
	// Exam represents a past exam paper.
	Exam DocumentType = "examen"
	// Tutorial represents a tutorial worksheet (TD).
	Tutorial DocumentType = "td"
	// Lab represents a practical/lab worksheet (TP).
	Lab DocumentType = "tp"
	// Presentation represents a student presentation.
	Presentation DocumentType = "expose"
)

// DocumentTypes lists every valid document type in display order.
var DocumentTypes = []DocumentType{Lecture, Exam, Tutorial, Lab, Presentation}

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t string) bool {
	for _, dt := range DocumentTypes {
		if string(dt) == t {
			return true
		}
	}
	return false
}

// Levels lists the academic year tiers.
var Levels = []string{"L1", "L2", "L3", "M1", "M2"}

// Document statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusDeleted  = "deleted"
)
