package patient

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/seanrito/patients-backend/internal/config"
	"github.com/seanrito/patients-backend/internal/domain"
)

// Field limits mirror the column widths of the patients table.
const (
	maxDocumentTypeLen   = 10
	maxDocumentNumberLen = 20
	maxNameLen           = 80
	maxPhoneLen          = 20
	maxEmailLen          = 120
)

// CreateInput holds the parameters for creating a patient.
type CreateInput struct {
	DocumentType   string
	DocumentNumber string
	FirstName      string
	LastName       string
	BirthDate      time.Time
	PhoneNumber    *string
	Email          *string
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate(now time.Time) error {
	return i.fields().validate(now)
}

func (i CreateInput) fields() patientFields {
	return patientFields(i)
}

// UpdateInput holds the parameters for replacing a patient's fields.
// RowVersion is the token the caller last observed; nil skips the check.
type UpdateInput struct {
	ID             int64
	DocumentType   string
	DocumentNumber string
	FirstName      string
	LastName       string
	BirthDate      time.Time
	PhoneNumber    *string
	Email          *string
	RowVersion     []byte
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate(now time.Time) error {
	var errs []domain.FieldError
	if i.ID <= 0 {
		errs = append(errs, domain.FieldError{Field: "id", Message: "must be positive"})
	}
	if err := i.fields().validate(now); err != nil {
		errs = append(errs, err.(*domain.ValidationError).Errors...)
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func (i UpdateInput) fields() patientFields {
	return patientFields{
		DocumentType:   i.DocumentType,
		DocumentNumber: i.DocumentNumber,
		FirstName:      i.FirstName,
		LastName:       i.LastName,
		BirthDate:      i.BirthDate,
		PhoneNumber:    i.PhoneNumber,
		Email:          i.Email,
	}
}

// patientFields is the writable field set shared by create and update.
type patientFields struct {
	DocumentType   string
	DocumentNumber string
	FirstName      string
	LastName       string
	BirthDate      time.Time
	PhoneNumber    *string
	Email          *string
}

// validate returns a *domain.ValidationError or nil.
func (f patientFields) validate(now time.Time) error {
	var errs []domain.FieldError

	errs = appendText(errs, "documentType", f.DocumentType, maxDocumentTypeLen)
	errs = appendText(errs, "documentNumber", f.DocumentNumber, maxDocumentNumberLen)
	errs = appendText(errs, "firstName", f.FirstName, maxNameLen)
	errs = appendText(errs, "lastName", f.LastName, maxNameLen)

	switch {
	case f.BirthDate.IsZero():
		errs = append(errs, domain.FieldError{Field: "birthDate", Message: "required"})
	case dateOf(f.BirthDate).After(dateOf(now)):
		errs = append(errs, domain.FieldError{Field: "birthDate", Message: "must not be in the future"})
	}

	if phone := trimOrNil(f.PhoneNumber); phone != nil && utf8.RuneCountInString(*phone) > maxPhoneLen {
		errs = append(errs, domain.FieldError{Field: "phoneNumber", Message: fmt.Sprintf("max %d characters", maxPhoneLen)})
	}

	if email := trimOrNil(f.Email); email != nil {
		if utf8.RuneCountInString(*email) > maxEmailLen {
			errs = append(errs, domain.FieldError{Field: "email", Message: fmt.Sprintf("max %d characters", maxEmailLen)})
		}
		if !validEmail(*email) {
			errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email format"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// patient returns the normalized record the fields describe.
func (f patientFields) patient() *domain.Patient {
	return &domain.Patient{
		DocumentType:   strings.TrimSpace(f.DocumentType),
		DocumentNumber: strings.TrimSpace(f.DocumentNumber),
		FirstName:      strings.TrimSpace(f.FirstName),
		LastName:       strings.TrimSpace(f.LastName),
		BirthDate:      dateOf(f.BirthDate),
		PhoneNumber:    trimOrNil(f.PhoneNumber),
		Email:          trimOrNil(f.Email),
	}
}

func appendText(errs []domain.FieldError, field, value string, limit int) []domain.FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return append(errs, domain.FieldError{Field: field, Message: "required"})
	}
	if utf8.RuneCountInString(v) > limit {
		return append(errs, domain.FieldError{Field: field, Message: fmt.Sprintf("max %d characters", limit)})
	}
	return errs
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ListInput holds raw listing parameters before normalization.
type ListInput struct {
	Name           *string
	DocumentNumber *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	SortBy         string
	SortDir        string
	Page           int
	PageSize       int
}

// query normalizes the paging and sort parameters against cfg.
func (i ListInput) query(cfg config.PatientsConfig) domain.PatientQuery {
	page := i.Page
	if page <= 0 {
		page = 1
	}

	size := i.PageSize
	switch {
	case size <= 0:
		size = cfg.DefaultPageSize
	case cfg.MaxPageSize > 0 && size > cfg.MaxPageSize:
		size = cfg.MaxPageSize
	}

	return domain.PatientQuery{
		Filter: domain.PatientFilter{
			Name:           substringOrNil(i.Name),
			DocumentNumber: trimOrNil(i.DocumentNumber),
			CreatedFrom:    i.CreatedFrom,
			CreatedTo:      i.CreatedTo,
		},
		SortBy:     domain.ParseSortField(i.SortBy),
		Descending: domain.IsDescending(i.SortDir),
		Page:       page,
		PageSize:   size,
	}
}

// ExportInput holds the export filter. CreatedFrom is mandatory.
type ExportInput struct {
	Name           *string
	DocumentNumber *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

func (i ExportInput) filter() domain.PatientFilter {
	return domain.PatientFilter{
		Name:           substringOrNil(i.Name),
		DocumentNumber: trimOrNil(i.DocumentNumber),
		CreatedFrom:    i.CreatedFrom,
		CreatedTo:      i.CreatedTo,
	}
}

// substringOrNil keeps a name filter as typed, surrounding spaces included.
// Returns nil if it is blank.
func substringOrNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// dateOf drops the clock part of t, keeping its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
