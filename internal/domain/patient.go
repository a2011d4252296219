package domain

import (
	"bytes"
	"math"
	"time"
)

// Patient is a clinical patient record. The (DocumentType, DocumentNumber)
// pair is unique across all records.
type Patient struct {
	ID             int64
	DocumentType   string
	DocumentNumber string
	FirstName      string
	LastName       string
	BirthDate      time.Time
	PhoneNumber    *string
	Email          *string
	CreatedAt      time.Time

	// RowVersion is an opaque token replaced by the store on every write.
	RowVersion []byte
}

// VersionMatches reports whether expected is absent or byte-equal to the
// record's current version token. An empty token counts as absent.
func (p *Patient) VersionMatches(expected []byte) bool {
	if len(expected) == 0 {
		return true
	}
	return bytes.Equal(expected, p.RowVersion)
}

// PatientFilter narrows a patient listing or export. Nil fields do not filter.
type PatientFilter struct {
	// Name is matched as a substring of first name OR last name.
	Name           *string
	DocumentNumber *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// PatientQuery is a normalized listing request.
type PatientQuery struct {
	Filter     PatientFilter
	SortBy     SortField
	Descending bool
	Page       int
	PageSize   int
}

// Offset returns the number of rows skipped before the page. It saturates at
// math.MaxInt instead of overflowing, so a far-away page is simply empty.
func (q PatientQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}
