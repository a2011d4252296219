package domain

import "strings"

// EntityType identifies the kind of entity referenced by an audit entry.
type EntityType string

const (
	EntityTypePatient EntityType = "Patient"
)

func (e EntityType) String() string { return string(e) }

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate AuditAction = "Create"
	AuditActionUpdate AuditAction = "Update"
	AuditActionDelete AuditAction = "Delete"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete:
		return true
	}
	return false
}

// SortField selects the ordering column for patient listings.
// The zero value orders by surrogate id.
type SortField string

const (
	SortByID        SortField = ""
	SortByFirstName SortField = "firstname"
	SortByLastName  SortField = "lastname"
	SortByCreatedAt SortField = "createdat"
)

// ParseSortField resolves a case-insensitive sort key. Unknown or empty keys
// resolve to SortByID.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByFirstName, SortByLastName, SortByCreatedAt:
		return f
	}
	return SortByID
}

// IsDescending reports whether a sort direction token requests descending
// order. Only "desc" (any case) does.
func IsDescending(dir string) bool {
	return strings.EqualFold(strings.TrimSpace(dir), "desc")
}

// NameMatch controls how the name filter compares text.
type NameMatch string

const (
	NameMatchSensitive   NameMatch = "sensitive"
	NameMatchInsensitive NameMatch = "insensitive"
)

func (m NameMatch) IsValid() bool {
	return m == NameMatchSensitive || m == NameMatchInsensitive
}
