package patient

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/seanrito/patients-backend/internal/adapter/postgres"
	"github.com/seanrito/patients-backend/internal/domain"
)

// applyFilter adds the WHERE predicates shared by listing, counting and export.
// The name predicate matches first OR last name; bounds on created_at are inclusive.
func applyFilter(b sq.SelectBuilder, f domain.PatientFilter, match domain.NameMatch) sq.SelectBuilder {
	if f.Name != nil && *f.Name != "" {
		pattern := postgres.ContainsPattern(*f.Name)
		if match == domain.NameMatchInsensitive {
			b = b.Where(sq.Or{
				sq.ILike{"first_name": pattern},
				sq.ILike{"last_name": pattern},
			})
		} else {
			b = b.Where(sq.Or{
				sq.Like{"first_name": pattern},
				sq.Like{"last_name": pattern},
			})
		}
	}

	if f.DocumentNumber != nil && *f.DocumentNumber != "" {
		b = b.Where(sq.Eq{"document_number": *f.DocumentNumber})
	}

	if f.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *f.CreatedFrom})
	}

	if f.CreatedTo != nil {
		b = b.Where(sq.LtOrEq{"created_at": *f.CreatedTo})
	}

	return b
}

// orderBy returns ORDER BY terms for a listing. Unknown fields order by
// patient_id ascending regardless of direction; other fields use patient_id
// as a tiebreaker so pages never overlap.
func orderBy(field domain.SortField, desc bool) []string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	switch field {
	case domain.SortByFirstName:
		return []string{"first_name " + dir, "patient_id ASC"}
	case domain.SortByLastName:
		return []string{"last_name " + dir, "patient_id ASC"}
	case domain.SortByCreatedAt:
		return []string{"created_at " + dir, "patient_id ASC"}
	default:
		return []string{"patient_id ASC"}
	}
}
