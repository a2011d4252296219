package patient

import (
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// snapshot is the audit payload written for create and update.
type snapshot struct {
	ID             int64      `json:"id,omitempty"`
	DocumentType   string     `json:"documentType"`
	DocumentNumber string     `json:"documentNumber"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	BirthDate      string     `json:"birthDate"`
	PhoneNumber    *string    `json:"phoneNumber,omitempty"`
	Email          *string    `json:"email,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

func snapshotOf(p *domain.Patient) snapshot {
	s := snapshot{
		ID:             p.ID,
		DocumentType:   p.DocumentType,
		DocumentNumber: p.DocumentNumber,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		BirthDate:      p.BirthDate.Format(dateLayout),
		PhoneNumber:    p.PhoneNumber,
		Email:          p.Email,
	}
	if !p.CreatedAt.IsZero() {
		createdAt := p.CreatedAt.UTC()
		s.CreatedAt = &createdAt
	}
	return s
}
