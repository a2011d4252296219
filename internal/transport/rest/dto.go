package rest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
	patientsvc "github.com/seanrito/patients-backend/internal/service/patient"
)

const dateLayout = "2006-01-02"

// PatientResponse is the JSON shape of a patient.
type PatientResponse struct {
	ID             int64     `json:"id"`
	DocumentType   string    `json:"documentType"`
	DocumentNumber string    `json:"documentNumber"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	BirthDate      string    `json:"birthDate"`
	PhoneNumber    *string   `json:"phoneNumber,omitempty"`
	Email          *string   `json:"email,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	RowVersion     []byte    `json:"rowVersion"`
}

// PatientRequest is the body of create and update requests. RowVersion is
// read on update only.
type PatientRequest struct {
	DocumentType   string  `json:"documentType"`
	DocumentNumber string  `json:"documentNumber"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	BirthDate      string  `json:"birthDate"`
	PhoneNumber    *string `json:"phoneNumber"`
	Email          *string `json:"email"`
	RowVersion     []byte  `json:"rowVersion"`
}

// PagedResponse is one page of a listing.
type PagedResponse struct {
	Items      []PatientResponse `json:"items"`
	TotalCount int               `json:"totalCount"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// AuditEntryResponse is the JSON shape of an audit entry.
type AuditEntryResponse struct {
	ID        int64           `json:"id"`
	Entity    string          `json:"entity"`
	EntityID  int64           `json:"entityId"`
	Action    string          `json:"action"`
	Username  string          `json:"username"`
	CreatedAt time.Time       `json:"createdAt"`
	Changes   json.RawMessage `json:"changes,omitempty"`
}

func toPatientResponse(p *domain.Patient) PatientResponse {
	return PatientResponse{
		ID:             p.ID,
		DocumentType:   p.DocumentType,
		DocumentNumber: p.DocumentNumber,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		BirthDate:      p.BirthDate.Format(dateLayout),
		PhoneNumber:    p.PhoneNumber,
		Email:          p.Email,
		CreatedAt:      p.CreatedAt.UTC(),
		RowVersion:     p.RowVersion,
	}
}

func toPagedResponse(res *patientsvc.PagedResult) PagedResponse {
	items := make([]PatientResponse, len(res.Items))
	for i := range res.Items {
		items[i] = toPatientResponse(&res.Items[i])
	}
	return PagedResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
}

func toAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			ID:        e.ID,
			Entity:    e.Entity.String(),
			EntityID:  e.EntityID,
			Action:    e.Action.String(),
			Username:  e.Username,
			CreatedAt: e.CreatedAt.UTC(),
			Changes:   e.Changes,
		}
	}
	return out
}

// birthDate parses the request date. An empty value is left to service
// validation as a missing field.
func (req PatientRequest) birthDate() (time.Time, error) {
	s := strings.TrimSpace(req.BirthDate)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError("birthDate", "must be a date in yyyy-MM-dd format")
	}
	return t, nil
}

func (req PatientRequest) toCreateInput() (patientsvc.CreateInput, error) {
	birth, err := req.birthDate()
	if err != nil {
		return patientsvc.CreateInput{}, err
	}
	return patientsvc.CreateInput{
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		BirthDate:      birth,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
	}, nil
}

func (req PatientRequest) toUpdateInput(id int64) (patientsvc.UpdateInput, error) {
	birth, err := req.birthDate()
	if err != nil {
		return patientsvc.UpdateInput{}, err
	}
	return patientsvc.UpdateInput{
		ID:             id,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		BirthDate:      birth,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		RowVersion:     req.RowVersion,
	}, nil
}

// parseTimeParam accepts yyyy-MM-dd or RFC 3339. A date-only value used as an
// upper bound extends to the last microsecond of that day.
func parseTimeParam(name, value string, upper bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%s must be yyyy-MM-dd or RFC 3339, got %q: %w", name, value, domain.ErrInvalidArgument)
	}
	return &t, nil
}
