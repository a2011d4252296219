package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

// Get returns a patient by id.
func (s *Service) Get(ctx context.Context, id int64) (p *domain.Patient, err error) {
	defer func(start time.Time) { s.observe(ctx, opGet, start, err) }(time.Now())

	p, err = s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}
