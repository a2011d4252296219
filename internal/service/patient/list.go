package patient

import (
	"context"
	"time"
)

// List returns one page of patients matching the input filter, sorted and
// paged after normalization. The store call is bounded by the configured
// query timeout.
func (s *Service) List(ctx context.Context, input ListInput) (result *PagedResult, err error) {
	defer func(start time.Time) { s.observe(ctx, opList, start, err) }(time.Now())

	q := input.query(s.cfg)

	qctx, cancel := withTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	items, total, err := s.patients.Find(qctx, q)
	if err != nil {
		return nil, timeoutErr("list patients", err)
	}

	return newPagedResult(items, total, q.Page, q.PageSize), nil
}
