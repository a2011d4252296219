package patient

import "github.com/seanrito/patients-backend/internal/domain"

// PagedResult is one page of a patient listing.
type PagedResult struct {
	Items      []domain.Patient
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

func newPagedResult(items []domain.Patient, total, page, pageSize int) *PagedResult {
	if items == nil {
		items = []domain.Patient{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &PagedResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// ExportResult holds a rendered CSV export.
type ExportResult struct {
	Content  []byte
	FileName string
	Count    int
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportError describes a row that could not be imported.
type ImportError struct {
	LineNumber int
	Reason     string
}
