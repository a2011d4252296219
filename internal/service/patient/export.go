package patient

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

const (
	exportTimestampLayout = "2006-01-02 15:04:05"
	exportFileLayout      = "20060102_150405"
)

var exportHeader = []string{
	"DocumentType", "DocumentNumber", "FirstName", "LastName", "Email", "BirthDate", "CreatedAt",
}

// Export renders the patients matching the input filter as CSV, newest
// first. CreatedFrom is required. An empty match is domain.ErrNotFound and a
// match larger than the configured row cap is domain.ErrInvalidArgument.
func (s *Service) Export(ctx context.Context, input ExportInput) (result *ExportResult, err error) {
	defer func(start time.Time) { s.observe(ctx, opExport, start, err) }(time.Now())

	if input.CreatedFrom == nil {
		return nil, fmt.Errorf("createdFrom is required: %w", domain.ErrInvalidArgument)
	}

	limit := 0
	if s.cfg.ExportMaxRows > 0 {
		limit = s.cfg.ExportMaxRows + 1
	}

	qctx, cancel := withTimeout(ctx, s.cfg.ExportTimeout)
	defer cancel()

	patients, err := s.patients.FindForExport(qctx, input.filter(), limit)
	if err != nil {
		return nil, timeoutErr("export patients", err)
	}
	if len(patients) == 0 {
		return nil, fmt.Errorf("no patients match the export filter: %w", domain.ErrNotFound)
	}
	if s.cfg.ExportMaxRows > 0 && len(patients) > s.cfg.ExportMaxRows {
		return nil, fmt.Errorf("export exceeds %d rows, narrow the filter: %w", s.cfg.ExportMaxRows, domain.ErrInvalidArgument)
	}

	now := s.now().UTC()
	result = &ExportResult{
		Content:  renderCSV(patients),
		FileName: fmt.Sprintf("patients_%s.csv", now.Format(exportFileLayout)),
		Count:    len(patients),
	}

	s.log.InfoContext(ctx, "patients exported", slog.Int("count", result.Count))

	return result, nil
}

// renderCSV writes the header and one line per patient, each line ending in "\n".
func renderCSV(patients []domain.Patient) []byte {
	var buf bytes.Buffer
	writeCSVLine(&buf, exportHeader)
	for i := range patients {
		p := &patients[i]
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		writeCSVLine(&buf, []string{
			p.DocumentType,
			p.DocumentNumber,
			p.FirstName,
			p.LastName,
			email,
			p.BirthDate.Format(dateLayout),
			p.CreatedAt.UTC().Format(exportTimestampLayout),
		})
	}
	return buf.Bytes()
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(escapeCSV(f))
	}
	buf.WriteByte('\n')
}

// escapeCSV quotes a field containing a comma, a double quote or a newline,
// doubling inner quotes. Other fields are written as is.
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
