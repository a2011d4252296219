package patient

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/seanrito/patients-backend/internal/domain"
)

var requiredImportColumns = []string{"DocumentType", "DocumentNumber", "FirstName", "LastName", "BirthDate"}

// ImportCSV creates one patient per CSV row through Create, so validation,
// duplicate detection and auditing apply to every row. The header names the
// columns; the export header is accepted as is and a PhoneNumber column is
// also recognized. Rows whose document identity already exists are skipped;
// invalid rows are reported and do not stop the import.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (result *ImportResult, err error) {
	defer func(start time.Time) { s.observe(ctx, opImport, start, err) }(time.Now())

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty import file: %w", domain.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("read import header: %w", err)
	}

	cols, err := importColumns(header)
	if err != nil {
		return nil, err
	}

	result = &ImportResult{}
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return result, fmt.Errorf("read import row: %w", readErr)
		}
		line, _ := reader.FieldPos(0)

		input, rowErr := cols.input(record)
		if rowErr != nil {
			result.Errors = append(result.Errors, ImportError{LineNumber: line, Reason: rowErr.Error()})
			continue
		}

		_, createErr := s.Create(ctx, input)
		switch {
		case createErr == nil:
			result.Imported++
		case errors.Is(createErr, domain.ErrAlreadyExists):
			result.Skipped++
		case errors.Is(createErr, domain.ErrValidation):
			result.Errors = append(result.Errors, ImportError{LineNumber: line, Reason: createErr.Error()})
		default:
			return result, fmt.Errorf("import line %d: %w", line, createErr)
		}
	}

	s.log.InfoContext(ctx, "patients imported",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// columnIndex maps a lowercased header name to its position.
type columnIndex map[string]int

func importColumns(header []string) (columnIndex, error) {
	cols := columnIndex{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredImportColumns {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("import header is missing %s: %w", strings.Join(missing, ", "), domain.ErrInvalidArgument)
	}
	return cols, nil
}

func (c columnIndex) get(record []string, name string) string {
	i, ok := c[strings.ToLower(name)]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (c columnIndex) optional(record []string, name string) *string {
	v := c.get(record, name)
	return &v
}

func (c columnIndex) input(record []string) (CreateInput, error) {
	birth := strings.TrimSpace(c.get(record, "BirthDate"))
	var birthDate time.Time
	if birth != "" {
		parsed, err := time.Parse(dateLayout, birth)
		if err != nil {
			return CreateInput{}, fmt.Errorf("birthDate %q is not a yyyy-MM-dd date", birth)
		}
		birthDate = parsed
	}

	return CreateInput{
		DocumentType:   c.get(record, "DocumentType"),
		DocumentNumber: c.get(record, "DocumentNumber"),
		FirstName:      c.get(record, "FirstName"),
		LastName:       c.get(record, "LastName"),
		BirthDate:      birthDate,
		PhoneNumber:    c.optional(record, "PhoneNumber"),
		Email:          c.optional(record, "Email"),
	}, nil
}
