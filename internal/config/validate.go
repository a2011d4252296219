package config

import (
	"fmt"
	"strings"

	"github.com/seanrito/patients-backend/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.Database.MinConns < 0 || c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns must be >= min_conns >= 0 (got %d, %d)", c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database.statement_timeout must be >= 0 (got %v)", c.Database.StatementTimeout)
	}

	if err := c.Patients.validate(); err != nil {
		return fmt.Errorf("patients: %w", err)
	}

	if strings.TrimSpace(c.Audit.DefaultActor) == "" {
		return fmt.Errorf("audit.default_actor must not be empty")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (p *PatientsConfig) validate() error {
	if p.MaxPageSize <= 0 {
		return fmt.Errorf("max_page_size must be > 0 (got %d)", p.MaxPageSize)
	}
	if p.DefaultPageSize <= 0 || p.DefaultPageSize > p.MaxPageSize {
		return fmt.Errorf("default_page_size must be in 1..%d (got %d)", p.MaxPageSize, p.DefaultPageSize)
	}

	p.NameMatch = strings.ToLower(strings.TrimSpace(p.NameMatch))
	if !domain.NameMatch(p.NameMatch).IsValid() {
		return fmt.Errorf("name_match must be %q or %q (got %q)",
			domain.NameMatchSensitive, domain.NameMatchInsensitive, p.NameMatch)
	}

	if p.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be > 0 (got %v)", p.QueryTimeout)
	}
	if p.ExportTimeout <= 0 {
		return fmt.Errorf("export_timeout must be > 0 (got %v)", p.ExportTimeout)
	}
	if p.ExportMaxRows <= 0 {
		return fmt.Errorf("export_max_rows must be > 0 (got %d)", p.ExportMaxRows)
	}
	if p.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be > 0 (got %d)", p.HistoryLimit)
	}

	return nil
}
