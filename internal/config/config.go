package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Patients PatientsConfig `yaml:"patients"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"false"`
	// StatementTimeout is set as the server-side statement_timeout; zero leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"0s"`
	ApplicationName  string        `yaml:"application_name"  env:"DATABASE_APPLICATION_NAME"  env-default:"patients-backend"`
}

// PatientsConfig holds patient record service settings.
type PatientsConfig struct {
	DefaultPageSize int           `yaml:"default_page_size" env:"PATIENTS_DEFAULT_PAGE_SIZE" env-default:"10"`
	MaxPageSize     int           `yaml:"max_page_size"     env:"PATIENTS_MAX_PAGE_SIZE"     env-default:"100"`
	NameMatch       string        `yaml:"name_match"        env:"PATIENTS_NAME_MATCH"        env-default:"sensitive"`
	QueryTimeout    time.Duration `yaml:"query_timeout"     env:"PATIENTS_QUERY_TIMEOUT"     env-default:"5s"`
	ExportTimeout   time.Duration `yaml:"export_timeout"    env:"PATIENTS_EXPORT_TIMEOUT"    env-default:"30s"`
	ExportMaxRows   int           `yaml:"export_max_rows"   env:"PATIENTS_EXPORT_MAX_ROWS"   env-default:"50000"`
	HistoryLimit    int           `yaml:"history_limit"     env:"PATIENTS_HISTORY_LIMIT"     env-default:"100"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	DefaultActor string `yaml:"default_actor" env:"AUDIT_DEFAULT_ACTOR" env-default:"system"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}
