package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	// EnvPrefix namespaces every environment override, e.g. DAPODIK_SERVER_PORT.
	EnvPrefix = "DAPODIK"
	// ConfigFileEnv points at an explicit YAML file.
	ConfigFileEnv = "DAPODIK_CONFIG"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	// RequestTimeout bounds one upload-to-report pass.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"required_if=EnableCORS true,dive,required"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// ColumnsConfig names the upload columns the pipeline reads.
type ColumnsConfig struct {
	SchoolID  string `yaml:"school_id" envconfig:"SCHOOL_ID" validate:"required"`
	Region    string `yaml:"region" envconfig:"REGION" validate:"required"`
	Level     string `yaml:"level" envconfig:"LEVEL" validate:"required"`
	Ownership string `yaml:"ownership" envconfig:"OWNERSHIP" validate:"required"`
	Students  string `yaml:"students" envconfig:"STUDENTS" validate:"required"`
	Groups    string `yaml:"groups" envconfig:"GROUPS" validate:"required"`
	Teachers  string `yaml:"teachers" envconfig:"TEACHERS" validate:"required"`
	Support   string `yaml:"support" envconfig:"SUPPORT" validate:"required"`
	LastSync  string `yaml:"last_sync" envconfig:"LAST_SYNC" validate:"required"`
}

// Unknown sync marker policies
const (
	UnknownSyncSynced    = "synced"
	UnknownSyncNotSynced = "not_synced"
)

// ReportConfig drives normalization, aggregation and export.
type ReportConfig struct {
	Sheet          string        `yaml:"sheet" envconfig:"SHEET" validate:"required"`
	Columns        ColumnsConfig `yaml:"columns" envconfig:"COLUMNS"`
	ExcludedLevels []string      `yaml:"excluded_levels" envconfig:"EXCLUDED_LEVELS"`
	DeepDiveLevel  string        `yaml:"deep_dive_level" envconfig:"DEEP_DIVE_LEVEL" validate:"required"`
	LevelOrder     []string      `yaml:"level_order" envconfig:"LEVEL_ORDER" validate:"min=1,unique,dive,required"`
	Regions        []string      `yaml:"regions" envconfig:"REGIONS" validate:"dive,required"`
	NotSentMarker  string        `yaml:"not_sent_marker" envconfig:"NOT_SENT_MARKER" validate:"required"`
	UnknownSync    string        `yaml:"unknown_sync" envconfig:"UNKNOWN_SYNC" validate:"oneof=synced not_synced"`
	MergeSheet     string        `yaml:"merge_sheet" envconfig:"MERGE_SHEET" validate:"required"`
	BaseName       string        `yaml:"base_name" envconfig:"BASE_NAME" validate:"required"`
	OutputDir      string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	MaxFiles       int           `yaml:"max_files" envconfig:"MAX_FILES" validate:"min=1,max=100"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1"`
	ParseWorkers   int           `yaml:"parse_workers" envconfig:"PARSE_WORKERS" validate:"min=1,max=32"`
}

// Load builds the configuration: defaults, then the YAML file (explicit path,
// DAPODIK_CONFIG, or a well-known location), then DAPODIK_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg; keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// normalize uppercases level codes so they compare with normalized records.
func (c *Config) normalize() {
	c.Report.ExcludedLevels = upperAll(c.Report.ExcludedLevels)
	c.Report.LevelOrder = upperAll(c.Report.LevelOrder)
	c.Report.DeepDiveLevel = strings.ToUpper(strings.TrimSpace(c.Report.DeepDiveLevel))
	c.Report.NotSentMarker = strings.ToLower(strings.TrimSpace(c.Report.NotSentMarker))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
}

func upperAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks struct tags and returns one error per failing field.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "dapodik-sync",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Report: ReportConfig{
			Sheet: "Master",
			Columns: ColumnsConfig{
				SchoolID:  "NPSN",
				Region:    "Kecamatan",
				Level:     "BP",
				Ownership: "Status",
				Students:  "PD",
				Groups:    "Rombel",
				Teachers:  "Guru",
				Support:   "Tendik",
				LastSync:  "Last Sync",
			},
			ExcludedLevels: []string{"SMA", "SMK", "SLB"},
			DeepDiveLevel:  "SMP",
			LevelOrder:     []string{"SPS", "PKBM", "TPA", "KB", "TK", "SD", "SMP", "SKB"},
			NotSentMarker:  "belum kirim",
			UnknownSync:    UnknownSyncSynced,
			MergeSheet:     "Sheet1",
			BaseName:       "Rekap_Progres_SYNC_DAPODIK",
			OutputDir:      ".",
			MaxFiles:       20,
			MaxUploadBytes: 32 << 20,
			ParseWorkers:   4,
		},
	}
}
