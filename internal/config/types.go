package config

import (
	"time"

	"github.com/raaihank/llm-shield/internal/vault"
)

// Config represents the main configuration structure.
type Config struct {
	Anonymizer AnonymizerConfig `yaml:"anonymizer" mapstructure:"anonymizer"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// AnonymizerConfig contains entity detection and vault configuration.
type AnonymizerConfig struct {
	// EntityTypes lists the entity kinds to detect; the single name "all"
	// enables every kind.
	EntityTypes []string `yaml:"entity_types" mapstructure:"entity_types"`
	// PlaceholderFormat is one of numbered, uuid or hashed.
	PlaceholderFormat string `yaml:"placeholder_format" mapstructure:"placeholder_format"`
	// VaultTTL bounds how long mappings stay recoverable. A value of -1
	// disables expiry; that is a deliberate choice, not the default.
	VaultTTL time.Duration `yaml:"vault_ttl" mapstructure:"vault_ttl"`
	// SweepInterval is how often the owning process triggers expired-entry
	// eviction. The vault itself never sweeps on its own.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// AuditConfig contains audit trail configuration.
type AuditConfig struct {
	// Export optionally ships audit events to Redis for the consuming log
	// pipeline. Events carry metadata only, never original values.
	Export ExportConfig `yaml:"export" mapstructure:"export"`
}

// ExportConfig configures the optional Redis audit export.
type ExportConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL  string        `yaml:"redis_url" mapstructure:"redis_url"`
	Key       string        `yaml:"key" mapstructure:"key"`
	MaxEvents int64         `yaml:"max_events" mapstructure:"max_events"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string     `yaml:"level" mapstructure:"level"`
	Format string     `yaml:"format" mapstructure:"format"` // json or console
	File   FileConfig `yaml:"file" mapstructure:"file"`
}

// FileConfig contains file logging configuration.
type FileConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Path     string `yaml:"path" mapstructure:"path"`
	MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
	MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
	Compress bool   `yaml:"compress" mapstructure:"compress"`
}

// GetDefaults returns a configuration with sensible defaults.
func GetDefaults() *Config {
	return &Config{
		Anonymizer: AnonymizerConfig{
			EntityTypes:       []string{"all"},
			PlaceholderFormat: "numbered",
			VaultTTL:          time.Hour,
			SweepInterval:     time.Minute,
		},
		Audit: AuditConfig{
			Export: ExportConfig{
				Enabled:   false,
				RedisURL:  "redis://localhost:6379/0",
				Key:       "llm-shield:audit",
				MaxEvents: 10000,
				Timeout:   5 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File: FileConfig{
				Enabled:  false,
				Path:     "logs/shield.log",
				MaxSize:  100, // MB
				MaxAge:   30,  // days
				Compress: true,
			},
		},
	}
}

// VaultExportConfig converts the audit export section to the vault sink
// configuration.
func (c ExportConfig) VaultExportConfig() *vault.ExportConfig {
	return &vault.ExportConfig{
		RedisURL:  c.RedisURL,
		Key:       c.Key,
		MaxEvents: c.MaxEvents,
		Timeout:   c.Timeout,
	}
}
