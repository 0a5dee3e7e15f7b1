// Package config loads the engine settings from a file and MEMTABLE_*
// environment variables and builds a ready Persistence from them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asaidimu/go-memtable/core/persistence"
	"github.com/asaidimu/go-memtable/core/query"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "MEMTABLE"

	KeyTableNames    = "table_names"
	KeyDebugLogs     = "debug_logs"
	KeyLogLevel      = "log_level"
	KeyConnectorMode = "connector_mode"

	defaultLogLevel = "info"
)

// Config holds the engine settings.
type Config struct {
	// TableNames maps model names to table names. Empty means the default
	// auth tables.
	TableNames    map[string]string `mapstructure:"table_names"`
	DebugLogs     bool              `mapstructure:"debug_logs"`
	LogLevel      string            `mapstructure:"log_level"`
	ConnectorMode string            `mapstructure:"connector_mode"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel:      defaultLogLevel,
		ConnectorMode: string(query.ConnectorModeConjunction),
	}
}

// Load reads the config file at path, when path is not empty, and applies
// MEMTABLE_* environment overrides on top (e.g. MEMTABLE_DEBUG_LOGS=true).
// The file format follows its extension: yaml, json and toml are supported.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyDebugLogs, false)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyConnectorMode, string(query.ConnectorModeConjunction))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper folds keys to lower case, which breaks camelCase model names
	// such as twoFactor. Take the table mapping from the file as written.
	if path != "" {
		names, err := readTableNames(path)
		if err != nil {
			return nil, err
		}
		if names != nil {
			cfg.TableNames = names
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// tableNamesSection is the part of a config file decoded with key case kept.
type tableNamesSection struct {
	TableNames map[string]string `yaml:"table_names" toml:"table_names"`
}

// readTableNames decodes the table_names section of the file at path. JSON
// files go through the yaml decoder, which accepts them as flow documents.
// Formats other than yaml, json and toml return nil.
func readTableNames(path string) (map[string]string, error) {
	var decode func([]byte, any) error
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml", "json":
		decode = yaml.Unmarshal
	case "toml":
		decode = toml.Unmarshal
	default:
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var section tableNamesSection
	if err := decode(data, &section); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", KeyTableNames, err)
	}
	return section.TableNames, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch query.ConnectorMode(c.ConnectorMode) {
	case "", query.ConnectorModeConjunction, query.ConnectorModeGrouped:
	default:
		return fmt.Errorf("invalid %s %q: want %q or %q", KeyConnectorMode, c.ConnectorMode,
			query.ConnectorModeConjunction, query.ConnectorModeGrouped)
	}
	if _, err := zap.ParseAtomicLevel(c.logLevel()); err != nil {
		return fmt.Errorf("invalid %s %q: %w", KeyLogLevel, c.LogLevel, err)
	}
	for model, table := range c.TableNames {
		if model == "" || table == "" {
			return errors.New("table_names entries need both a model and a table name")
		}
	}
	return nil
}

// NewLogger builds a production zap logger at the configured level with
// ISO8601 timestamps. Debug logs force the debug level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.logLevel())
	if err != nil {
		return nil, err
	}
	if c.DebugLogs {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.TimeKey = "timestamp"
	return zc.Build()
}

// NewPersistence wires a registry, a data processor in the configured
// connector mode, a mutator and the Persistence facade together.
func (c *Config) NewPersistence(logger *zap.Logger) (*persistence.Persistence, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var tableNames map[string]string
	if len(c.TableNames) > 0 {
		tableNames = c.TableNames
	}

	registry := persistence.NewRegistry(tableNames, logger)
	processor := query.NewDataProcessor(logger, query.WithConnectorMode(query.ConnectorMode(c.ConnectorMode)))
	return persistence.NewPersistence(registry,
		persistence.WithLogger(logger),
		persistence.WithDebugLogs(c.DebugLogs),
		persistence.WithMutator(persistence.NewTableMutator(processor, logger)),
	)
}

func (c *Config) logLevel() string {
	if c.LogLevel == "" {
		return defaultLogLevel
	}
	return c.LogLevel
}
