// Package config loads lightorm settings from a YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, LIGHTORM_*
// environment variables. Command-line flags are applied by the caller on
// top. The merged result is checked against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lightorm/internal/sqltext"
)

//go:embed config.cue
var configSchema string

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LIGHTORM"

// Config holds the settings of the lightorm command.
type Config struct {
	// Database is the store locator: a SQLite path or a PostgreSQL
	// connection string.
	Database string `yaml:"database" json:"database,omitempty"`

	// ReadOnly opens the store without write access.
	ReadOnly bool `yaml:"read_only" json:"read_only,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level,omitempty"`

	// IdentityColumn is the generic identity column name.
	IdentityColumn string `yaml:"identity_column" json:"identity_column,omitempty"`

	// Schema holds DDL statements applied when the store is created.
	Schema []string `yaml:"schema" json:"schema,omitempty"`

	// SchemaFile names a file of DDL statements, relative to the config
	// file. Its statements follow Schema.
	SchemaFile string `yaml:"schema_file" json:"schema_file,omitempty"`

	dir string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       "info",
		IdentityColumn: "id",
	}
}

// Load reads path (if not empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return nil
}

type envOverrides struct {
	Database       string `envconfig:"DATABASE"`
	ReadOnly       *bool  `envconfig:"READ_ONLY"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	IdentityColumn string `envconfig:"IDENTITY_COLUMN"`
}

// ApplyEnv overrides cfg with any LIGHTORM_* variables that are set.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if env.Database != "" {
		cfg.Database = env.Database
	}
	if env.ReadOnly != nil {
		cfg.ReadOnly = *env.ReadOnly
	}
	if env.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(env.LogLevel)
	}
	if env.IdentityColumn != "" {
		cfg.IdentityColumn = env.IdentityColumn
	}
	return nil
}

// Validate checks cfg against the #Config CUE definition.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// SchemaStatements returns the inline statements followed by those read
// from SchemaFile.
func (c Config) SchemaStatements() ([]string, error) {
	stmts := append([]string(nil), c.Schema...)
	if c.SchemaFile == "" {
		return stmts, nil
	}

	path := c.SchemaFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	more, err := LoadSchema(path)
	if err != nil {
		return nil, err
	}
	return append(stmts, more...), nil
}

// LoadSchema reads DDL statements from path. A .yaml or .yml file holds a
// list of statements; anything else is SQL split on ";".
func LoadSchema(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var stmts []string
		if err := yaml.Unmarshal(data, &stmts); err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", path, err)
		}
		return stmts, nil
	default:
		stmts, err := sqltext.SplitStatements(string(data))
		if err != nil {
			return nil, fmt.Errorf("split schema %s: %w", path, err)
		}
		return stmts, nil
	}
}
