// Package config loads thoughtgraph settings.
//
// Settings are layered, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (thoughtgraph.toml in the working directory, or --config)
//  3. a .env file in the working directory (never overrides the real environment)
//  4. THOUGHTGRAPH_* environment variables
//  5. command-line flags, applied by the CLI
//
// [Config.Validate] runs last and reports every invalid field at once.
//
// # Example File
//
//	[server]
//	addr = "127.0.0.1:8501"
//	session_ttl = "2h"
//
//	[data]
//	dir = "runs"
//	repair = true
//
//	[fields]
//	nodes = "steps"
//	edges = "links"
//	label = ["title", "variable"]
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/thoughtgraph/pkg/catalog"
	"github.com/matzehuels/thoughtgraph/pkg/document"
	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/layout"
)

// Default file names looked up in the working directory.
const (
	DefaultFile    = "thoughtgraph.toml"
	DefaultEnvFile = ".env"
)

// =============================================================================
// Config Types
// =============================================================================

// Config is the complete thoughtgraph configuration.
type Config struct {
	Server ServerConfig   `toml:"server"`
	Data   DataConfig     `toml:"data"`
	Fields FieldsConfig   `toml:"fields"`
	Layout layout.Options `toml:"layout"`
	Cache  CacheConfig    `toml:"cache"`
	Log    LogConfig      `toml:"log"`
}

// ServerConfig configures the HTTP viewer.
type ServerConfig struct {
	Addr           string        `toml:"addr" env:"THOUGHTGRAPH_ADDR" validate:"required,hostname_port"`
	OpenBrowser    bool          `toml:"open_browser" env:"THOUGHTGRAPH_OPEN_BROWSER"`
	SessionTTL     time.Duration `toml:"session_ttl" env:"THOUGHTGRAPH_SESSION_TTL" validate:"gte=0"`
	MaxUploadBytes int64         `toml:"max_upload_bytes" env:"THOUGHTGRAPH_MAX_UPLOAD_BYTES" validate:"gt=0"`
	CORSOrigins    []string      `toml:"cors_origins" env:"THOUGHTGRAPH_CORS_ORIGINS" envSeparator:","`
	Metrics        bool          `toml:"metrics" env:"THOUGHTGRAPH_METRICS"`
}

// DataConfig configures where input files come from and how they are read.
type DataConfig struct {
	Dir    string `toml:"dir" env:"THOUGHTGRAPH_DATA_DIR" validate:"required"`
	Repair bool   `toml:"repair" env:"THOUGHTGRAPH_REPAIR"`
	Watch  bool   `toml:"watch" env:"THOUGHTGRAPH_WATCH"`
}

// FieldsConfig names the JSON keys of the input. See document.Fields.
type FieldsConfig struct {
	Nodes  string   `toml:"nodes" env:"THOUGHTGRAPH_FIELDS_NODES"`
	Edges  string   `toml:"edges" env:"THOUGHTGRAPH_FIELDS_EDGES"`
	ID     []string `toml:"id" env:"THOUGHTGRAPH_FIELDS_ID" envSeparator:","`
	Source []string `toml:"source" env:"THOUGHTGRAPH_FIELDS_SOURCE" envSeparator:","`
	Target []string `toml:"target" env:"THOUGHTGRAPH_FIELDS_TARGET" envSeparator:","`
	Label  []string `toml:"label" env:"THOUGHTGRAPH_FIELDS_LABEL" envSeparator:","`
}

// CacheConfig configures the render cache.
type CacheConfig struct {
	Dir        string `toml:"dir" env:"THOUGHTGRAPH_CACHE_DIR"`
	Disabled   bool   `toml:"disabled" env:"THOUGHTGRAPH_NO_CACHE"`
	MaxEntries int    `toml:"max_entries" env:"THOUGHTGRAPH_CACHE_MAX_ENTRIES" validate:"gte=0"`
}

// LogConfig configures logging. An empty File logs to stderr only.
type LogConfig struct {
	Level      string `toml:"level" env:"THOUGHTGRAPH_LOG_LEVEL" validate:"oneof=debug info warn error"`
	File       string `toml:"file" env:"THOUGHTGRAPH_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"THOUGHTGRAPH_LOG_MAX_SIZE" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" env:"THOUGHTGRAPH_LOG_MAX_BACKUPS" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" env:"THOUGHTGRAPH_LOG_MAX_AGE" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           "127.0.0.1:8501",
			OpenBrowser:    true,
			SessionTTL:     2 * time.Hour,
			MaxUploadBytes: 32 << 20,
			Metrics:        true,
		},
		Data:   DataConfig{Dir: catalog.DefaultDir, Watch: true},
		Layout: layout.DefaultOptions(),
		Cache:  CacheConfig{MaxEntries: 256},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Document converts the field names into a document.Fields with defaults
// filled in.
func (f FieldsConfig) Document() document.Fields {
	return document.Fields{
		NodesKey:   f.Nodes,
		EdgesKey:   f.Edges,
		IDKeys:     f.ID,
		SourceKeys: f.Source,
		TargetKeys: f.Target,
		LabelKeys:  f.Label,
	}.WithDefaults()
}

// =============================================================================
// Loading
// =============================================================================

// Loader reads configuration from files and the environment.
type Loader struct {
	// File is the TOML file to read. Empty means DefaultFile if it exists.
	File string

	// EnvFile is the dotenv file to read. Empty means DefaultEnvFile if it exists.
	EnvFile string

	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load reads configuration using the default file locations.
func Load(file string) (*Config, error) {
	return (&Loader{File: file}).Load()
}

// Load applies every layer on top of Default. Flags are left to the caller,
// who should call Validate afterwards.
//
// Returns FILE_NOT_FOUND when an explicitly named file is missing and
// INVALID_INPUT when a file or variable cannot be decoded.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if err := l.loadTOML(cfg); err != nil {
		return nil, err
	}

	environ, err := l.environ()
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg, env.Options{Environment: environ}); err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "invalid environment variable")
	}
	return cfg, nil
}

func (l *Loader) loadTOML(cfg *Config) error {
	path, explicit := l.File, l.File != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return tgerrors.NotFound(err, "cannot read config file %s", path)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "config file %s is not valid TOML", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return tgerrors.New(tgerrors.ErrCodeInvalidInput, "config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// environ merges the dotenv file under the process environment.
func (l *Loader) environ() (map[string]string, error) {
	environ := l.Environ
	if environ == nil {
		environ = osEnviron()
	} else {
		environ = copyMap(environ)
	}

	path, explicit := l.EnvFile, l.EnvFile != ""
	if !explicit {
		path = DefaultEnvFile
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return environ, nil
		}
		return nil, tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "cannot read env file %s", path)
	}
	for k, v := range vars {
		if _, set := environ[k]; !set {
			environ[k] = v
		}
	}
	return environ, nil
}

func osEnviron() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New()

// Validate checks every field and returns an INVALID_INPUT error listing the
// offending settings.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return tgerrors.Wrap(tgerrors.ErrCodeInternal, err, "validate config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return tgerrors.New(tgerrors.ErrCodeInvalidInput, "invalid configuration: %s", strings.Join(msgs, "; "))
}
