// Package config loads planfocus settings from ~/.planfocus/config.yaml, an optional
// project overlay, and PLANFOCUS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/pagedlist"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRemote   = "remote"
)

// Page size bounds.
const (
	MinPageSize = 1
	MaxPageSize = 1000
)

// EnvHome overrides the planfocus home directory.
const EnvHome = "PLANFOCUS_HOME"

const (
	dirName        = ".planfocus"
	configFileName = "config.yaml"
	outputTypeFile = "file"
	defaultAddr    = "127.0.0.1:8080"
)

// Config is the full planfocus configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Paging  PagingConfig  `yaml:"paging"`
	Session SessionConfig `yaml:"session"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the file or sqlite database path.
	Path  string `yaml:"path,omitempty"`
	DSN   string `yaml:"dsn,omitempty"`
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
	// ClientSort forces lists to be sorted in memory.
	ClientSort bool `yaml:"client_sort"`
	// CompositeIndex makes memory and file stores serve filtered, ordered queries.
	CompositeIndex bool `yaml:"composite_index"`
}

// PagingConfig controls list paging.
type PagingConfig struct {
	PageSize int `yaml:"page_size"`
}

// SessionConfig names the acting user.
type SessionConfig struct {
	ActorID   string `yaml:"actor_id"`
	ActorName string `yaml:"actor_name"`
	Role      string `yaml:"role"`
}

// ServerConfig configures planfocus serve.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	JWTSecret      string   `yaml:"jwt_secret,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:        BackendFile,
			CompositeIndex: true,
		},
		Paging:  PagingConfig{PageSize: pagedlist.DefaultPageSize},
		Session: SessionConfig{Role: string(access.RoleMember)},
		Server:  ServerConfig{Addr: defaultAddr},
		Logging: LoggingConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// HomeDir returns the planfocus home directory: $PLANFOCUS_HOME, or ~/.planfocus.
func HomeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns the global config file path.
func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadFile reads path onto the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// String renders the config as YAML with secrets masked.
func (c *Config) String() string {
	masked := *c
	if masked.Store.Token != "" {
		masked.Store.Token = "********"
	}
	if masked.Server.JWTSecret != "" {
		masked.Server.JWTSecret = "********"
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Sprintf("<unencodable config: %v>", err)
	}
	return string(data)
}

// ApplyEnv overrides fields from PLANFOCUS_ environment variables. Unparseable
// numbers and booleans are reported as ErrInvalidConfig.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"PLANFOCUS_STORE_BACKEND": &c.Store.Backend,
		"PLANFOCUS_STORE_PATH":    &c.Store.Path,
		"PLANFOCUS_STORE_DSN":     &c.Store.DSN,
		"PLANFOCUS_STORE_URL":     &c.Store.URL,
		"PLANFOCUS_STORE_TOKEN":   &c.Store.Token,
		"PLANFOCUS_ACTOR_ID":      &c.Session.ActorID,
		"PLANFOCUS_ACTOR_NAME":    &c.Session.ActorName,
		"PLANFOCUS_ROLE":          &c.Session.Role,
		"PLANFOCUS_SERVER_ADDR":   &c.Server.Addr,
		"PLANFOCUS_JWT_SECRET":    &c.Server.JWTSecret,
		logging.EnvLogLevel:       &c.Logging.Level,
		logging.EnvLogFormat:      &c.Logging.Format,
		"PLANFOCUS_LOG_FILE":      &c.Logging.File,
	}
	for key, field := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}

	bools := map[string]*bool{
		"PLANFOCUS_CLIENT_SORT":     &c.Store.ClientSort,
		"PLANFOCUS_COMPOSITE_INDEX": &c.Store.CompositeIndex,
	}
	for key, field := range bools {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v)
		}
		*field = b
	}

	if v, ok := os.LookupEnv("PLANFOCUS_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PLANFOCUS_PAGE_SIZE=%q is not a number", ErrInvalidConfig, v)
		}
		c.Paging.PageSize = n
	}
	if v, ok := os.LookupEnv("PLANFOCUS_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres backend"))
		}
	case BackendRemote:
		if c.Store.URL == "" {
			errs = append(errs, errors.New("store.url is required for the remote backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	if c.Paging.PageSize < MinPageSize || c.Paging.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("paging.page_size must be between %d and %d, got %d",
			MinPageSize, MaxPageSize, c.Paging.PageSize))
	}

	if c.Session.Role != "" && !access.Role(c.Session.Role).IsValid() {
		errs = append(errs, fmt.Errorf("unknown session.role %q", c.Session.Role))
	}

	if c.Logging.Format != "" && !slices.Contains([]string{logging.FormatJSON, logging.FormatConsole}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ToSession builds the acting session. An empty actor is left for the caller to reject.
func (c *Config) ToSession() access.Session {
	return access.NewSession(c.Session.ActorID, c.Session.ActorName, access.ParseRole(c.Session.Role))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
