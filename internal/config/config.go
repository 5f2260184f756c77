package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/eventroutes/internal/errors"
	"github.com/vango-dev/eventroutes/internal/logging"
	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/routepath"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "eventroutes.json"

	// TOMLFileName is the TOML configuration file name.
	TOMLFileName = "eventroutes.toml"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultHistoryLimit bounds each session's history stack.
	DefaultHistoryLimit = 100

	// DefaultNamespace prefixes Prometheus metric names.
	DefaultNamespace = "eventroutes"

	// DefaultServiceName is the OpenTelemetry service name.
	DefaultServiceName = "eventroutes"

	// DefaultLoginRoute is the route anonymous users are sent to.
	DefaultLoginRoute = "login"
)

// Environment variables that override file values.
const (
	EnvAddr      = "EVENTROUTES_ADDR"
	EnvBase      = "EVENTROUTES_BASE"
	EnvLogLevel  = "EVENTROUTES_LOG_LEVEL"
	EnvLogFormat = "EVENTROUTES_LOG_FORMAT"
)

// Format is a configuration file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf returns the encoding implied by a file name's extension.
// Anything other than .toml is read as JSON.
func FormatOf(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// Config is the complete server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr,omitempty" toml:"addr,omitempty"`

	// Base is the path the app is mounted under (e.g. "/app").
	Base string `json:"base,omitempty" toml:"base,omitempty"`

	// Log configures the logger.
	Log logging.Config `json:"log" toml:"log"`

	// History configures per-session history.
	History HistoryConfig `json:"history" toml:"history"`

	// Metrics configures the Prometheus navigation metrics.
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	// Tracing configures OpenTelemetry navigation spans.
	Tracing TracingConfig `json:"tracing" toml:"tracing"`

	// Auth configures the sign-in guard.
	Auth AuthConfig `json:"auth" toml:"auth"`

	// Routes are added to the built-in events table.
	Routes []router.RouteDef `json:"routes,omitempty" toml:"routes,omitempty"`

	// configPath stores where the config was loaded from.
	configPath string
}

// HistoryConfig contains history settings.
type HistoryConfig struct {
	// Limit is the maximum number of entries per session (0 = unbounded).
	Limit int `json:"limit,omitempty" toml:"limit,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Disabled turns off navigation metrics and the /metrics endpoint.
	Disabled bool `json:"disabled,omitempty" toml:"disabled,omitempty"`

	// Namespace prefixes metric names.
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Disabled turns off navigation spans.
	Disabled bool `json:"disabled,omitempty" toml:"disabled,omitempty"`

	// ServiceName is used as the tracer name.
	ServiceName string `json:"serviceName,omitempty" toml:"service_name,omitempty"`
}

// AuthConfig contains sign-in guard settings. The signed-in user comes from
// the HTTP request context (authmw.WithUser), set by whatever authenticates
// requests in front of the server.
type AuthConfig struct {
	// RequireLogin redirects anonymous sessions to LoginRoute, keeping the
	// attempted location in the "next" query parameter.
	RequireLogin bool `json:"requireLogin,omitempty" toml:"require_login,omitempty"`

	// LoginRoute names the sign-in route. It is always public.
	LoginRoute string `json:"loginRoute,omitempty" toml:"login_route,omitempty"`

	// Public names further routes open to anonymous users.
	Public []string `json:"public,omitempty" toml:"public,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Addr: DefaultAddr,
		Base: "/",
		Log: logging.Config{
			Level:  logging.LevelInfo,
			Format: logging.FormatText,
		},
		History: HistoryConfig{
			Limit: DefaultHistoryLimit,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			ServiceName: DefaultServiceName,
		},
		Auth: AuthConfig{
			LoginRoute: DefaultLoginRoute,
		},
	}
}

// Load reads configuration from dir, preferring eventroutes.json over
// eventroutes.toml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("R020").
		WithDetail("No " + JSONFileName + " or " + TOMLFileName + " found in " + dir).
		WithSuggestion("Create " + TOMLFileName + " or pass --config")
}

// LoadFile reads configuration from the specified file path. The encoding
// follows the file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R020").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("R020").Wrap(err)
	}

	cfg, err := Parse(data, FormatOf(path), path)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes configuration data and finalizes it. name is used in error
// locations. Unknown keys are rejected so typos surface early.
func Parse(data []byte, format Format, name string) (*Config, error) {
	cfg := New()

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, tomlError(err, name)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, jsonError(err, data, name)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func tomlError(err error, name string) error {
	re := errors.New("R020").
		WithDetail("Failed to parse " + name + ": " + err.Error()).
		WithSuggestion("Check that the file is valid TOML")

	var decErr *toml.DecodeError
	if stderrors.As(err, &decErr) {
		row, col := decErr.Position()
		re.WithLocation(name, row, col)
	}
	var strict *toml.StrictMissingError
	if stderrors.As(err, &strict) && len(strict.Errors) > 0 {
		row, col := strict.Errors[0].Position()
		re.WithLocation(name, row, col)
		re.WithSuggestion("Remove or rename the unknown key " + strings.Join(strict.Errors[0].Key(), "."))
	}
	return re
}

func jsonError(err error, data []byte, name string) error {
	re := errors.New("R020").
		WithDetail("Failed to parse " + name + ": " + err.Error()).
		WithSuggestion("Check that the file is valid JSON")

	var syntax *json.SyntaxError
	if stderrors.As(err, &syntax) {
		line, col := position(data, syntax.Offset)
		re.WithLocation(name, line, col)
	}
	return re
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// Finalize applies defaults, loads environment overrides and validates.
func (c *Config) Finalize() error {
	c.applyDefaults()
	c.loadEnv()
	c.Base = routepath.NormalizeBase(c.Base)
	return c.Validate()
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Base == "" {
		c.Base = "/"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
	if c.Auth.LoginRoute == "" {
		c.Auth.LoginRoute = DefaultLoginRoute
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvBase); v != "" {
		c.Base = v
	}
	// Validate reports a bad level or format with a code.
	_ = c.Log.Finalize(&logging.Env{Level: EnvLogLevel, Format: EnvLogFormat})
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return errors.New("R022").
			WithDetail(err.Error())
	}
	if c.History.Limit < 0 {
		return errors.New("R022").
			WithDetail(fmt.Sprintf("history.limit must not be negative, got %d", c.History.Limit))
	}
	if res, err := routepath.CanonicalizePath(c.Base); err != nil || res.Query != "" || res.Path != c.Base {
		return errors.New("R022").
			WithDetail("base must be a plain path such as /app, got " + c.Base)
	}

	seen := make(map[string]bool, len(c.Routes))
	for i, def := range c.Routes {
		if def.Name == "" || def.View == "" {
			return errors.New("R021").
				WithDetail(fmt.Sprintf("routes[%d] (%s) needs both a name and a view", i, def.Pattern))
		}
		if seen[def.Name] {
			return errors.New("R021").
				WithDetail(fmt.Sprintf("route name %q is declared twice", def.Name)).
				WithSuggestion("Route names must be unique")
		}
		seen[def.Name] = true
		if _, err := routepath.ParsePattern(def.Pattern); err != nil {
			return errors.New("R021").Wrap(err)
		}
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, encoded per its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if FormatOf(path) == FormatTOML {
		data, err = toml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("R020").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R020").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R020").
				WithDetail("No " + JSONFileName + " or " + TOMLFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest project root. When
// no config file exists it returns the defaults with environment overrides.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		cfg := New()
		if err := cfg.Finalize(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Load(root)
}
