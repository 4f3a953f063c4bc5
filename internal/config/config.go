package config

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/pageroutes/internal/errors"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pageroutes.json"

	DefaultPagesDir    = "pages"
	DefaultManifest    = "pageroutes.manifest.json"
	DefaultPackage     = "pages"
	DefaultHost        = "localhost"
	DefaultPort        = 3000
	DefaultLoadTimeout = "2s"
	DefaultMetricsPath = "/metrics"
	DefaultLivePath    = "/_live"
	DefaultNamespace   = "pageroutes"
)

// Config is the pageroutes.json schema.
type Config struct {
	Pages    PagesConfig    `json:"pages"`
	Manifest ManifestConfig `json:"manifest"`
	Server   ServerConfig   `json:"server"`
	Bundle   BundleConfig   `json:"bundle,omitempty"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PagesConfig describes the pages directory and its naming convention.
type PagesConfig struct {
	// Dir is the pages directory, relative to the config file.
	Dir string `json:"dir,omitempty"`

	// RootPrefix is prepended to every page path in the manifest.
	RootPrefix string `json:"rootPrefix,omitempty"`

	// Marker is the naming-convention marker (default "$").
	Marker string `json:"marker,omitempty"`

	// Extensions lists the page file extensions to collect.
	Extensions []string `json:"extensions,omitempty"`

	// All collects every file, not only marker-named ones.
	All bool `json:"all,omitempty"`
}

// ManifestConfig controls where "pageroutes gen" writes its output.
type ManifestConfig struct {
	// Output is the manifest path. A .go extension generates Go source,
	// .yaml or .yml writes YAML, anything else writes JSON.
	Output string `json:"output,omitempty"`

	// Package is the package name used for generated Go source.
	Package string `json:"package,omitempty"`
}

// ServerConfig configures "pageroutes serve".
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// LoadTimeout bounds how long a request waits for deferred loads
	// (e.g. "2s"). Past it, placeholders are rendered.
	LoadTimeout string `json:"loadTimeout,omitempty"`

	// MetricsPath serves Prometheus metrics. Empty disables it.
	MetricsPath string `json:"metricsPath,omitempty"`

	// LivePath serves the element-state websocket. Empty disables it.
	LivePath string `json:"livePath,omitempty"`
}

// BundleConfig selects where file:// and s3:// refs are loaded from.
type BundleConfig struct {
	// Bucket is the S3 bucket for s3:// refs.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every S3 key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the bucket's AWS region (default: $AWS_REGION).
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// Dir is the directory for file:// refs (default: the pages directory).
	Dir string `json:"dir,omitempty"`
}

// MetricsConfig configures load instrumentation.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
}

// New returns a configuration with defaults.
func New() *Config {
	return &Config{
		Pages: PagesConfig{
			Dir:        DefaultPagesDir,
			RootPrefix: pageroute.DefaultRootPrefix,
			Marker:     pageroute.DefaultMarker,
			Extensions: []string{".html"},
		},
		Manifest: ManifestConfig{
			Output:  DefaultManifest,
			Package: DefaultPackage,
		},
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			LoadTimeout: DefaultLoadTimeout,
			MetricsPath: DefaultMetricsPath,
			LivePath:    DefaultLivePath,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads pageroutes.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path. Missing fields keep their
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E121").
				Wrap(err).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'pageroutes init' or create " + ConfigFileName + " manually")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		re := errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
		re.Wrapped = err
		var syn *json.SyntaxError
		if stderrors.As(err, &syn) {
			re.WithOffset(path, data, syn.Offset)
		} else {
			re.WithFile(path)
		}
		return nil, re
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Pages.Dir == "" {
		c.Pages.Dir = DefaultPagesDir
	}
	if c.Pages.RootPrefix == "" {
		c.Pages.RootPrefix = pageroute.DefaultRootPrefix
	}
	if c.Pages.Marker == "" {
		c.Pages.Marker = pageroute.DefaultMarker
	}
	for i, ext := range c.Pages.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Pages.Extensions[i] = "." + ext
		}
	}

	if c.Manifest.Output == "" {
		c.Manifest.Output = DefaultManifest
	}
	if c.Manifest.Package == "" {
		c.Manifest.Package = DefaultPackage
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LoadTimeout == "" {
		c.Server.LoadTimeout = DefaultLoadTimeout
	}

	if c.Bundle.Region == "" {
		c.Bundle.Region = os.Getenv("AWS_REGION")
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("server.port must be between 0 and 65535, got " + strconv.Itoa(c.Server.Port))
	}
	if d, err := time.ParseDuration(c.Server.LoadTimeout); err != nil || d <= 0 {
		return errors.New("E122").
			WithDetail("server.loadTimeout must be a positive duration, got " + strconv.Quote(c.Server.LoadTimeout)).
			WithSuggestion(`Use a Go duration such as "500ms" or "2s"`)
	}
	if c.Pages.Marker == "" || strings.ContainsAny(c.Pages.Marker, "/[]") {
		return errors.New("E122").
			WithDetail("pages.marker must be non-empty and must not contain '/', '[' or ']'")
	}
	if !strings.HasPrefix(c.Pages.RootPrefix, "/") {
		return errors.New("E122").
			WithDetail("pages.rootPrefix must start with '/', got " + strconv.Quote(c.Pages.RootPrefix))
	}
	for _, p := range []struct{ name, value string }{
		{"server.metricsPath", c.Server.MetricsPath},
		{"server.livePath", c.Server.LivePath},
	} {
		if p.value != "" && !strings.HasPrefix(p.value, "/") {
			return errors.New("E122").
				WithDetail(p.name + " must start with '/', got " + strconv.Quote(p.value))
		}
	}
	return nil
}

// LoadTimeout returns server.loadTimeout as a duration.
func (c *Config) LoadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.LoadTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultLoadTimeout)
	}
	return d
}

// Address returns host:port for the server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// PagesPath returns the absolute path to the pages directory.
func (c *Config) PagesPath() string {
	return c.resolve(c.Pages.Dir)
}

// ManifestPath returns the absolute path to the manifest output.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest.Output)
}

// BundleDir returns the directory serving file:// refs.
func (c *Config) BundleDir() string {
	if c.Bundle.Dir == "" {
		return c.PagesPath()
	}
	return c.resolve(c.Bundle.Dir)
}

// PageroutesOptions returns compiler options matching the config.
func (c *Config) PageroutesOptions() []pageroute.Option {
	return []pageroute.Option{
		pageroute.WithRootPrefix(c.Pages.RootPrefix),
		pageroute.WithMarker(c.Pages.Marker),
		pageroute.WithExtensions(c.Pages.Extensions...),
	}
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists reports whether dir contains a config file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the directory holding
// pageroutes.json.
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
			return "", errors.New("E121").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'pageroutes init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the config of the enclosing project.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
