package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/pageroutes/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Pages.RootPrefix != "/pages/" {
		t.Errorf("Pages.RootPrefix = %q, want /pages/", cfg.Pages.RootPrefix)
	}
	if cfg.Pages.Marker != "$" {
		t.Errorf("Pages.Marker = %q, want $", cfg.Pages.Marker)
	}
	if cfg.LoadTimeout() != 2*time.Second {
		t.Errorf("LoadTimeout() = %v, want 2s", cfg.LoadTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	re, ok := errors.As(err)
	if !ok || re.Code != "E121" {
		t.Fatalf("Load(missing) error = %v, want E121", err)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Error("E121 should wrap os.ErrNotExist")
	}

	writeConfig(t, dir, `{
  "pages": {"dir": "site", "extensions": ["html", ".htm"]},
  "server": {"port": 8080, "loadTimeout": "500ms"},
  "bundle": {"bucket": "site-bundles", "prefix": "pages/"}
}
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want default %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.LoadTimeout() != 500*time.Millisecond {
		t.Errorf("LoadTimeout() = %v, want 500ms", cfg.LoadTimeout())
	}
	if diff := cmp.Diff([]string{".html", ".htm"}, cfg.Pages.Extensions); diff != "" {
		t.Errorf("Pages.Extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.PagesPath() != filepath.Join(dir, "site") {
		t.Errorf("PagesPath() = %q", cfg.PagesPath())
	}
	if cfg.BundleDir() != cfg.PagesPath() {
		t.Errorf("BundleDir() = %q, want pages dir", cfg.BundleDir())
	}
	if cfg.ManifestPath() != filepath.Join(dir, DefaultManifest) {
		t.Errorf("ManifestPath() = %q", cfg.ManifestPath())
	}
	if cfg.Bundle.Bucket != "site-bundles" || cfg.Bundle.Prefix != "pages/" {
		t.Errorf("Bundle = %+v", cfg.Bundle)
	}
	if cfg.Address() != "localhost:8080" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
	}
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "{\n  \"server\": {\n    \"port\": ,\n  }\n}\n")

	_, err := Load(dir)
	re, ok := errors.As(err)
	if !ok || re.Code != "E120" {
		t.Fatalf("Load() error = %v, want E120", err)
	}
	if re.Location == nil || re.Location.Line != 3 {
		t.Errorf("Location = %v, want line 3", re.Location)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"bad timeout", func(c *Config) { c.Server.LoadTimeout = "soon" }, "server.loadTimeout"},
		{"zero timeout", func(c *Config) { c.Server.LoadTimeout = "0s" }, "server.loadTimeout"},
		{"marker with slash", func(c *Config) { c.Pages.Marker = "/" }, "pages.marker"},
		{"relative prefix", func(c *Config) { c.Pages.RootPrefix = "pages/" }, "pages.rootPrefix"},
		{"relative metrics path", func(c *Config) { c.Server.MetricsPath = "metrics" }, "server.metricsPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			re, ok := errors.As(err)
			if !ok || re.Code != "E122" {
				t.Fatalf("Validate() error = %v, want E122", err)
			}
			if !strings.Contains(re.Detail, tt.want) {
				t.Errorf("Detail = %q, want mention of %q", re.Detail, tt.want)
			}
		})
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"server": {"loadTimeout": "forever"}}`)

	_, err := Load(dir)
	if re, ok := errors.As(err); !ok || re.Code != "E122" {
		t.Errorf("Load() error = %v, want E122", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Server.Port = 9000
	cfg.Bundle.Bucket = "b"

	if err := cfg.Save(); err == nil {
		t.Error("Save() without a path should fail")
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmp.AllowUnexported(Config{})); diff != "" {
		t.Errorf("reloaded config mismatch (-want +got):\n%s", diff)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "pages", "user")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	if got != root {
		t.Errorf("FindProjectRoot() = %q, want %q", got, root)
	}

	if !Exists(root) || Exists(nested) {
		t.Error("Exists() mismatch")
	}
}

func TestPageroutesOptions(t *testing.T) {
	if got := len(New().PageroutesOptions()); got != 3 {
		t.Errorf("len(PageroutesOptions()) = %d, want 3", got)
	}
}
