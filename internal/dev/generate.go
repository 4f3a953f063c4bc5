package dev

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/pageroutes/internal/config"
	"github.com/vango-dev/pageroutes/internal/errors"
	"github.com/vango-dev/pageroutes/pkg/manifest"
)

// Scan builds a manifest from the configured pages directory. Refs use the
// s3 scheme when a bucket is configured and file otherwise.
func Scan(cfg *config.Config) (*manifest.Manifest, error) {
	scheme := "file"
	if cfg.Bundle.Bucket != "" {
		scheme = "s3"
	}

	m, err := manifest.Scan(os.DirFS(cfg.PagesPath()), manifest.ScanOptions{
		RootPrefix: cfg.Pages.RootPrefix,
		Marker:     cfg.Pages.Marker,
		Extensions: cfg.Pages.Extensions,
		All:        cfg.Pages.All,
		Scheme:     scheme,
	})
	if err != nil {
		return nil, errors.New("E130").Wrap(err).
			WithFile(cfg.PagesPath()).
			WithSuggestion("Check pages.dir in " + config.ConfigFileName)
	}
	return m, nil
}

// Encode serializes m for the configured output. A .go output produces
// generated Go source; .yaml and .yml produce YAML; anything else JSON.
func Encode(cfg *config.Config, m *manifest.Manifest) ([]byte, error) {
	out := cfg.Manifest.Output
	if strings.EqualFold(filepath.Ext(out), ".go") {
		src, err := filepath.Rel(cfg.Dir(), cfg.PagesPath())
		if err != nil {
			src = cfg.Pages.Dir
		}
		return manifest.NewGenerator(m, cfg.Manifest.Package).
			WithSource(filepath.ToSlash(src)).
			Generate()
	}

	var buf bytes.Buffer
	if err := m.Write(&buf, manifest.FormatFor(out)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Generate scans the pages directory and writes the manifest. The file is
// only rewritten when its content changes. It reports whether it wrote.
func Generate(cfg *config.Config) (*manifest.Manifest, bool, error) {
	m, err := Scan(cfg)
	if err != nil {
		return nil, false, err
	}

	data, err := Encode(cfg, m)
	if err != nil {
		return nil, false, errors.New("E130").Wrap(err)
	}

	out := cfg.ManifestPath()
	current, err := os.ReadFile(out)
	if err != nil && !os.IsNotExist(err) {
		return nil, false, errors.New("E130").Wrap(err).WithFile(out)
	}
	if bytes.Equal(current, data) {
		return m, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return nil, false, errors.New("E130").Wrap(err).WithFile(out)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return nil, false, errors.New("E130").Wrap(err).WithFile(out)
	}
	return m, true, nil
}

// LoadManifest reads the manifest written by Generate. Go output cannot be
// read back at runtime, so it and a missing file fall back to Scan.
func LoadManifest(cfg *config.Config) (*manifest.Manifest, error) {
	out := cfg.ManifestPath()
	if strings.EqualFold(filepath.Ext(out), ".go") {
		return Scan(cfg)
	}

	m, err := manifest.Load(out)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Scan(cfg)
		}
		return nil, errors.New("E130").Wrap(err).
			WithFile(out).
			WithSuggestion("Run 'pageroutes gen' to regenerate it")
	}
	return m, nil
}
