package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/pageroutes/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	projectDir, verbose, noColor = "", false, false
	return out.String(), err
}

func TestInitGenTree(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init error = %v", err)
	}
	if !config.Exists(dir) {
		t.Fatalf("init did not write %s", config.ConfigFileName)
	}
	if _, err := os.Stat(filepath.Join(dir, "pages", "$index.html")); err != nil {
		t.Errorf("starter page missing: %v", err)
	}

	if _, err := execute(t, "init", dir); err == nil {
		t.Error("second init without --force succeeded")
	}

	if _, err := execute(t, "gen", "-C", dir); err != nil {
		t.Fatalf("gen error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.DefaultManifest)); err != nil {
		t.Errorf("manifest not written: %v", err)
	}

	out, err := execute(t, "tree", "-C", dir, "--flat")
	if err != nil {
		t.Fatalf("tree error = %v", err)
	}
	for _, want := range []string{"layout", "/pages/$.html", "page", "/pages/$index.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree --flat output missing %q:\n%s", want, out)
		}
	}
}

func TestTree_AmbiguousNode(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "init", dir); err != nil {
		t.Fatal(err)
	}
	// $index.html and index.html both claim the root's index.
	if err := os.WriteFile(filepath.Join(dir, "pages", "index.html"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Pages.All = true
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "tree", "-C", dir, "--scan"); err == nil {
		t.Error("tree with conflicting files succeeded")
	}
}

func TestVersion_Short(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}
