package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pageroutes/internal/dev"
)

func genCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Write the page manifest",
		Long: `Scan the pages directory and write the manifest.

The output format follows the file extension: .go generates Go source,
.yaml or .yml writes YAML and anything else writes JSON. The file is only
rewritten when its content changes, so the output is safe to commit.

Examples:
  pageroutes gen
  pageroutes gen -o internal/pages/manifest_gen.go`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Manifest path (default: manifest.output)")

	return cmd
}

func runGen(output string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Manifest.Output = output
	}

	info("Scanning %s...", cfg.PagesPath())

	m, changed, err := dev.Generate(cfg)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(cfg.Dir(), cfg.ManifestPath())
	if err != nil {
		rel = cfg.ManifestPath()
	}
	if !changed {
		success("%s is up to date (%d pages)", rel, len(m.Entries))
		return nil
	}
	success("Wrote %s (%d pages)", rel, len(m.Entries))
	return nil
}
