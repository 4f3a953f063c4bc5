package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pageroutes/internal/config"
	"github.com/vango-dev/pageroutes/internal/errors"
)

// starterPages are written when init creates the pages directory.
var starterPages = map[string]string{
	"$.html":      "<!doctype html>\n<html>\n<body>\n<!--outlet-->\n</body>\n</html>\n",
	"$index.html": "<h1>Home</h1>\n",
}

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create " + config.ConfigFileName + " and a pages directory",
		Long: `Write a default ` + config.ConfigFileName + ` and, if it does not exist yet,
a pages directory with a root layout and an index page.

Examples:
  pageroutes init
  pageroutes init site --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing "+config.ConfigFileName)

	return cmd
}

func runInit(dir string, force bool) error {
	if config.Exists(dir) && !force {
		return errors.New("E120").
			WithFile(filepath.Join(dir, config.ConfigFileName)).
			WithDetail(config.ConfigFileName + " already exists").
			WithSuggestion("Use --force to overwrite it")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	cfg := config.New()
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		return err
	}
	success("Created %s", filepath.Join(dir, config.ConfigFileName))

	pages := cfg.PagesPath()
	if _, err := os.Stat(pages); err == nil {
		info("Keeping existing %s", pages)
		return nil
	}
	if err := os.MkdirAll(pages, 0755); err != nil {
		return err
	}
	for name, body := range starterPages {
		if err := os.WriteFile(filepath.Join(pages, name), []byte(body), 0644); err != nil {
			return err
		}
	}
	success("Created %s with %d pages", pages, len(starterPages))
	info("Run 'pageroutes serve --watch' to start")
	return nil
}
