package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pageroutes/internal/config"
	"github.com/vango-dev/pageroutes/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	projectDir string
	verbose    bool
	noColor    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, errors.Classify(err, ""))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pageroutes",
		Short: "Compile a pages directory into a navigation tree",
		Long: `pageroutes turns file paths that follow the marker naming convention
into a nested route tree of layouts and pages, each loaded on demand.

  $.html          layout for its directory
  $index.html     the directory's own page
  $[id].html      dynamic segment, matched as :id
  about.html      plain page

Pages are listed in a manifest, compiled into a tree and served with
layouts wrapped around their children.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Project directory (default: nearest directory with "+config.ConfigFileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		initCmd(),
		genCmd(),
		treeCmd(),
		serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads the project config from --dir or the working directory.
func loadConfig() (*config.Config, error) {
	if projectDir != "" {
		return config.Load(projectDir)
	}
	return config.LoadFromWorkingDir()
}

// newLogger returns the structured logger used by serve.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
