package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pageroutes/internal/dev"
	"github.com/vango-dev/pageroutes/internal/errors"
	"github.com/vango-dev/pageroutes/pkg/manifest"
	"github.com/vango-dev/pageroutes/pkg/pageroute"
)

func treeCmd() *cobra.Command {
	var (
		flat bool
		scan bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the compiled route tree",
		Long: `Compile the manifest and print the resulting navigation tree.

Nothing is loaded: the command only checks that every path parses and that
no two files claim the same node.

Examples:
  pageroutes tree
  pageroutes tree --flat
  pageroutes tree --scan       # ignore the written manifest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var m *manifest.Manifest
			if scan {
				m, err = dev.Scan(cfg)
			} else {
				m, err = dev.LoadManifest(cfg)
			}
			if err != nil {
				return err
			}

			bindings, err := m.Bindings(dev.NewResolver(cfg, nil, nil))
			if err != nil {
				return errors.Classify(err, "E130")
			}
			nodes, err := pageroute.CompileRoutes(bindings, cfg.PageroutesOptions()...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !flat {
				return pageroute.Print(out, nodes)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range pageroute.Flatten(nodes) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Kind, r.Path, r.Source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&flat, "flat", false, "List one element per line instead of a tree")
	cmd.Flags().BoolVar(&scan, "scan", false, "Scan the pages directory instead of reading the manifest")

	return cmd
}
