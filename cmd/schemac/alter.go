package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func alterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alter <schema.toml|schema.yaml>",
		Short: "Compile the alterations and table drops of a schema file",
		Long: `Alter compiles every [[alterations]] entry against its [[current]] table and
every name in drop_tables. Alterations that the dialect cannot express directly
are emulated by rebuilding the table.

Examples:
  schemac alter changes.toml --dialect sqlite --version 3.31.0
  schemac alter changes.yaml -o plan.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.loadDocument(args[0])
			if err != nil {
				return err
			}
			if len(doc.Alterations) == 0 && len(doc.DropTables) == 0 {
				return fmt.Errorf("no alterations in %s", args[0])
			}
			c, err := opts.newCompiler(doc)
			if err != nil {
				return err
			}

			plans, err := compileAlterations(cmd.Context(), c, doc.Alterations)
			if err != nil {
				return err
			}
			drops, err := compileDrops(c, doc.DropTables)
			if err != nil {
				return err
			}
			return opts.writePlans(cmd, append(plans, drops...))
		},
	}
}
