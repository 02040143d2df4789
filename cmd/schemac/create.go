package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func createCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <schema.toml|schema.yaml>",
		Short: "Compile CREATE TABLE statements for the tables of a schema file",
		Long: `Create compiles every [[tables]] entry of the schema file into CREATE TABLE
statements for the target dialect. Several tables are ordered so that foreign
key targets are created first.

Examples:
  schemac create schema.toml
  schemac create schema.yaml --dialect postgresql --version 15.3 --format summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := opts.loadDocument(args[0])
			if err != nil {
				return err
			}
			if len(doc.Tables) == 0 {
				return fmt.Errorf("no tables in %s", args[0])
			}
			c, err := opts.newCompiler(doc)
			if err != nil {
				return err
			}
			plans, err := compileTables(c, doc.Tables)
			if err != nil {
				return err
			}
			return opts.writePlans(cmd, plans)
		},
	}
}
