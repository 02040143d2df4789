package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"schemac/internal/dialect"
	"schemac/internal/output"
)

type dialectInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	dialect.Capabilities
}

func dialectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List supported dialects and their capabilities",
		Long: `Dialects prints every supported dialect with the capabilities the compiler
uses for the version given by --version (the newest known version by default).
With --dialect only that dialect is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := dialect.Names()
			if opts.dialect != "" {
				t, err := dialect.Resolve(opts.dialect)
				if err != nil {
					return err
				}
				names = []string{string(t)}
			}

			infos := make([]dialectInfo, 0, len(names))
			for _, name := range names {
				d, err := dialect.Get(name, opts.version)
				if err != nil {
					return err
				}
				infos = append(infos, dialectInfo{Name: d.Name(), Version: d.Version.String(), Capabilities: d.Capabilities})
			}

			w := cmd.OutOrStdout()
			if opts.format == string(output.FormatJSON) {
				data, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				_, err = fmt.Fprintln(w, string(data))
				return err
			}

			for _, info := range infos {
				_, _ = fmt.Fprintf(w, "%s (%s)\n", info.Name, info.Version)
				_, _ = fmt.Fprintf(w, "  transactional DDL:   %s\n", yesNo(info.TransactionalDDL))
				_, _ = fmt.Fprintf(w, "  alter column:        %s\n", yesNo(info.SupportsInlineAlterColumn))
				_, _ = fmt.Fprintf(w, "  rename column:       %s\n", yesNo(info.SupportsRenameColumn))
				_, _ = fmt.Fprintf(w, "  drop column:         %s\n", yesNo(info.SupportsDropColumnDirect))
				_, _ = fmt.Fprintf(w, "  table rebuild:       %s\n", yesNo(info.SupportsRebuild))
				_, _ = fmt.Fprintf(w, "  comments:            %s\n", info.Comments)
				_, _ = fmt.Fprintf(w, "  enums:               %s\n", info.Enums)
				_, _ = fmt.Fprintf(w, "  max identifier:      %s\n", strconv.Itoa(info.MaxIdentifierLength))
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
