package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/calllist/internal/core"
)

func newHeadersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "headers FILE",
		Short: "Show the detected columns and the suggested mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runHeaders(cmd, root, args[0]); err != nil {
				return reportError(cmd, err)
			}
			return nil
		},
	}
}

func runHeaders(cmd *cobra.Command, root *rootOptions, path string) error {
	data, err := readFile(path, root.maxFileSize)
	if err != nil {
		return err
	}

	imp := core.NewImporter(core.ImporterOptions{Keywords: &root.keywords})
	table, analysis, err := imp.Analyze(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%d columns, %d rows\n\n", len(table.Headers), len(table.Rows))
	fmt.Fprintln(tw, "COLUMN\tSAMPLE")
	for _, h := range table.Headers {
		fmt.Fprintf(tw, "%s\t%s\n", h, sample(table, h))
	}

	m := analysis.Suggested
	fmt.Fprintln(tw, "\nFIELD\tCOLUMN")
	for _, row := range [][2]string{
		{"name", m.NameKey},
		{"phone", m.PhoneKey},
		{"date", m.DateKey},
		{"description", m.DescriptionKey},
	} {
		col := row[1]
		if col == "" {
			col = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", row[0], col)
	}
	return tw.Flush()
}

// sample is the first non-empty cell of a column.
func sample(table *core.Table, header string) string {
	for _, row := range table.Rows {
		if v := row[header]; v != "" {
			return v
		}
	}
	return ""
}
