package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/calllist/internal/core"
)

type importOptions struct {
	mapping core.FieldMapping
	on      string
	json    bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a contact list and print it by day",
		Long: `Import reads the first sheet of a spreadsheet (.xlsx, .xls, .csv) or the
first table of a Word document (.docx), guesses which columns hold the
name, phone, date and notes, and prints the contacts grouped by day.

Override any guessed column with --name, --phone, --date or --description.
Pass an empty value (--date "") to leave a field unmapped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runImport(cmd, root, &opts, args[0]); err != nil {
				return reportError(cmd, err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mapping.NameKey, "name", "", "Column holding the contact name")
	f.StringVar(&opts.mapping.PhoneKey, "phone", "", "Column holding the phone number(s)")
	f.StringVar(&opts.mapping.DateKey, "date", "", "Column holding the call date")
	f.StringVar(&opts.mapping.DescriptionKey, "description", "", "Column holding notes")
	f.StringVar(&opts.on, "on", "", "Only print calls on this day (YYYY-MM-DD)")
	f.BoolVar(&opts.json, "json", false, "Print records as JSON")

	return cmd
}

func runImport(cmd *cobra.Command, root *rootOptions, opts *importOptions, path string) error {
	ctx := cmd.Context()

	data, err := readFile(path, root.maxFileSize)
	if err != nil {
		return err
	}

	imp := core.NewImporter(core.ImporterOptions{Keywords: &root.keywords})
	sess := imp.NewSession("cli")

	analysis, err := sess.Import(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}

	m := analysis.Suggested
	flags := cmd.Flags()
	if flags.Changed("name") {
		m.NameKey = opts.mapping.NameKey
	}
	if flags.Changed("phone") {
		m.PhoneKey = opts.mapping.PhoneKey
	}
	if flags.Changed("date") {
		m.DateKey = opts.mapping.DateKey
	}
	if flags.Changed("description") {
		m.DescriptionKey = opts.mapping.DescriptionKey
	}

	if err := sess.ConfirmMapping(ctx, m); err != nil {
		return err
	}

	records := sess.Records()
	if opts.on != "" {
		day, err := core.ParseDay(opts.on)
		if err != nil {
			return fmt.Errorf("%w: %q", core.ErrInvalidDate, opts.on)
		}
		records = core.FilterByDate(records, &day)
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeRecordsJSON(out, records)
	}
	return writeRecordsText(out, records)
}

// jsonRecord adds the split numbers to a record.
type jsonRecord struct {
	core.Record
	Phones     []core.PhoneEntry `json:"phones"`
	Affordance core.Affordance   `json:"affordance"`
}

func writeRecordsJSON(w io.Writer, records []core.Record) error {
	out := make([]jsonRecord, len(records))
	for i, rec := range records {
		phones := core.SplitPhones(rec.PhoneNumber)
		out[i] = jsonRecord{Record: rec, Phones: phones, Affordance: core.AffordanceFor(phones)}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeRecordsText(w io.Writer, records []core.Record) error {
	groups, undated := core.GroupByDate(records)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s (%d)\n", g.Day.Format("Mon, Jan 2 2006"), len(g.Records))
		writeRows(tw, g.Records)
	}
	if len(undated) > 0 {
		fmt.Fprintf(tw, "No date (%d)\n", len(undated))
		writeRows(tw, undated)
	}
	if len(records) == 0 {
		fmt.Fprintln(tw, "No calls.")
	}
	return tw.Flush()
}

func writeRows(w io.Writer, records []core.Record) {
	for _, rec := range records {
		var dials []string
		for _, p := range core.SplitPhones(rec.PhoneNumber) {
			dials = append(dials, p.Dial)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", rec.Name, strings.Join(dials, ", "), rec.Description)
	}
}
