package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"tally/internal/core"
	"tally/internal/definitions"
	"tally/internal/fetch"
	"tally/internal/services"
	"tally/internal/summary"
	"tally/internal/table"
)

type commandFunc func(ctx context.Context, svc *services.ProfileService, args []string, out io.Writer) error

var commands = map[string]commandFunc{
	"import":  runImport,
	"summary": runSummary,
	"export":  runExport,
	"defs":    runDefs,
	"hours":   runHours,
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	profile := fs.String("profile", "", "profile id")
	return fs, profile
}

func parseFlags(fs *flag.FlagSet, args []string, profile *string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	if strings.TrimSpace(*profile) == "" {
		return fmt.Errorf("%w: %s: -profile is required", errUsage, fs.Name())
	}
	return nil
}

func runImport(ctx context.Context, svc *services.ProfileService, args []string, out io.Writer) error {
	fs, profile := newFlagSet("import")
	source := fs.String("source", "", "file path, URL, gs:// object, sheets:// range or .xlsx file")
	if err := parseFlags(fs, args, profile); err != nil {
		return err
	}
	if *source == "" {
		return fmt.Errorf("%w: import: -source is required", errUsage)
	}

	res, err := svc.Import(ctx, *profile, *source)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s, %d new transactions\n", *profile, res.Mode, res.Added)
	return nil
}

func runSummary(ctx context.Context, svc *services.ProfileService, args []string, out io.Writer) error {
	fs, profile := newFlagSet("summary")
	if err := parseFlags(fs, args, profile); err != nil {
		return err
	}
	snap, err := svc.Snapshot(ctx, *profile)
	if err != nil {
		return err
	}

	t := snap.Table
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Transactions\t%d\n", t.TotalCount)
	fmt.Fprintf(tw, "Date range\t%s .. %s\n", t.DateRange.Start, t.DateRange.End)
	fmt.Fprintf(tw, "Deposits\t%s\n", formatMoney(t.Summary.Deposits))
	fmt.Fprintf(tw, "Withdrawals\t%s\n", formatMoney(t.Summary.Withdrawals))
	fmt.Fprintf(tw, "Net change\t%s\n", formatMoney(t.Summary.NetChange))
	fmt.Fprintf(tw, "Total\t%s\n", formatMoney(t.TotalAmount))
	fmt.Fprintf(tw, "Average\t%s\n", formatMoney(t.AverageAmount))
	if len(snap.Months) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Month\tCount\tDeposits\tWithdrawals\tTotal")
		for _, m := range snap.Months {
			fmt.Fprintf(tw, "%04d-%02d\t%d\t%s\t%s\t%s\n",
				m.Year, m.Month, m.Count, formatMoney(m.Deposits), formatMoney(m.Withdrawals), formatMoney(m.Total))
		}
	}
	return tw.Flush()
}

func runExport(ctx context.Context, svc *services.ProfileService, args []string, out io.Writer) error {
	fs, profile := newFlagSet("export")
	start := fs.String("start", "", "earliest date, YYYY-MM-DD")
	end := fs.String("end", "", "latest date, YYYY-MM-DD")
	entity := fs.String("entity", "", "sender substring")
	typ := fs.String("type", "", "deposits or withdrawals")
	sortBy := fs.String("sort", "", "date or amount")
	desc := fs.Bool("desc", false, "sort descending")
	outPath := fs.String("out", "", "output file, stdout when empty")
	if err := parseFlags(fs, args, profile); err != nil {
		return err
	}

	q := summary.Query{
		Entity:     *entity,
		Type:       summary.TxType(*typ),
		SortBy:     summary.SortField(*sortBy),
		Descending: *desc,
	}
	if !q.Type.IsValid() || !q.SortBy.IsValid() {
		return fmt.Errorf("%w: export: unknown -type or -sort", errUsage)
	}
	var err error
	if q.Start, err = core.ParseDateBound(*start, false); err != nil {
		return fmt.Errorf("%w: export: -start: %w", errUsage, err)
	}
	if q.End, err = core.ParseDateBound(*end, true); err != nil {
		return fmt.Errorf("%w: export: -end: %w", errUsage, err)
	}

	text, err := svc.Export(ctx, *profile, q)
	if err != nil {
		return err
	}
	if *outPath == "" {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	if err := os.WriteFile(*outPath, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func runDefs(ctx context.Context, svc *services.ProfileService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: defs: expected import or list", errUsage)
	}
	switch args[0] {
	case "import":
		fs, profile := newFlagSet("defs import")
		file := fs.String("file", "", "YAML definitions file")
		if err := parseFlags(fs, args[1:], profile); err != nil {
			return err
		}
		defs, err := definitions.LoadFile(*file)
		if err != nil {
			return err
		}
		added, err := svc.ImportDefinitions(ctx, *profile, defs)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d definitions, %d new\n", *profile, len(defs), added)
		return nil

	case "list":
		fs, profile := newFlagSet("defs list")
		results := fs.Bool("evaluate", false, "evaluate each definition")
		if err := parseFlags(fs, args[1:], profile); err != nil {
			return err
		}
		if *results {
			return printResults(ctx, svc, *profile, out)
		}
		defs, err := svc.ListDefinitions(ctx, *profile)
		if err != nil {
			return err
		}
		data, err := definitions.Marshal(defs)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err

	default:
		return fmt.Errorf("%w: defs: unknown subcommand %q", errUsage, args[0])
	}
}

func printResults(ctx context.Context, svc *services.ProfileService, profile string, out io.Writer) error {
	results, err := svc.EvaluateDefinitions(ctx, profile)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tCount\tNet\tHours")
	for _, r := range results {
		hours := "-"
		if r.Definition.TrackTime {
			hours = formatHours(r.Hours)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Definition.Name, r.Count, formatMoney(r.Net), hours)
		for _, sess := range r.Sessions {
			fmt.Fprintf(tw, "  %s - %s\t%d\t\t%s\n",
				core.FormatBankDate(sess.Start), core.FormatBankDate(sess.End), sess.Events, formatHours(sess.Duration().Hours()))
		}
	}
	return tw.Flush()
}

func runHours(ctx context.Context, svc *services.ProfileService, args []string, out io.Writer) error {
	fs, profile := newFlagSet("hours")
	entity := fs.String("entity", "", "sender substring")
	reason := fs.String("reason", "", "reason substring")
	if err := parseFlags(fs, args, profile); err != nil {
		return err
	}
	if *entity == "" && *reason == "" {
		return fmt.Errorf("%w: hours: -entity or -reason is required", errUsage)
	}

	h, err := svc.LegacyHours(ctx, *profile, *entity, *reason)
	if err != nil {
		return err
	}
	if *entity != "" {
		fmt.Fprintf(out, "entity %q: %s\n", h.Entity, formatHours(h.EntityHours))
	}
	if *reason != "" {
		fmt.Fprintf(out, "reason %q: %s\n", h.Reason, formatHours(h.ReasonHours))
	}
	return nil
}

// runCheck inspects a local file: whether it looks like bank CSV, its headers
// and per-column numeric statistics.
func runCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("file", "", "CSV or .xlsx file")
	unique := fs.String("unique", "", "list the distinct values of this column")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: check: %w", errUsage, err)
	}
	if *file == "" {
		return fmt.Errorf("%w: check: -file is required", errUsage)
	}

	var text string
	var err error
	if fetch.Kind(*file) == "xlsx" {
		text, err = fetch.XLSXFetcher{}.Fetch(context.Background(), *file)
	} else {
		text, err = fetch.FileFetcher{}.Fetch(context.Background(), *file)
	}
	if err != nil {
		return err
	}

	if !table.LooksLikeCSV(text) {
		fmt.Fprintf(out, "%s: does not look like CSV\n", *file)
		return nil
	}
	t := table.Parse(text)
	fmt.Fprintf(out, "%s: %d columns, %d rows\n", *file, len(t.Headers), t.RowCount)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Column\tNumeric\tInvalid\tMin\tMax\tSum")
	for _, h := range t.Headers {
		st := t.NumericStats(h)
		if st.Count == 0 {
			fmt.Fprintf(tw, "%s\t0\t%d\t\t\t\n", h, st.Invalid)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", h, st.Count, st.Invalid, formatMoney(st.Min), formatMoney(st.Max), formatMoney(st.Sum))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if *unique != "" {
		fmt.Fprintf(out, "\n%s:\n", *unique)
		for _, v := range t.UniqueValues(*unique) {
			fmt.Fprintf(out, "  %s\n", v)
		}
	}
	return nil
}
