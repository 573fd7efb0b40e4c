package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"winrec/internal/types"
)

func runReport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	day := time.Now().In(a.Config().Location()).Format("2006-01-02")
	if len(args) == 1 {
		day = args[0]
	}

	report, err := a.Reporter().Day(cmd.Context(), day)
	if err != nil {
		return err
	}
	if reportJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report, a.Config().Location())
	return nil
}

func printReport(out io.Writer, report types.DayReport, loc *time.Location) {
	fmt.Fprintf(out, "%s (%s records)\n\n", report.Day, report.Origin)
	if len(report.Intervals) == 0 {
		fmt.Fprintln(out, "No activity.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tDURATION\tCATEGORY\tSOURCE")
	for _, iv := range report.Intervals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			iv.Start.In(loc).Format("15:04:05"),
			iv.End.In(loc).Format("15:04:05"),
			types.FormatSeconds(iv.Duration),
			iv.Category,
			iv.Source,
		)
	}
	_ = tw.Flush()

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL")
	for _, total := range report.Totals {
		fmt.Fprintf(tw, "%s\t%s\n", total.Category, types.FormatSeconds(total.TotalDuration))
	}
	fmt.Fprintf(tw, "all\t%s\n", types.FormatSeconds(report.TotalTime))
	_ = tw.Flush()
}

func runDays(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	days, err := a.Reporter().Days(cmd.Context())
	if err != nil {
		return err
	}
	for _, day := range days {
		fmt.Fprintln(cmd.OutOrStdout(), day)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	records, err := a.Journal().QueryUnsynced(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d unsynced records\n", len(records))
	if len(records) == 0 {
		return nil
	}

	loc := a.Config().Location()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEND\tDURATION\tCATEGORY\tSOURCE\tTITLE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.End().In(loc).Format("2006-01-02 15:04:05"),
			types.FormatSeconds(float64(rec.Duration)),
			rec.Category,
			types.NormalizeSource(rec.Source),
			rec.WindowTitle,
		)
	}
	return tw.Flush()
}
