package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"winrec/internal/classify"
	"winrec/internal/platform"
	"winrec/internal/types"
)

func runTrack(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	return a.RunAgent(cmd.Context(), platform.NewWindowAPI())
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	report, err := a.SyncOnce(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !report.Reachable {
		fmt.Fprintf(out, "Remote %s unreachable; records stay local.\n", a.Client().BaseURL())
		return nil
	}
	fmt.Fprintf(out, "Pushed %d (rejected %d, skipped %d), pulled %d of %d.\n",
		report.Push.Sent, report.Push.Rejected, report.Push.Skipped, report.Pull.Inserted, report.Pull.Fetched)
	if report.PushErr != nil {
		fmt.Fprintf(out, "Push: %v\n", report.PushErr)
	}
	if report.PullErr != nil {
		fmt.Fprintf(out, "Pull: %v\n", report.PullErr)
	}
	return nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordDuration < 0 {
		return fmt.Errorf("--duration must not be negative")
	}
	end := time.Now()
	if recordAt != "" {
		parsed, err := time.Parse(time.RFC3339, recordAt)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		end = parsed
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	title := classify.NormalizeTitle(recordTitle)
	category := strings.TrimSpace(recordCategory)
	if category == "" {
		category = a.Classifier().Categorize(title)
	}

	result, err := a.Tiered().Write(cmd.Context(), types.ActivityRecord{
		Timestamp:   types.TimeToEpoch(end),
		Duration:    recordDuration,
		Category:    category,
		WindowTitle: title,
		Source:      a.Config().Source,
	})
	if err != nil {
		return err
	}

	state := "local only, will sync later"
	if result.Synced {
		state = "synced"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded #%d %s (%s) %s\n", result.ID, category, types.FormatSeconds(float64(recordDuration)), state)
	return nil
}
