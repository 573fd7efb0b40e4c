package main

import (
	"github.com/spf13/cobra"

	"winrec/internal/app"
	"winrec/internal/config"
)

var (
	configPath string
	assumeYes  bool

	recordCategory string
	recordTitle    string
	recordDuration int64
	recordAt       string

	reportJSON bool

	rootCmd = &cobra.Command{
		Use:           "winrec",
		Short:         "Records focused-window activity and syncs it with a remote record service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --- Agent ---
	trackCmd = &cobra.Command{
		Use:   "track",
		Short: "Capture window activity and sync in the background until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runTrack, // Defined in cmd_agent.go
	}
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass: probe, push unsynced records, pull remote records",
		Args:  cobra.NoArgs,
		RunE:  runSync, // Defined in cmd_agent.go
	}
	recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Record one interval, remote first with a local fallback",
		Args:  cobra.NoArgs,
		RunE:  runRecord, // Defined in cmd_agent.go
	}

	// --- Reports ---
	reportCmd = &cobra.Command{
		Use:   "report [YYYY-MM-DD]",
		Short: "Show the resolved timeline and category totals of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReport, // Defined in cmd_report.go
	}
	daysCmd = &cobra.Command{
		Use:   "days",
		Short: "List the days that have records, newest first",
		Args:  cobra.NoArgs,
		RunE:  runDays, // Defined in cmd_report.go
	}
	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "List local records that have not been synced yet",
		Args:  cobra.NoArgs,
		RunE:  runInspect, // Defined in cmd_report.go
	}

	// --- Maintenance ---
	remoteCmd = &cobra.Command{
		Use:   "remote",
		Short: "Manage the remote record service",
	}
	remoteClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "DANGER: Delete every record stored by the remote service",
		Args:  cobra.NoArgs,
		RunE:  runRemoteClear, // Defined in cmd_maintenance.go
	}
	purgeUnsyncedCmd = &cobra.Command{
		Use:   "purge-unsynced",
		Short: "DANGER: Delete local records that were never synced",
		Args:  cobra.NoArgs,
		RunE:  runPurgeUnsynced, // Defined in cmd_maintenance.go
	}
	optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Vacuum and analyze the local journal",
		Args:  cobra.NoArgs,
		RunE:  runOptimize, // Defined in cmd_maintenance.go
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the canonical remote record service",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	// --- Config ---
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML with secrets masked",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow, // Defined in cmd_config.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $"+config.PathEnv+" or ./winrec.yaml)")

	recordCmd.Flags().StringVar(&recordCategory, "category", "", "category of the interval (default: classify the title)")
	recordCmd.Flags().StringVar(&recordTitle, "title", "", "window title")
	recordCmd.Flags().Int64Var(&recordDuration, "duration", 0, "length in seconds")
	recordCmd.Flags().StringVar(&recordAt, "at", "", "end of the interval, RFC 3339 (default now)")
	_ = recordCmd.MarkFlagRequired("duration")

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")

	for _, cmd := range []*cobra.Command{remoteClearCmd, purgeUnsyncedCmd} {
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	}

	remoteCmd.AddCommand(remoteClearCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(
		trackCmd, syncCmd, recordCmd,
		reportCmd, daysCmd, inspectCmd,
		remoteCmd, purgeUnsyncedCmd, optimizeCmd,
		serveCmd, configCmd,
	)
}

// openApp loads the configuration and wires the agent. The caller closes it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, app.Options{LogOutput: cmd.ErrOrStderr()})
}
