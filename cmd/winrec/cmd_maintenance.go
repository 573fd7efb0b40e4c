package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// confirm asks a yes/no question on the command's input unless --yes was given
func confirm(cmd *cobra.Command, question string) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runRemoteClear(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if !confirm(cmd, fmt.Sprintf("Delete ALL records stored by %s?", a.Client().BaseURL())) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}
	if err := a.Client().ClearData(cmd.Context()); err != nil {
		return err
	}
	a.Reporter().Invalidate()
	fmt.Fprintln(cmd.OutOrStdout(), "Remote records cleared.")
	return nil
}

func runPurgeUnsynced(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	_, unsynced, err := a.Journal().CountByState(cmd.Context())
	if err != nil {
		return err
	}
	if unsynced == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No unsynced records.")
		return nil
	}
	if !confirm(cmd, fmt.Sprintf("Delete %d local records that were never synced?", unsynced)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	deleted, err := a.Journal().DeleteUnsynced(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d unsynced records.\n", deleted)
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if err := a.Database().Optimize(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Journal optimized.")
	return nil
}
