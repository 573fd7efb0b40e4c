package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"winrec/internal/config"
)

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	shown := cfg.Masked()
	shown.Categories = cfg.Rules()

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(shown); err != nil {
		return err
	}
	return enc.Close()
}
