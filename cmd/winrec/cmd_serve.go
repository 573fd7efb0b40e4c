package main

import (
	"github.com/spf13/cobra"

	"winrec/internal/config"
	"winrec/internal/database"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/server"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	loc, err := cfg.ServerLocation()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level))

	dbConfig := database.CanonicalConfig(cfg.Server.DatabasePath)
	if err := dbConfig.LoadFromEnvironment("WINREC_SERVER_DB"); err != nil {
		return err
	}
	dbService, err := database.Open(cmd.Context(), dbConfig, logger)
	if err != nil {
		return err
	}
	defer dbService.Close()

	srv := server.New(dbService, server.Config{
		Address:          cfg.Server.Address,
		APIKey:           cfg.Server.APIKey,
		Location:         loc,
		RequireAuthReads: cfg.Server.RequireAuthReads,
		DefaultLimit:     cfg.Server.DefaultLimit,
		MaxLimit:         cfg.Server.MaxLimit,
	}, logger)
	return srv.Run(cmd.Context())
}
