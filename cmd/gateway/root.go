package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/elearn/internal/config"
	"github.com/mind-engage/elearn/internal/db"
)

var rootCmd = &cobra.Command{
	Use:          "gateway",
	Short:        "E-learning practice API",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("db-driver", "", "sqlite or postgres (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database DSN (overrides DB_DSN)")
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

// loadConfig reads the environment, then applies flags (highest priority).
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Value.String() != "" {
		cfg.HTTPAddr = f.Value.String()
	}
	return cfg
}

func openDB(cfg config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
}
