package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	auth "github.com/mind-engage/elearn/internal/auth/middleware"
	"github.com/mind-engage/elearn/internal/rbac"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		dbh, err := openDB(cfg) // Open applies the schema
		if err != nil {
			return err
		}
		defer dbh.Close()
		log.Printf("schema ready (db=%s)", cfg.DBDriver)
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <username> <password>",
	Short: "Create an admin account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbh, err := openDB(loadConfig(cmd))
		if err != nil {
			return err
		}
		defer dbh.Close()
		u, err := auth.NewUserStore(dbh).Create(context.Background(), auth.NewUser{
			Username: args[0],
			Password: args[1],
			Role:     rbac.RoleAdmin,
		})
		if err != nil {
			return err
		}
		log.Printf("created admin %s (%s)", u.Username, u.ID)
		return nil
	},
}
