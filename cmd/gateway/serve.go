package main

import (
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	api "github.com/mind-engage/elearn/internal/api/http"
	auth "github.com/mind-engage/elearn/internal/auth/middleware"
	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/practice"
	syncx "github.com/mind-engage/elearn/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := loadConfig(cmd)

	dbh, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer dbh.Close()

	store := course.NewSQLStore(dbh, cfg.DBDriver)
	var opts []practice.Option
	var events *syncx.EventRepo
	if cfg.EnableEventLog {
		events = syncx.NewEventRepo(dbh, cfg.SiteID)
		opts = append(opts, practice.WithEvents(events))
	}
	svc := practice.NewService(store, practice.NewSQLStore(dbh), opts...)

	r := api.NewRouter(api.Deps{
		DB:             dbh,
		Auth:           auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL),
		Users:          auth.NewUserStore(dbh),
		Catalog:        store,
		Authoring:      store,
		Practice:       svc,
		Events:         events,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("listening on %s (db=%s, event_log=%v)", cfg.HTTPAddr, cfg.DBDriver, cfg.EnableEventLog)
	return s.ListenAndServe()
}
