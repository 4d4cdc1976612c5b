package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tagmirror/pkg/auth"
	"tagmirror/pkg/config"
	"tagmirror/pkg/logger"
	"tagmirror/pkg/mastodon"
	"tagmirror/pkg/syncer"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the synchronization loop",
	Long: `Run the synchronization loop until interrupted.

Each pass fetches the configured hashtags from every source server, diffs
them against the local server, imports what is missing, and then sleeps
out the configured pass delay and cadence budget. SIGINT or SIGTERM stops
the loop cleanly, including mid-wait.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		// Config file values win; otherwise fall back to stored credentials
		if cfg.Auth.Token == "" {
			if err := fillAuthFromStore(cfg); err != nil {
				return fmt.Errorf("no access token configured and none stored: %w (run 'tagmirror register' and 'tagmirror login' first)", err)
			}
		}

		names := make([]string, len(cfg.Hashtags))
		for i, tag := range cfg.Hashtags {
			names[i] = tag.Name
		}
		log.InfoWithFields("configuration loaded", map[string]interface{}{
			"server":   cfg.Server,
			"hashtags": names,
		})

		client := mastodon.NewClient(cfg.HTTP.Timeout.Duration(), log)
		limiters := syncer.NewLimiters(cfg.Rates)
		engine := syncer.NewEngine(client, cfg, limiters, log)
		sched := syncer.NewScheduler(engine, cfg, limiters, log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := sched.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("shutting down")
				return nil
			}
			return err
		}
		return nil
	},
}

// loadConfigAndLogger loads the config, applies global flags, and installs
// the default logger
func loadConfigAndLogger() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLogger(log)
	return cfg, log, nil
}

// fillAuthFromStore completes cfg.Auth from the credential store
func fillAuthFromStore(cfg *config.Config) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	creds, err := manager.Retrieve(cfg.Server)
	if err != nil {
		return err
	}
	if creds.AccessToken == "" {
		return errors.New("stored credentials have no access token")
	}
	if cfg.Auth.ClientID == "" {
		cfg.Auth.ClientID = creds.ClientID
	}
	if cfg.Auth.ClientSecret == "" {
		cfg.Auth.ClientSecret = creds.ClientSecret
	}
	cfg.Auth.Token = creds.AccessToken
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
